package controller

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/internal/app/repository"
	"github.com/ikkim/scanreview-backend/internal/app/service"
	"github.com/ikkim/scanreview-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

type controllerEnv struct {
	db     *gorm.DB
	router *gin.Engine
	now    time.Time

	tags    service.TagService
	scans   service.ScanService
	reviews service.ReviewService
	checks  service.CheckService
}

// setupControllerTest wires real services over an in-memory database. Calls
// made with a non-zero asUser are authenticated as that user.
func setupControllerTest(t *testing.T) *controllerEnv {
	t.Helper()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	anonID, err := db.EnsureSystemUser(testDB, "anonymous@system.local")
	require.NoError(t, err)

	env := &controllerEnv{db: testDB, now: time.Now().UTC()}
	clock := func() time.Time { return env.now }

	businessRepo := repository.NewBusinessRepository(testDB)
	tagRepo := repository.NewTagRepository(testDB)
	checkRepo := repository.NewCheckRepository(testDB)
	reviewRepo := repository.NewReviewRepository(testDB)

	env.tags = service.NewTagService(tagRepo, businessRepo, checkRepo, nil, "https://reviews.example.com", clock)
	guard := service.NewAbuseGuard(checkRepo, reviewRepo, time.Hour, clock)
	env.checks = service.NewCheckService(checkRepo, businessRepo, guard, nil, service.CheckServiceConfig{CheckTTL: 24 * time.Hour}, clock)
	gate := service.NewReviewGate(checkRepo, reviewRepo, clock)
	stats := service.NewStatsService(reviewRepo, businessRepo, clock)
	env.reviews = service.NewReviewService(reviewRepo, businessRepo, gate, stats, nil, anonID, clock)
	env.scans = service.NewScanService(env.tags, env.checks, gate, checkRepo)
	exports := service.NewExportService(env.checks, clock)
	categories := service.NewCategoryService(repository.NewCategoryRepository(testDB), nil, time.Hour)

	scanCtrl := NewScanController(env.scans)
	reviewCtrl := NewReviewController(env.reviews)
	tagCtrl := NewTagController(env.tags)
	ownerCtrl := NewOwnerController(env.checks, exports, nil, nil)
	categoryCtrl := NewCategoryController(categories)
	authCtrl := NewAuthController(service.NewAuthService(repository.NewUserRepository(testDB), testJWTSecret, 15*time.Minute, 7*24*time.Hour))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if raw := c.GetHeader("X-Test-User"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 32)
			require.NoError(t, err)
			c.Set("user_id", uint(id))
			c.Set("user_role", model.RoleOwner)
		}
		c.Next()
	})

	router.POST("/scan/validate-tag", scanCtrl.ValidateTag)
	router.POST("/checks/validate", scanCtrl.ValidateCheck)
	router.POST("/reviews", reviewCtrl.CreateReview)
	router.PUT("/reviews/:id", reviewCtrl.UpdateReview)
	router.DELETE("/reviews/:id", reviewCtrl.DeleteReview)
	router.POST("/reviews/:id/response", reviewCtrl.RespondToReview)
	router.GET("/businesses/:id/reviews", reviewCtrl.ListBusinessReviews)
	router.GET("/tags/:id/qr.png", tagCtrl.QRCode)
	router.GET("/owner/tags", tagCtrl.ListOwnerTags)
	router.POST("/owner/tags", tagCtrl.CreateTag)
	router.POST("/owner/tags/:id/deactivate", tagCtrl.DeactivateTag)
	router.POST("/owner/tags/:id/replace", tagCtrl.ReplaceTag)
	router.GET("/owner/checks", ownerCtrl.ListChecks)
	router.GET("/owner/checks/export", ownerCtrl.ExportChecks)
	router.GET("/debug/tags/:id", tagCtrl.DiagnoseTag)
	router.GET("/categories", categoryCtrl.ListCategories)
	router.POST("/auth/register", authCtrl.Register)
	router.POST("/auth/login", authCtrl.Login)
	router.POST("/auth/refresh", authCtrl.RefreshToken)
	router.GET("/auth/me", authCtrl.GetMe)

	env.router = router
	return env
}

func (e *controllerEnv) do(t *testing.T, method, path string, body interface{}, asUser uint) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.7:51000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if asUser != 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(asUser), 10))
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *controllerEnv) createUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hashed-password", Name: "Test User", Role: model.RoleOwner}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *controllerEnv) createBusiness(t *testing.T, name string, ownerID *uint) *model.Business {
	t.Helper()
	business := &model.Business{OwnerID: ownerID, Name: name, Slug: uuid.NewString(), City: "Nantes", Address: "1 rue du Port"}
	require.NoError(t, e.db.Create(business).Error)
	return business
}

func (e *controllerEnv) createTag(t *testing.T, businessID uint, status model.TagStatus) *model.ScanTag {
	t.Helper()
	tag := &model.ScanTag{ID: uuid.NewString(), BusinessID: businessID, Code: "T-" + uuid.NewString()[:10], Type: model.TagTypeQR, Status: status}
	require.NoError(t, e.db.Omit("Business").Create(tag).Error)
	return tag
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func assertFailure(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	body := decode(t, w)
	require.Equal(t, false, body["success"])
	require.Equal(t, code, body["code"])
}
