package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/internal/app/repository"
	"github.com/ikkim/scanreview-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: baseTime}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events map[uint][]ReviewEvent
}

func (n *recordingNotifier) NotifyOwner(ownerID uint, event ReviewEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.events == nil {
		n.events = map[uint][]ReviewEvent{}
	}
	n.events[ownerID] = append(n.events[ownerID], event)
}

type testEnv struct {
	db       *gorm.DB
	clock    *fakeClock
	notifier *recordingNotifier
	anonID   uint

	businessRepo repository.BusinessRepository
	tagRepo      repository.TagRepository
	checkRepo    repository.CheckRepository
	reviewRepo   repository.ReviewRepository

	tags    TagService
	guard   AbuseGuard
	checks  CheckService
	gate    ReviewGate
	stats   StatsService
	reviews ReviewService
	scans   ScanService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	anonID, err := db.EnsureSystemUser(testDB, "anonymous@system.local")
	require.NoError(t, err)

	env := &testEnv{
		db:           testDB,
		clock:        newFakeClock(),
		notifier:     &recordingNotifier{},
		anonID:       anonID,
		businessRepo: repository.NewBusinessRepository(testDB),
		tagRepo:      repository.NewTagRepository(testDB),
		checkRepo:    repository.NewCheckRepository(testDB),
		reviewRepo:   repository.NewReviewRepository(testDB),
	}
	now := env.clock.Now

	env.tags = NewTagService(env.tagRepo, env.businessRepo, env.checkRepo, nil, "https://reviews.example.com", now)
	env.guard = NewAbuseGuard(env.checkRepo, env.reviewRepo, time.Hour, now)
	env.checks = NewCheckService(env.checkRepo, env.businessRepo, env.guard, nil, CheckServiceConfig{CheckTTL: 24 * time.Hour}, now)
	env.gate = NewReviewGate(env.checkRepo, env.reviewRepo, now)
	env.stats = NewStatsService(env.reviewRepo, env.businessRepo, now)
	env.reviews = NewReviewService(env.reviewRepo, env.businessRepo, env.gate, env.stats, env.notifier, anonID, now)
	env.scans = NewScanService(env.tags, env.checks, env.gate, env.checkRepo)
	return env
}

func (e *testEnv) createUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hash", Name: "Test User", Role: model.RoleUser}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createBusiness(t *testing.T, name string, ownerID *uint) *model.Business {
	t.Helper()
	business := &model.Business{Name: name, City: "Lyon", Address: "2 place Bellecour", Description: "A place", OwnerID: ownerID}
	require.NoError(t, e.db.Create(business).Error)
	return business
}

func (e *testEnv) createTag(t *testing.T, businessID uint, status model.TagStatus) *model.ScanTag {
	t.Helper()
	tag := &model.ScanTag{BusinessID: businessID, Code: model.NewTagCode(), Type: model.TagTypeQR, Status: status}
	require.NoError(t, e.db.Create(tag).Error)
	return tag
}

func (e *testEnv) business(t *testing.T, id uint) *model.Business {
	t.Helper()
	b, err := e.businessRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (e *testEnv) countReviews(t *testing.T, checkID string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Unscoped().Model(&model.Review{}).Where("check_id = ?", checkID).Count(&count).Error)
	return count
}

func uintPtr(v uint) *uint { return &v }
func intPtr(v int) *int    { return &v }
func strPtr(v string) *string {
	return &v
}
