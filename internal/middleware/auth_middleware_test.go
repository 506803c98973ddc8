package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/scanreview-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret-for-middleware"

func setupMiddlewareTest() (*gin.Engine, *AuthMiddleware) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	middleware := NewAuthMiddleware(testJWTSecret)
	return router, middleware
}

func generateTestTokens(t *testing.T, userID uint, email, role string) *util.TokenPair {
	tokens, err := util.GenerateTokenPair(
		userID,
		email,
		role,
		testJWTSecret,
		15*time.Minute,
		7*24*time.Hour,
	)
	require.NoError(t, err)
	return tokens
}

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest()
	token := generateTestTokens(t, 1, "test@example.com", "owner").AccessToken

	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		email, _ := GetUserEmail(c)
		role, _ := GetUserRole(c)

		c.JSON(http.StatusOK, gin.H{
			"user_id": userID,
			"email":   email,
			"role":    role,
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":1,"email":"test@example.com","role":"owner"}`, w.Body.String())
}

func TestAuthMiddleware_Authenticate_QueryToken(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest()
	token := generateTestTokens(t, 5, "owner@example.com", "owner").AccessToken

	router.GET("/ws", authMiddleware.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthMiddleware_Authenticate_Rejections(t *testing.T) {
	tokens := generateTestTokens(t, 1, "test@example.com", "user")

	tests := []struct {
		name     string
		header   string
		wantBody string
	}{
		{name: "no token", header: "", wantBody: "Authorization header is required"},
		{name: "no bearer prefix", header: tokens.AccessToken, wantBody: "AUTH_TOKEN_INVALID"},
		{name: "wrong scheme", header: "Basic " + tokens.AccessToken, wantBody: "AUTH_TOKEN_INVALID"},
		{name: "garbage token", header: "Bearer not-a-jwt", wantBody: "Invalid or expired token"},
		{name: "refresh token", header: "Bearer " + tokens.RefreshToken, wantBody: "AUTH_TOKEN_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, authMiddleware := setupMiddlewareTest()
			router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestAuthMiddleware_Authenticate_ExpiredToken(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest()
	tokens, err := util.GenerateTokenPair(1, "test@example.com", "user", testJWTSecret, -time.Minute, time.Hour)
	require.NoError(t, err)

	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_TOKEN_EXPIRED")
}

func TestAuthMiddleware_OptionalAuthenticate(t *testing.T) {
	token := generateTestTokens(t, 9, "guest@example.com", "user").AccessToken

	tests := []struct {
		name     string
		header   string
		wantUser bool
	}{
		{name: "anonymous", header: ""},
		{name: "valid token", header: "Bearer " + token, wantUser: true},
		{name: "invalid token", header: "Bearer nope"},
		{name: "malformed header", header: "Token " + token},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, authMiddleware := setupMiddlewareTest()
			router.GET("/test", authMiddleware.OptionalAuthenticate(), func(c *gin.Context) {
				caller := CallerID(c)
				if caller == nil {
					c.JSON(http.StatusOK, gin.H{"anonymous": true})
					return
				}
				c.JSON(http.StatusOK, gin.H{"user_id": *caller})
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			if tt.wantUser {
				assert.JSONEq(t, `{"user_id":9}`, w.Body.String())
			} else {
				assert.JSONEq(t, `{"anonymous":true}`, w.Body.String())
			}
		})
	}
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	tests := []struct {
		name           string
		role           string
		allowed        []string
		expectedStatus int
	}{
		{name: "owner allowed", role: "owner", allowed: []string{"owner", "admin"}, expectedStatus: http.StatusOK},
		{name: "admin allowed", role: "admin", allowed: []string{"owner", "admin"}, expectedStatus: http.StatusOK},
		{name: "user rejected", role: "user", allowed: []string{"owner", "admin"}, expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, authMiddleware := setupMiddlewareTest()
			token := generateTestTokens(t, 1, "test@example.com", tt.role).AccessToken

			router.GET("/test",
				authMiddleware.Authenticate(),
				authMiddleware.RequireRole(tt.allowed...),
				func(c *gin.Context) { c.Status(http.StatusOK) },
			)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAuthMiddleware_RequireRole_NoIdentity(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest()
	router.GET("/test", authMiddleware.RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "AUTHZ_ROLE_NOT_FOUND")
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	userID, exists := GetUserID(c)
	assert.False(t, exists)
	assert.Equal(t, uint(0), userID)
	assert.Nil(t, CallerID(c))

	c.Set(UserIDKey, uint(123))
	userID, exists = GetUserID(c)
	assert.True(t, exists)
	assert.Equal(t, uint(123), userID)
	require.NotNil(t, CallerID(c))
	assert.Equal(t, uint(123), *CallerID(c))
}
