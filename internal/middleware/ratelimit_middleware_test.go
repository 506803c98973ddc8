package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type memoryCounter struct {
	hits map[string]int64
	err  error
}

func (m *memoryCounter) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.hits[key]++
	return m.hits[key], nil
}

func scanRouter(counter HitCounter, limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/scan", ScanRateLimit(counter, limit, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func scanFrom(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/scan", nil)
	req.RemoteAddr = ip + ":40000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestScanRateLimit(t *testing.T) {
	counter := &memoryCounter{hits: map[string]int64{}}
	router := scanRouter(counter, 2)

	assert.Equal(t, http.StatusOK, scanFrom(router, "203.0.113.7").Code)
	assert.Equal(t, http.StatusOK, scanFrom(router, "203.0.113.7").Code)

	w := scanFrom(router, "203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "SCAN_RATE_LIMITED")
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// other clients keep their own budget
	assert.Equal(t, http.StatusOK, scanFrom(router, "198.51.100.4").Code)
}

func TestScanRateLimit_FailsOpen(t *testing.T) {
	router := scanRouter(&memoryCounter{err: errors.New("redis down")}, 1)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, scanFrom(router, "203.0.113.7").Code)
	}
}

func TestScanRateLimit_Disabled(t *testing.T) {
	router := scanRouter(nil, 1)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, scanFrom(router, "203.0.113.7").Code)
	}
}
