package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/scanreview-backend/internal/errors"
)

// HitCounter counts hits on key inside a fixed window.
type HitCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// ScanRateLimit caps scans per client IP. A counter failure lets the request
// through; the abuse guard still deduplicates.
func ScanRateLimit(counter HitCounter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || limit <= 0 {
			c.Next()
			return
		}

		log := GetLoggerFromContext(c)
		ip := c.ClientIP()

		hits, err := counter.Hit(c.Request.Context(), "ratelimit:scan:"+ip, window)
		if err != nil {
			log.Warn("Scan rate limit check failed, allowing request", map[string]interface{}{
				"ip":    ip,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		if hits > int64(limit) {
			log.Warn("Scan rate limit exceeded", map[string]interface{}{
				"ip":   ip,
				"hits": hits,
			})
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			apperrors.RespondWithError(c, http.StatusTooManyRequests, apperrors.ScanRateLimited, "Too many scans, please slow down")
			c.Abort()
			return
		}

		c.Next()
	}
}
