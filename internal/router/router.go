package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/scanreview-backend/config"
	"github.com/ikkim/scanreview-backend/internal/app/controller"
	"github.com/ikkim/scanreview-backend/internal/middleware"
	"github.com/ikkim/scanreview-backend/pkg/logger"
)

type Router struct {
	authController     *controller.AuthController
	scanController     *controller.ScanController
	reviewController   *controller.ReviewController
	tagController      *controller.TagController
	ownerController    *controller.OwnerController
	categoryController *controller.CategoryController
	authMiddleware     *middleware.AuthMiddleware
	scanCounter        middleware.HitCounter
	config             *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	scanController *controller.ScanController,
	reviewController *controller.ReviewController,
	tagController *controller.TagController,
	ownerController *controller.OwnerController,
	categoryController *controller.CategoryController,
	authMiddleware *middleware.AuthMiddleware,
	scanCounter middleware.HitCounter,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		scanController:     scanController,
		reviewController:   reviewController,
		tagController:      tagController,
		ownerController:    ownerController,
		categoryController: categoryController,
		authMiddleware:     authMiddleware,
		scanCounter:        scanCounter,
		config:             cfg,
	}
}

// trustedPlatform maps the configured platform to the header gin reads the
// client IP from. The abuse guard and rate limit key on that IP.
func trustedPlatform(name string) string {
	switch strings.ToLower(name) {
	case "":
		return ""
	case "cloudflare":
		return gin.PlatformCloudflare
	case "google":
		return gin.PlatformGoogleAppEngine
	default:
		return name
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()
	router.TrustedPlatform = trustedPlatform(r.config.Server.TrustedPlatform)
	// Dedup and the scan rate limit key on ClientIP, so forwarding headers are
	// only honoured from configured proxies.
	if err := router.SetTrustedProxies(r.config.Server.TrustedProxies); err != nil {
		logger.Error("Invalid trusted proxies, using connection address", err, map[string]interface{}{
			"trusted_proxies": r.config.Server.TrustedProxies,
		})
		_ = router.SetTrustedProxies(nil)
	}

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Scan review API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.RefreshToken)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
		}

		v1.POST("/scan/validate-tag",
			middleware.ScanRateLimit(r.scanCounter, r.config.Scan.RateLimit, r.config.Scan.RateWindow),
			r.authMiddleware.OptionalAuthenticate(),
			r.scanController.ValidateTag,
		)
		v1.POST("/checks/validate", r.authMiddleware.OptionalAuthenticate(), r.scanController.ValidateCheck)

		v1.GET("/categories", r.categoryController.ListCategories)
		v1.GET("/businesses/:id/reviews", r.reviewController.ListBusinessReviews)
		v1.GET("/tags/:id/qr.png", r.tagController.QRCode)

		reviews := v1.Group("/reviews")
		{
			reviews.POST("", r.authMiddleware.OptionalAuthenticate(), r.reviewController.CreateReview)
			reviews.PUT("/:id", r.authMiddleware.Authenticate(), r.reviewController.UpdateReview)
			reviews.DELETE("/:id", r.authMiddleware.Authenticate(), r.reviewController.DeleteReview)
			reviews.POST("/:id/response",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("owner", "admin"),
				r.reviewController.RespondToReview,
			)
		}

		owner := v1.Group("/owner")
		owner.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole("owner", "admin"))
		{
			owner.GET("/tags", r.tagController.ListOwnerTags)
			owner.POST("/tags", r.tagController.CreateTag)
			owner.POST("/tags/:id/deactivate", r.tagController.DeactivateTag)
			owner.POST("/tags/:id/replace", r.tagController.ReplaceTag)
			owner.GET("/checks", r.ownerController.ListChecks)
			owner.GET("/checks/export", r.ownerController.ExportChecks)
			owner.GET("/ws", r.ownerController.Feed)
		}

		if !r.config.Server.IsProduction() {
			v1.GET("/debug/tags/:id", r.tagController.DiagnoseTag)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
