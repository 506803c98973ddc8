package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/scanreview-backend/config"
	"github.com/ikkim/scanreview-backend/internal/app/controller"
	"github.com/ikkim/scanreview-backend/internal/app/repository"
	"github.com/ikkim/scanreview-backend/internal/app/service"
	"github.com/ikkim/scanreview-backend/internal/db"
	"github.com/ikkim/scanreview-backend/internal/middleware"
	"github.com/ikkim/scanreview-backend/internal/router"
	"github.com/ikkim/scanreview-backend/internal/scheduler"
	"github.com/ikkim/scanreview-backend/internal/storage"
	ws "github.com/ikkim/scanreview-backend/internal/websocket"
	"github.com/ikkim/scanreview-backend/pkg/cache"
	"github.com/ikkim/scanreview-backend/pkg/logger"
	"github.com/ikkim/scanreview-backend/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting scan review server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	anonymousUserID, err := db.EnsureSystemUser(db.GetDB(), cfg.Scan.AnonymousUserEmail)
	if err != nil {
		logger.Fatal("Failed to provision the anonymous system user", err)
	}

	// Redis is optional. Without it scans are not locked or rate limited and
	// categories are read from the database on every request.
	var (
		locker      service.Locker
		scanCounter middleware.HitCounter
		cacheStore  cache.Store
	)
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, continuing without it", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer redis.Close()
			client := redis.GetClient()
			locker = redis.NewLocker(client, "scanreview:lock:")
			scanCounter = redis.NewWindowCounter(client, "scanreview:")
			cacheStore = cache.NewRedisStore(client, "scanreview:cache:")
		}
	}

	var qrUploader service.QRUploader
	if cfg.S3.Enabled() {
		qrUploader = storage.NewS3Storage(
			context.Background(),
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.BaseURL,
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub()
	go hub.Run(ctx)

	// Repositories
	gormDB := db.GetDB()
	businessRepo := repository.NewBusinessRepository(gormDB)
	tagRepo := repository.NewTagRepository(gormDB)
	checkRepo := repository.NewCheckRepository(gormDB)
	reviewRepo := repository.NewReviewRepository(gormDB)
	categoryRepo := repository.NewCategoryRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)
	tagService := service.NewTagService(tagRepo, businessRepo, checkRepo, qrUploader, cfg.Scan.PublicBaseURL, nil)
	abuseGuard := service.NewAbuseGuard(checkRepo, reviewRepo, cfg.Scan.DedupWindow, nil)
	checkService := service.NewCheckService(checkRepo, businessRepo, abuseGuard, locker, service.CheckServiceConfig{
		LockTTL: cfg.Scan.LockTTL,
	}, nil)
	reviewGate := service.NewReviewGate(checkRepo, reviewRepo, nil)
	statsService := service.NewStatsService(reviewRepo, businessRepo, nil)
	reviewService := service.NewReviewService(reviewRepo, businessRepo, reviewGate, statsService, hub, anonymousUserID, nil)
	scanService := service.NewScanService(tagService, checkService, reviewGate, checkRepo)
	exportService := service.NewExportService(checkService, nil)
	categoryService := service.NewCategoryService(categoryRepo, cacheStore, cfg.Cache.CategoryTTL)

	statsScheduler := scheduler.NewStatsScheduler(statsService, cfg.Scan.StatsReconcileSchedule)
	if err := statsScheduler.Start(); err != nil {
		logger.Fatal("Failed to start stats scheduler", err)
	}
	defer statsScheduler.Stop()

	r := router.NewRouter(
		controller.NewAuthController(authService),
		controller.NewScanController(scanService),
		controller.NewReviewController(reviewService),
		controller.NewTagController(tagService),
		controller.NewOwnerController(checkService, exportService, hub, cfg.CORS.AllowedOrigins),
		controller.NewCategoryController(categoryService),
		middleware.NewAuthMiddleware(cfg.JWT.Secret),
		scanCounter,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shut down", err)
	}

	logger.Info("Server stopped successfully")
}
