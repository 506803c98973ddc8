package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ikkim/scanreview-backend/config"
	"github.com/ikkim/scanreview-backend/internal/app/repository"
	"github.com/ikkim/scanreview-backend/internal/app/service"
	"github.com/ikkim/scanreview-backend/internal/cli"
	"github.com/ikkim/scanreview-backend/internal/db"
	"github.com/ikkim/scanreview-backend/pkg/logger"
)

func connect() (*cli.Services, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := db.Initialize(&cfg.Database); err != nil {
		return nil, nil, err
	}

	gormDB := db.GetDB()
	businessRepo := repository.NewBusinessRepository(gormDB)
	tagRepo := repository.NewTagRepository(gormDB)
	checkRepo := repository.NewCheckRepository(gormDB)
	reviewRepo := repository.NewReviewRepository(gormDB)

	svc := &cli.Services{
		Tags:  service.NewTagService(tagRepo, businessRepo, checkRepo, nil, cfg.Scan.PublicBaseURL, nil),
		Stats: service.NewStatsService(reviewRepo, businessRepo, nil),
	}
	release := func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}
	return svc, release, nil
}

func main() {
	// Logs go to stderr so --format json stays parseable.
	logger.Initialize(logger.Config{Level: "warn", Format: "console", Output: os.Stderr})

	if err := cli.NewRootCommand(connect).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
