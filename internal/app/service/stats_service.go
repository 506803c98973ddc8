package service

import (
	"context"
	"errors"
	"math"

	"github.com/ikkim/scanreview-backend/internal/app/repository"
	"github.com/ikkim/scanreview-backend/pkg/logger"
	"gorm.io/gorm"
)

type StatsService interface {
	// RecomputeBusinessStats re-reads every live rating of the business and
	// overwrites its aggregate, stamping last_review_at.
	RecomputeBusinessStats(ctx context.Context, businessID uint) error
	// ReconcileAllStats recomputes every business, leaving last_review_at
	// alone. It returns how many businesses were updated.
	ReconcileAllStats(ctx context.Context) (int, error)
}

type statsService struct {
	reviewRepo   repository.ReviewRepository
	businessRepo repository.BusinessRepository
	now          Clock
}

func NewStatsService(reviewRepo repository.ReviewRepository, businessRepo repository.BusinessRepository, now Clock) StatsService {
	if now == nil {
		now = utcNow
	}
	return &statsService{reviewRepo: reviewRepo, businessRepo: businessRepo, now: now}
}

// aggregateRatings returns the mean rounded to one decimal and the count.
// No ratings yields 0 and 0.
func aggregateRatings(ratings []int) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return math.Round(mean*10) / 10, len(ratings)
}

func (s *statsService) recompute(ctx context.Context, businessID uint, stamp bool) error {
	ratings, err := s.reviewRepo.Ratings(ctx, businessID)
	if err != nil {
		return storageFailure("stats.read_ratings", err, map[string]interface{}{"business_id": businessID})
	}

	avg, count := aggregateRatings(ratings)
	stats := repository.BusinessStats{AverageRating: avg, ReviewCount: count}
	if stamp {
		now := s.now()
		stats.LastReviewAt = &now
	}

	if err := s.businessRepo.UpdateStats(ctx, businessID, stats); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBusinessNotFound
		}
		return storageFailure("stats.write", err, map[string]interface{}{"business_id": businessID})
	}

	logger.Debug("Business stats recomputed", map[string]interface{}{
		"business_id":    businessID,
		"average_rating": avg,
		"review_count":   count,
	})
	return nil
}

func (s *statsService) RecomputeBusinessStats(ctx context.Context, businessID uint) error {
	return s.recompute(ctx, businessID, true)
}

func (s *statsService) ReconcileAllStats(ctx context.Context) (int, error) {
	ids, err := s.businessRepo.ListIDs(ctx)
	if err != nil {
		return 0, storageFailure("stats.list_businesses", err, nil)
	}

	updated := 0
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		if err := s.recompute(ctx, id, false); err != nil {
			errs = append(errs, err)
			continue
		}
		updated++
	}

	logger.Info("Business stats reconciled", map[string]interface{}{
		"businesses": len(ids),
		"updated":    updated,
		"failed":     len(errs),
	})
	return updated, errors.Join(errs...)
}
