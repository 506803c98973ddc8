package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/internal/app/repository"
	"gorm.io/gorm"
)

// ReviewPermit is handed to the review writer once a check passed the gate.
type ReviewPermit struct {
	Check      *model.Check
	BusinessID uint
}

type ReviewGate interface {
	// CanReview decides whether a review may still be written against
	// checkID by callerUserID (nil for anonymous callers).
	CanReview(ctx context.Context, checkID string, callerUserID *uint) (*ReviewPermit, error)
}

type reviewGate struct {
	checkRepo  repository.CheckRepository
	reviewRepo repository.ReviewRepository
	now        Clock
}

func NewReviewGate(checkRepo repository.CheckRepository, reviewRepo repository.ReviewRepository, now Clock) ReviewGate {
	if now == nil {
		now = utcNow
	}
	return &reviewGate{checkRepo: checkRepo, reviewRepo: reviewRepo, now: now}
}

func (g *reviewGate) CanReview(ctx context.Context, checkID string, callerUserID *uint) (*ReviewPermit, error) {
	if _, err := uuid.Parse(checkID); err != nil {
		return nil, ErrCheckNotFound
	}

	check, err := g.checkRepo.FindByID(ctx, checkID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCheckNotFound
	}
	if err != nil {
		return nil, storageFailure("gate.find_check", err, map[string]interface{}{"check_id": checkID})
	}

	if check.IsExpired(g.now()) {
		return nil, ErrCheckExpired
	}

	reviewed, err := g.reviewRepo.ExistsForCheck(ctx, check.ID)
	if err != nil {
		return nil, storageFailure("gate.review_exists", err, map[string]interface{}{"check_id": check.ID})
	}
	if reviewed {
		return nil, ErrAlreadyReviewed
	}

	if check.UserID != nil && callerUserID != nil && *check.UserID != *callerUserID {
		return nil, ErrNotOwner
	}

	return &ReviewPermit{Check: check, BusinessID: check.BusinessID}, nil
}
