package service

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/internal/app/repository"
)

// Reasons reported when a known check can no longer be reviewed.
const (
	ReasonAlreadyReviewed = "already_reviewed"
	ReasonNotOwner        = "not_owner"
)

type ScanResult struct {
	CheckID         string                 `json:"check_id"`
	Business        *model.BusinessSummary `json:"business"`
	CanCreateReview bool                   `json:"can_create_review"`
	Reused          bool                   `json:"reused"`
	ExpiresAt       time.Time              `json:"expires_at"`
}

type CheckValidation struct {
	Business        *model.BusinessSummary `json:"business"`
	CanCreateReview bool                   `json:"can_create_review"`
	Reason          string                 `json:"reason,omitempty"`
}

// ScanService runs the scan side of the flow: tag, guard, check.
type ScanService interface {
	ValidateScan(ctx context.Context, tagID string, req ScanRequest) (*ScanResult, error)
	ValidateCheck(ctx context.Context, checkID string, callerUserID *uint) (*CheckValidation, error)
}

type scanService struct {
	tags      TagService
	checks    CheckService
	gate      ReviewGate
	checkRepo repository.CheckRepository
}

func NewScanService(tags TagService, checks CheckService, gate ReviewGate, checkRepo repository.CheckRepository) ScanService {
	return &scanService{tags: tags, checks: checks, gate: gate, checkRepo: checkRepo}
}

func (s *scanService) ValidateScan(ctx context.Context, tagID string, req ScanRequest) (*ScanResult, error) {
	tag, err := s.tags.ResolveTag(ctx, tagID)
	if err != nil {
		return nil, err
	}

	check, reused, err := s.checks.IssueCheck(ctx, tag, req)
	if err != nil {
		return nil, err
	}

	return &ScanResult{
		CheckID:         check.ID,
		Business:        tag.Business.Summary(),
		CanCreateReview: true,
		Reused:          reused,
		ExpiresAt:       check.ExpiresAt,
	}, nil
}

// ValidateCheck reports whether checkID can still be reviewed. Missing and
// expired checks are errors; a consumed or foreign check is a negative
// answer with a reason.
func (s *scanService) ValidateCheck(ctx context.Context, checkID string, callerUserID *uint) (*CheckValidation, error) {
	permit, err := s.gate.CanReview(ctx, checkID, callerUserID)
	if err == nil {
		return &CheckValidation{Business: permit.Check.Business.Summary(), CanCreateReview: true}, nil
	}

	var reason string
	switch {
	case errors.Is(err, ErrAlreadyReviewed):
		reason = ReasonAlreadyReviewed
	case errors.Is(err, ErrNotOwner):
		reason = ReasonNotOwner
	default:
		return nil, err
	}

	check, findErr := s.checkRepo.FindByID(ctx, checkID)
	if findErr != nil {
		return nil, storageFailure("scan.validate_check", findErr, map[string]interface{}{"check_id": checkID})
	}
	return &CheckValidation{Business: check.Business.Summary(), CanCreateReview: false, Reason: reason}, nil
}
