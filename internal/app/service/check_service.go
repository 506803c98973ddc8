package service

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/internal/app/repository"
	"github.com/ikkim/scanreview-backend/pkg/logger"
	"gorm.io/gorm"
)

// ScanRequest carries what the scanning client told us about itself.
type ScanRequest struct {
	Fingerprint Fingerprint
	UserAgent   string
	UserID      *uint
}

// Locker serializes check issuance per tag and client when configured.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

const (
	CheckStatusActive  = "active"
	CheckStatusExpired = "expired"

	defaultPageSize = 20
	maxPageSize     = 100
)

type CheckListQuery struct {
	BusinessID *uint
	Status     string
	Page       int
	PageSize   int
}

func (q *CheckListQuery) normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
}

type CheckService interface {
	// IssueCheck returns the reusable check of this client or a new one.
	// reused reports which.
	IssueCheck(ctx context.Context, tag *model.ScanTag, req ScanRequest) (check *model.Check, reused bool, err error)
	ListChecks(ctx context.Context, ownerID uint, q CheckListQuery) ([]model.Check, int64, error)
}

type checkService struct {
	checkRepo    repository.CheckRepository
	businessRepo repository.BusinessRepository
	guard        AbuseGuard
	locker       Locker
	ttl          time.Duration
	lockTTL      time.Duration
	now          Clock
}

// CheckLifetime is how long a check stays reviewable after its scan.
const CheckLifetime = 24 * time.Hour

// CheckServiceConfig tunes the issuer. CheckTTL is only overridden by tests;
// production wiring leaves it zero so every check gets CheckLifetime.
type CheckServiceConfig struct {
	CheckTTL time.Duration
	LockTTL  time.Duration
}

// NewCheckService builds the check issuer. locker may be nil, in which case
// concurrent first scans of one client may each create a check.
func NewCheckService(
	checkRepo repository.CheckRepository,
	businessRepo repository.BusinessRepository,
	guard AbuseGuard,
	locker Locker,
	cfg CheckServiceConfig,
	now Clock,
) CheckService {
	if now == nil {
		now = utcNow
	}
	if cfg.CheckTTL <= 0 {
		cfg.CheckTTL = CheckLifetime
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Second
	}
	return &checkService{
		checkRepo:    checkRepo,
		businessRepo: businessRepo,
		guard:        guard,
		locker:       locker,
		ttl:          cfg.CheckTTL,
		lockTTL:      cfg.LockTTL,
		now:          now,
	}
}

func (s *checkService) IssueCheck(ctx context.Context, tag *model.ScanTag, req ScanRequest) (*model.Check, bool, error) {
	fp := req.Fingerprint.Normalize()

	if s.locker != nil && fp.HasSignal() {
		release, acquired, err := s.locker.Acquire(ctx, "scan:"+tag.ID+":"+fp.Key(), s.lockTTL)
		if err != nil {
			// Degrade to tolerated duplicates rather than refusing the scan.
			logger.Warn("Scan lock unavailable", map[string]interface{}{
				"tag_id": tag.ID,
				"error":  err.Error(),
			})
		} else if acquired {
			defer release()
		} else {
			logger.Debug("Scan lock held by a concurrent request", map[string]interface{}{
				"tag_id": tag.ID,
			})
		}
	}

	existing, err := s.guard.FindReusableCheck(ctx, tag.ID, fp)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		logger.Info("Reusing recent check", map[string]interface{}{
			"check_id": existing.ID,
			"tag_id":   tag.ID,
		})
		return existing, true, nil
	}

	now := s.now()
	check := &model.Check{
		TagID:      tag.ID,
		BusinessID: tag.BusinessID,
		UserID:     req.UserID,
		IP:         fp.IP,
		UserAgent:  req.UserAgent,
		ScannedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if fp.DeviceHash != "" {
		hash := fp.DeviceHash
		check.DeviceHash = &hash
	}

	if err := s.checkRepo.Create(ctx, check); err != nil {
		return nil, false, storageFailure("check.create", err, map[string]interface{}{
			"tag_id":      tag.ID,
			"business_id": tag.BusinessID,
		})
	}

	logger.Info("Check issued", map[string]interface{}{
		"check_id":    check.ID,
		"tag_id":      tag.ID,
		"business_id": check.BusinessID,
		"expires_at":  check.ExpiresAt,
	})
	return check, false, nil
}

func (s *checkService) ownerFilter(ctx context.Context, ownerID uint, q CheckListQuery) (*repository.Filter, error) {
	var businessIDs []uint
	if q.BusinessID != nil {
		business, err := s.businessRepo.FindByID(ctx, *q.BusinessID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		if err != nil {
			return nil, storageFailure("check.list.business", err, map[string]interface{}{"business_id": *q.BusinessID})
		}
		if !business.IsOwnedBy(ownerID) {
			return nil, ErrForbidden
		}
		businessIDs = []uint{business.ID}
	} else {
		owned, err := s.businessRepo.FindByOwner(ctx, ownerID)
		if err != nil {
			return nil, storageFailure("check.list.businesses", err, map[string]interface{}{"owner_id": ownerID})
		}
		for _, b := range owned {
			businessIDs = append(businessIDs, b.ID)
		}
	}
	if len(businessIDs) == 0 {
		return nil, nil
	}

	f := repository.NewFilter().In("business_id", businessIDs)
	switch q.Status {
	case "":
	case CheckStatusActive:
		f.Gte("expires_at", s.now())
	case CheckStatusExpired:
		f.Lt("expires_at", s.now())
	default:
		return nil, validationError("status must be %q or %q", CheckStatusActive, CheckStatusExpired)
	}
	return f.OrderBy("scanned_at DESC"), nil
}

func (s *checkService) ListChecks(ctx context.Context, ownerID uint, q CheckListQuery) ([]model.Check, int64, error) {
	q.normalize()

	f, err := s.ownerFilter(ctx, ownerID, q)
	if err != nil {
		return nil, 0, err
	}
	if f == nil {
		return []model.Check{}, 0, nil
	}

	checks, total, err := s.checkRepo.List(ctx, f.Limit(q.PageSize), (q.Page-1)*q.PageSize)
	if err != nil {
		return nil, 0, storageFailure("check.list", err, map[string]interface{}{"owner_id": ownerID})
	}
	return checks, total, nil
}
