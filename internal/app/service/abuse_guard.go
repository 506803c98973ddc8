package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/internal/app/repository"
	"github.com/ikkim/scanreview-backend/pkg/logger"
	"gorm.io/gorm"
)

// unknownIP is what proxies and some clients report when no address exists.
const unknownIP = "unknown"

// Fingerprint identifies the physical client behind a scan.
type Fingerprint struct {
	IP         string
	DeviceHash string
}

// Normalize trims both signals and drops placeholder values.
func (f Fingerprint) Normalize() Fingerprint {
	ip := strings.TrimSpace(f.IP)
	if strings.EqualFold(ip, unknownIP) {
		ip = ""
	}
	return Fingerprint{IP: ip, DeviceHash: strings.TrimSpace(f.DeviceHash)}
}

// HasSignal reports whether at least one signal is present.
func (f Fingerprint) HasSignal() bool {
	n := f.Normalize()
	return n.IP != "" || n.DeviceHash != ""
}

// Key is a stable identifier for lock names.
func (f Fingerprint) Key() string {
	n := f.Normalize()
	return n.IP + "|" + n.DeviceHash
}

// FingerprintFilter selects the latest check for tagID scanned since the
// given instant by the same client. Every present signal must match.
func FingerprintFilter(tagID string, fp Fingerprint, since time.Time) *repository.Filter {
	n := fp.Normalize()
	f := repository.NewFilter().
		Eq("tag_id", tagID).
		Gte("scanned_at", since)
	if n.IP != "" {
		f.Eq("ip", n.IP)
	}
	if n.DeviceHash != "" {
		f.Eq("device_hash", n.DeviceHash)
	}
	return f.OrderBy("scanned_at DESC").Limit(1)
}

type AbuseGuard interface {
	// FindReusableCheck returns a recent check of the same client that can
	// still be reviewed, nil when a fresh check should be issued, or
	// ErrAlreadyReviewed when the client must wait.
	FindReusableCheck(ctx context.Context, tagID string, fp Fingerprint) (*model.Check, error)
}

type abuseGuard struct {
	checkRepo  repository.CheckRepository
	reviewRepo repository.ReviewRepository
	window     time.Duration
	now        Clock
}

func NewAbuseGuard(checkRepo repository.CheckRepository, reviewRepo repository.ReviewRepository, window time.Duration, now Clock) AbuseGuard {
	if now == nil {
		now = utcNow
	}
	return &abuseGuard{
		checkRepo:  checkRepo,
		reviewRepo: reviewRepo,
		window:     window,
		now:        now,
	}
}

func (g *abuseGuard) FindReusableCheck(ctx context.Context, tagID string, fp Fingerprint) (*model.Check, error) {
	if !fp.HasSignal() {
		return nil, nil
	}

	now := g.now()
	check, err := g.checkRepo.FindOne(ctx, FingerprintFilter(tagID, fp, now.Add(-g.window)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageFailure("guard.find_recent_check", err, map[string]interface{}{"tag_id": tagID})
	}

	reviewed, err := g.reviewRepo.ExistsForCheck(ctx, check.ID)
	if err != nil {
		return nil, storageFailure("guard.review_exists", err, map[string]interface{}{"check_id": check.ID})
	}
	if reviewed {
		logger.Info("Scan refused, recent check already reviewed", map[string]interface{}{
			"tag_id":   tagID,
			"check_id": check.ID,
		})
		return nil, ErrAlreadyReviewed
	}

	if check.IsExpired(now) {
		return nil, nil
	}
	return check, nil
}
