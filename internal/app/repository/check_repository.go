package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/pkg/logger"
	"gorm.io/gorm"
)

// TagScanStats summarizes the checks issued for one tag.
type TagScanStats struct {
	Total      int64
	Recent     int64
	LastScanAt *time.Time
}

type CheckRepository interface {
	Create(ctx context.Context, check *model.Check) error
	FindByID(ctx context.Context, id string) (*model.Check, error)
	// FindOne returns the first check matching f, or gorm.ErrRecordNotFound.
	FindOne(ctx context.Context, f *Filter) (*model.Check, error)
	List(ctx context.Context, f *Filter, offset int) ([]model.Check, int64, error)
	ScanStats(ctx context.Context, tagIDs []string, since time.Time) (map[string]TagScanStats, error)
}

type checkRepository struct {
	db *gorm.DB
}

func NewCheckRepository(db *gorm.DB) CheckRepository {
	return &checkRepository{db: db}
}

func (r *checkRepository) Create(ctx context.Context, check *model.Check) error {
	if err := r.db.WithContext(ctx).Omit("Tag", "Business").Create(check).Error; err != nil {
		logger.Error("Failed to create check in database", err, map[string]interface{}{
			"tag_id":      check.TagID,
			"business_id": check.BusinessID,
		})
		return err
	}
	return nil
}

func (r *checkRepository) FindByID(ctx context.Context, id string) (*model.Check, error) {
	var check model.Check
	err := r.db.WithContext(ctx).
		Preload("Business").
		Where("id = ?", id).
		First(&check).Error
	if err != nil {
		return nil, err
	}
	return &check, nil
}

func (r *checkRepository) FindOne(ctx context.Context, f *Filter) (*model.Check, error) {
	var check model.Check
	if err := f.Apply(r.db.WithContext(ctx).Model(&model.Check{})).Take(&check).Error; err != nil {
		return nil, err
	}
	return &check, nil
}

func (r *checkRepository) List(ctx context.Context, f *Filter, offset int) ([]model.Check, int64, error) {
	var total int64
	if err := f.Where(r.db.WithContext(ctx).Model(&model.Check{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var checks []model.Check
	query := f.Apply(r.db.WithContext(ctx).Model(&model.Check{}))
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&checks).Error; err != nil {
		return nil, 0, err
	}
	return checks, total, nil
}

type tagCount struct {
	TagID string
	Total int64
}

func (r *checkRepository) countByTag(ctx context.Context, tagIDs []string, since *time.Time) (map[string]int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Check{}).
		Select("tag_id, COUNT(*) AS total").
		Where("tag_id IN ?", tagIDs)
	if since != nil {
		query = query.Where("scanned_at >= ?", *since)
	}

	var rows []tagCount
	if err := query.Group("tag_id").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.TagID] = row.Total
	}
	return counts, nil
}

func (r *checkRepository) ScanStats(ctx context.Context, tagIDs []string, since time.Time) (map[string]TagScanStats, error) {
	stats := make(map[string]TagScanStats, len(tagIDs))
	if len(tagIDs) == 0 {
		return stats, nil
	}

	totals, err := r.countByTag(ctx, tagIDs, nil)
	if err != nil {
		return nil, err
	}
	recent, err := r.countByTag(ctx, tagIDs, &since)
	if err != nil {
		return nil, err
	}

	for _, id := range tagIDs {
		s := TagScanStats{Total: totals[id], Recent: recent[id]}
		if s.Total > 0 {
			last, err := r.FindOne(ctx, NewFilter().Eq("tag_id", id).OrderBy("scanned_at DESC").Limit(1))
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			if last != nil {
				scannedAt := last.ScannedAt
				s.LastScanAt = &scannedAt
			}
		}
		stats[id] = s
	}
	return stats, nil
}
