package repository

import (
	"context"
	"time"

	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/pkg/logger"
	"gorm.io/gorm"
)

type TagRepository interface {
	Create(ctx context.Context, tag *model.ScanTag) error
	// FindByID returns the tag with its business, whatever its status.
	FindByID(ctx context.Context, id string) (*model.ScanTag, error)
	ListByBusinesses(ctx context.Context, businessIDs []uint) ([]model.ScanTag, error)
	Deactivate(ctx context.Context, id string, at time.Time) error
	Replace(ctx context.Context, oldID string, replacement *model.ScanTag, at time.Time) error
	UpdateQRImageURL(ctx context.Context, id, url string) error
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(ctx context.Context, tag *model.ScanTag) error {
	if err := r.db.WithContext(ctx).Omit("Business").Create(tag).Error; err != nil {
		logger.Error("Failed to create scan tag in database", err, map[string]interface{}{
			"business_id": tag.BusinessID,
			"code":        tag.Code,
		})
		return err
	}
	return nil
}

func (r *tagRepository) FindByID(ctx context.Context, id string) (*model.ScanTag, error) {
	var tag model.ScanTag
	err := r.db.WithContext(ctx).
		Preload("Business").
		Where("id = ?", id).
		First(&tag).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) ListByBusinesses(ctx context.Context, businessIDs []uint) ([]model.ScanTag, error) {
	var tags []model.ScanTag
	if len(businessIDs) == 0 {
		return tags, nil
	}
	err := r.db.WithContext(ctx).
		Where("business_id IN ?", businessIDs).
		Order("created_at DESC").
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.ScanTag{}).
		Where("id = ? AND status = ?", id, model.TagStatusActive).
		Updates(map[string]interface{}{
			"status":         model.TagStatusInactive,
			"deactivated_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Replace creates replacement and retires oldID in one transaction.
func (r *tagRepository) Replace(ctx context.Context, oldID string, replacement *model.ScanTag, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Business").Create(replacement).Error; err != nil {
			return err
		}

		result := tx.Model(&model.ScanTag{}).
			Where("id = ? AND status = ?", oldID, model.TagStatusActive).
			Updates(map[string]interface{}{
				"status":         model.TagStatusReplaced,
				"replaced_by_id": replacement.ID,
				"deactivated_at": at,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *tagRepository) UpdateQRImageURL(ctx context.Context, id, url string) error {
	return r.db.WithContext(ctx).Model(&model.ScanTag{}).
		Where("id = ?", id).
		Update("qr_image_url", url).Error
}
