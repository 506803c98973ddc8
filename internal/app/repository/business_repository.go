package repository

import (
	"context"
	"time"

	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/pkg/logger"
	"gorm.io/gorm"
)

// BusinessStats is the derived aggregate written by the stats recompute.
type BusinessStats struct {
	AverageRating float64
	ReviewCount   int
	// LastReviewAt is left untouched when nil.
	LastReviewAt *time.Time
}

type BusinessRepository interface {
	Create(ctx context.Context, business *model.Business) error
	FindByID(ctx context.Context, id uint) (*model.Business, error)
	FindBySlug(ctx context.Context, slug string) (*model.Business, error)
	FindByOwner(ctx context.Context, ownerID uint) ([]model.Business, error)
	ListIDs(ctx context.Context) ([]uint, error)
	UpdateStats(ctx context.Context, id uint, stats BusinessStats) error
}

type businessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) Create(ctx context.Context, business *model.Business) error {
	if err := r.db.WithContext(ctx).Create(business).Error; err != nil {
		logger.Error("Failed to create business in database", err, map[string]interface{}{
			"name": business.Name,
			"city": business.City,
		})
		return err
	}
	return nil
}

func (r *businessRepository) FindByID(ctx context.Context, id uint) (*model.Business, error) {
	var business model.Business
	if err := r.db.WithContext(ctx).First(&business, id).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *businessRepository) FindBySlug(ctx context.Context, slug string) (*model.Business, error) {
	var business model.Business
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *businessRepository) FindByOwner(ctx context.Context, ownerID uint) ([]model.Business, error) {
	var businesses []model.Business
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&businesses).Error
	if err != nil {
		return nil, err
	}
	return businesses, nil
}

func (r *businessRepository) ListIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&model.Business{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *businessRepository) UpdateStats(ctx context.Context, id uint, stats BusinessStats) error {
	updates := map[string]interface{}{
		"average_rating": stats.AverageRating,
		"review_count":   stats.ReviewCount,
	}
	if stats.LastReviewAt != nil {
		updates["last_review_at"] = *stats.LastReviewAt
	}

	result := r.db.WithContext(ctx).Model(&model.Business{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
