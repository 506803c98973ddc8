package repository

import (
	"context"
	"errors"

	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository interface {
	// ExistsForCheck includes soft-deleted reviews: a check is consumed once.
	ExistsForCheck(ctx context.Context, checkID string) (bool, error)
	// CreateForCheck inserts review and, when claimUserID is set, claims the
	// still-unowned check for that user, atomically.
	CreateForCheck(ctx context.Context, review *model.Review, claimUserID *uint) error
	FindByID(ctx context.Context, id uint) (*model.Review, error)
	UpdateContent(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id uint) error
	Ratings(ctx context.Context, businessID uint) ([]int, error)
	ListByBusiness(ctx context.Context, businessID uint, offset, limit int) ([]model.Review, int64, error)
	UpsertResponse(ctx context.Context, response *model.ReviewResponse) error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) ExistsForCheck(ctx context.Context, checkID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().
		Model(&model.Review{}).
		Where("check_id = ?", checkID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *reviewRepository) CreateForCheck(ctx context.Context, review *model.Review, claimUserID *uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(review).Error; err != nil {
			return err
		}

		if claimUserID == nil {
			return nil
		}

		// A check that already has an owner is left alone.
		result := tx.Model(&model.Check{}).
			Where("id = ? AND user_id IS NULL", review.CheckID).
			Update("user_id", *claimUserID)
		if result.Error != nil {
			return result.Error
		}

		logger.Debug("Check claim on review", map[string]interface{}{
			"check_id": review.CheckID,
			"user_id":  *claimUserID,
			"claimed":  result.RowsAffected > 0,
		})
		return nil
	})
}

func (r *reviewRepository) FindByID(ctx context.Context, id uint) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).
		Preload("Response").
		First(&review, id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) UpdateContent(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Model(review).
		Select("rating", "content").
		Updates(map[string]interface{}{
			"rating":  review.Rating,
			"content": review.Content,
		}).Error
}

func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.Review{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Ratings returns every live rating of a business.
func (r *reviewRepository) Ratings(ctx context.Context, businessID uint) ([]int, error) {
	var ratings []int
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("business_id = ?", businessID).
		Pluck("rating", &ratings).Error
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

func (r *reviewRepository) ListByBusiness(ctx context.Context, businessID uint, offset, limit int) ([]model.Review, int64, error) {
	var reviews []model.Review
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Review{}).Where("business_id = ?", businessID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Response").
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

// UpsertResponse keeps a single owner response per review.
func (r *reviewRepository) UpsertResponse(ctx context.Context, response *model.ReviewResponse) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.ReviewResponse
		err := tx.Where("review_id = ?", response.ReviewID).First(&existing).Error
		switch {
		case err == nil:
			existing.Content = response.Content
			existing.UserID = response.UserID
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			*response = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(response).Error
		default:
			return err
		}
	})
}
