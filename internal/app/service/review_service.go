package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/internal/app/repository"
	apperrors "github.com/ikkim/scanreview-backend/internal/errors"
	"github.com/ikkim/scanreview-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	ReviewEventCreated = "review.created"
	ReviewEventUpdated = "review.updated"
	ReviewEventDeleted = "review.deleted"
)

// ReviewEvent is pushed to the owner of the reviewed business.
type ReviewEvent struct {
	Type          string    `json:"type"`
	ReviewID      uint      `json:"review_id"`
	BusinessID    uint      `json:"business_id"`
	Rating        int       `json:"rating,omitempty"`
	AverageRating float64   `json:"average_rating"`
	ReviewCount   int       `json:"review_count"`
	At            time.Time `json:"at"`
}

// ReviewNotifier delivers review events to a connected business owner.
type ReviewNotifier interface {
	NotifyOwner(ownerID uint, event ReviewEvent)
}

type SubmitReviewInput struct {
	CheckID      string `validate:"required"`
	BusinessID   *uint
	Rating       int    `validate:"min=1,max=5"`
	Content      string `validate:"min=10,max=1000"`
	CallerUserID *uint
}

type UpdateReviewInput struct {
	Rating  *int
	Content *string
}

type reviewFields struct {
	Rating  int    `validate:"min=1,max=5"`
	Content string `validate:"min=10,max=1000"`
}

type responseFields struct {
	Content string `validate:"min=1,max=1000"`
}

type ReviewService interface {
	SubmitReview(ctx context.Context, input SubmitReviewInput) (*model.Review, error)
	UpdateReview(ctx context.Context, reviewID, userID uint, input UpdateReviewInput) (*model.Review, error)
	DeleteReview(ctx context.Context, reviewID, userID uint) error
	ListBusinessReviews(ctx context.Context, businessID uint, page, pageSize int) ([]model.Review, int64, error)
	RespondToReview(ctx context.Context, reviewID, ownerID uint, content string) (*model.ReviewResponse, error)
}

type reviewService struct {
	reviewRepo      repository.ReviewRepository
	businessRepo    repository.BusinessRepository
	gate            ReviewGate
	stats           StatsService
	notifier        ReviewNotifier
	anonymousUserID uint
	validate        *validator.Validate
	now             Clock
}

// NewReviewService builds the review writer. anonymousUserID is the system
// identity that owns reviews of unauthenticated callers. notifier may be nil.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	businessRepo repository.BusinessRepository,
	gate ReviewGate,
	stats StatsService,
	notifier ReviewNotifier,
	anonymousUserID uint,
	now Clock,
) ReviewService {
	if now == nil {
		now = utcNow
	}
	return &reviewService{
		reviewRepo:      reviewRepo,
		businessRepo:    businessRepo,
		gate:            gate,
		stats:           stats,
		notifier:        notifier,
		anonymousUserID: anonymousUserID,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		now:             now,
	}
}

// describeValidation turns validator output into one readable message.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return validationError("%v", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch {
		case fe.Field() == "CheckID":
			msgs = append(msgs, "check_id is required")
		case fe.Field() == "Rating":
			msgs = append(msgs, "rating must be between 1 and 5")
		case fe.Tag() == "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case fe.Tag() == "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return validationError("%s", strings.Join(msgs, "; "))
}

func (s *reviewService) SubmitReview(ctx context.Context, input SubmitReviewInput) (*model.Review, error) {
	input.Content = strings.TrimSpace(input.Content)
	input.CheckID = strings.TrimSpace(input.CheckID)
	if err := s.validate.Struct(input); err != nil {
		return nil, describeValidation(err)
	}

	permit, err := s.gate.CanReview(ctx, input.CheckID, input.CallerUserID)
	if err != nil {
		return nil, err
	}
	if input.BusinessID != nil && *input.BusinessID != permit.BusinessID {
		return nil, validationError("business_id does not match the scanned business")
	}

	userID := s.anonymousUserID
	if input.CallerUserID != nil {
		userID = *input.CallerUserID
	}

	var claim *uint
	if permit.Check.UserID == nil {
		claim = &userID
	}

	review := &model.Review{
		BusinessID: permit.BusinessID,
		UserID:     userID,
		CheckID:    permit.Check.ID,
		Rating:     input.Rating,
		Content:    input.Content,
	}
	if err := s.reviewRepo.CreateForCheck(ctx, review, claim); err != nil {
		if apperrors.IsUniqueViolation(err) {
			logger.Info("Review insert lost the race for its check", map[string]interface{}{
				"check_id": permit.Check.ID,
			})
			return nil, ErrAlreadyReviewed
		}
		return nil, storageFailure("review.create", err, map[string]interface{}{
			"check_id":    permit.Check.ID,
			"business_id": permit.BusinessID,
		})
	}

	logger.Info("Review created", map[string]interface{}{
		"review_id":   review.ID,
		"check_id":    review.CheckID,
		"business_id": review.BusinessID,
		"anonymous":   input.CallerUserID == nil,
	})

	s.afterChange(ctx, ReviewEventCreated, review)
	return review, nil
}

// afterChange recomputes the business aggregate and tells its owner. The
// review write is already committed, so failures here are only logged; the
// scheduled reconcile repairs a missed recompute.
func (s *reviewService) afterChange(ctx context.Context, eventType string, review *model.Review) {
	if err := s.stats.RecomputeBusinessStats(ctx, review.BusinessID); err != nil {
		logger.Warn("Stats recompute failed after review change", map[string]interface{}{
			"business_id": review.BusinessID,
			"review_id":   review.ID,
			"error":       err.Error(),
		})
		return
	}

	if s.notifier == nil {
		return
	}
	business, err := s.businessRepo.FindByID(ctx, review.BusinessID)
	if err != nil || business.OwnerID == nil {
		return
	}
	s.notifier.NotifyOwner(*business.OwnerID, ReviewEvent{
		Type:          eventType,
		ReviewID:      review.ID,
		BusinessID:    review.BusinessID,
		Rating:        review.Rating,
		AverageRating: business.AverageRating,
		ReviewCount:   business.ReviewCount,
		At:            s.now(),
	})
}

func (s *reviewService) ownReview(ctx context.Context, reviewID, userID uint) (*model.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, storageFailure("review.find", err, map[string]interface{}{"review_id": reviewID})
	}
	if review.UserID != userID {
		return nil, ErrForbidden
	}
	return review, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, reviewID, userID uint, input UpdateReviewInput) (*model.Review, error) {
	review, err := s.ownReview(ctx, reviewID, userID)
	if err != nil {
		return nil, err
	}

	fields := reviewFields{Rating: review.Rating, Content: review.Content}
	if input.Rating != nil {
		fields.Rating = *input.Rating
	}
	if input.Content != nil {
		fields.Content = strings.TrimSpace(*input.Content)
	}
	if err := s.validate.Struct(fields); err != nil {
		return nil, describeValidation(err)
	}

	review.Rating = fields.Rating
	review.Content = fields.Content
	if err := s.reviewRepo.UpdateContent(ctx, review); err != nil {
		return nil, storageFailure("review.update", err, map[string]interface{}{"review_id": reviewID})
	}

	s.afterChange(ctx, ReviewEventUpdated, review)
	return review, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, reviewID, userID uint) error {
	review, err := s.ownReview(ctx, reviewID, userID)
	if err != nil {
		return err
	}

	if err := s.reviewRepo.Delete(ctx, review.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return storageFailure("review.delete", err, map[string]interface{}{"review_id": reviewID})
	}

	logger.Info("Review deleted", map[string]interface{}{
		"review_id":   review.ID,
		"business_id": review.BusinessID,
	})

	s.afterChange(ctx, ReviewEventDeleted, review)
	return nil
}

func (s *reviewService) ListBusinessReviews(ctx context.Context, businessID uint, page, pageSize int) ([]model.Review, int64, error) {
	if _, err := s.businessRepo.FindByID(ctx, businessID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrBusinessNotFound
		}
		return nil, 0, storageFailure("review.list.business", err, map[string]interface{}{"business_id": businessID})
	}

	q := CheckListQuery{Page: page, PageSize: pageSize}
	q.normalize()

	reviews, total, err := s.reviewRepo.ListByBusiness(ctx, businessID, (q.Page-1)*q.PageSize, q.PageSize)
	if err != nil {
		return nil, 0, storageFailure("review.list", err, map[string]interface{}{"business_id": businessID})
	}
	return reviews, total, nil
}

func (s *reviewService) RespondToReview(ctx context.Context, reviewID, ownerID uint, content string) (*model.ReviewResponse, error) {
	fields := responseFields{Content: strings.TrimSpace(content)}
	if err := s.validate.Struct(fields); err != nil {
		return nil, describeValidation(err)
	}

	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, storageFailure("review.find", err, map[string]interface{}{"review_id": reviewID})
	}

	business, err := s.businessRepo.FindByID(ctx, review.BusinessID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBusinessNotFound
	}
	if err != nil {
		return nil, storageFailure("review.respond.business", err, map[string]interface{}{"business_id": review.BusinessID})
	}
	if !business.IsOwnedBy(ownerID) {
		return nil, ErrForbidden
	}

	response := &model.ReviewResponse{
		ReviewID:   review.ID,
		BusinessID: business.ID,
		UserID:     ownerID,
		Content:    fields.Content,
	}
	if err := s.reviewRepo.UpsertResponse(ctx, response); err != nil {
		return nil, storageFailure("review.respond", err, map[string]interface{}{"review_id": reviewID})
	}
	return response, nil
}
