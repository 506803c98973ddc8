package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/scanreview-backend/internal/app/service"
	apperrors "github.com/ikkim/scanreview-backend/internal/errors"
	"github.com/ikkim/scanreview-backend/internal/middleware"
)

type ReviewController struct {
	reviewService service.ReviewService
}

func NewReviewController(reviewService service.ReviewService) *ReviewController {
	return &ReviewController{reviewService: reviewService}
}

type CreateReviewRequest struct {
	CheckID    string `json:"check_id"`
	Rating     int    `json:"rating"`
	Content    string `json:"content"`
	BusinessID *uint  `json:"business_id"`
	UserID     *uint  `json:"user_id"`
}

// CreateReview writes the review for a check.
// POST /api/v1/reviews
//
// Anonymous callers are allowed. A user_id in the body is only accepted when
// it matches the authenticated caller.
func (ctrl *ReviewController) CreateReview(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	caller := middleware.CallerID(c)
	if req.UserID != nil && (caller == nil || *caller != *req.UserID) {
		respondServiceError(c, service.ErrNotOwner)
		return
	}

	review, err := ctrl.reviewService.SubmitReview(c.Request.Context(), service.SubmitReviewInput{
		CheckID:      req.CheckID,
		BusinessID:   req.BusinessID,
		Rating:       req.Rating,
		Content:      req.Content,
		CallerUserID: caller,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"review_id": review.ID,
	})
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Content *string `json:"content"`
}

// UpdateReview edits the caller's own review.
// PUT /api/v1/reviews/:id
func (ctrl *ReviewController) UpdateReview(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	reviewID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	review, err := ctrl.reviewService.UpdateReview(c.Request.Context(), reviewID, userID, service.UpdateReviewInput{
		Rating:  req.Rating,
		Content: req.Content,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "review": review})
}

// DeleteReview soft-deletes the caller's own review.
// DELETE /api/v1/reviews/:id
func (ctrl *ReviewController) DeleteReview(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	reviewID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.reviewService.DeleteReview(c.Request.Context(), reviewID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListBusinessReviews pages through a business's reviews, newest first.
// GET /api/v1/businesses/:id/reviews?page=1&page_size=20
func (ctrl *ReviewController) ListBusinessReviews(c *gin.Context) {
	businessID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	reviews, total, err := ctrl.reviewService.ListBusinessReviews(c.Request.Context(), businessID, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    reviews,
		"total":   total,
		"page":    page,
	})
}

type RespondToReviewRequest struct {
	Content string `json:"content"`
}

// RespondToReview lets the business owner answer a review.
// POST /api/v1/reviews/:id/response
func (ctrl *ReviewController) RespondToReview(c *gin.Context) {
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}
	reviewID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req RespondToReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	response, err := ctrl.reviewService.RespondToReview(c.Request.Context(), reviewID, ownerID, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "response": response})
}
