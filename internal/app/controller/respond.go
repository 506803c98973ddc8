package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/scanreview-backend/internal/app/service"
	apperrors "github.com/ikkim/scanreview-backend/internal/errors"
	"github.com/ikkim/scanreview-backend/internal/middleware"
)

// respondServiceError maps a service error to its tagged HTTP failure.
// Storage faults and unknown errors get the generic technical message; their
// details were logged where they happened.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTagInvalid):
		apperrors.NotFound(c, apperrors.ScanTagInvalid, err.Error())
	case errors.Is(err, service.ErrTagInactive):
		apperrors.RespondWithError(c, http.StatusGone, apperrors.ScanTagInactive, err.Error())
	case errors.Is(err, service.ErrCheckNotFound):
		apperrors.NotFound(c, apperrors.CheckNotFound, err.Error())
	case errors.Is(err, service.ErrCheckExpired):
		apperrors.RespondWithError(c, http.StatusGone, apperrors.CheckExpired, err.Error())
	case errors.Is(err, service.ErrAlreadyReviewed):
		apperrors.Conflict(c, apperrors.ReviewAlreadyExists, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.CheckNotOwner, err.Error())
	case errors.Is(err, service.ErrValidation):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
	case errors.Is(err, service.ErrReviewNotFound):
		apperrors.NotFound(c, apperrors.ReviewNotFound, err.Error())
	case errors.Is(err, service.ErrBusinessNotFound):
		apperrors.NotFound(c, apperrors.BusinessNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzOwnerOnly, err.Error())
	default:
		var storageErr *service.StorageError
		if !errors.As(err, &storageErr) {
			middleware.GetLoggerFromContext(c).Error("Unhandled service error", err, map[string]interface{}{
				"path": c.Request.URL.Path,
			})
		}
		apperrors.InternalError(c)
	}
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return 0, false
	}
	return userID, true
}
