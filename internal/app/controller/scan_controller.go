package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/scanreview-backend/internal/app/service"
	apperrors "github.com/ikkim/scanreview-backend/internal/errors"
	"github.com/ikkim/scanreview-backend/internal/middleware"
)

type ScanController struct {
	scanService service.ScanService
}

func NewScanController(scanService service.ScanService) *ScanController {
	return &ScanController{scanService: scanService}
}

type ValidateTagRequest struct {
	ScanTagID  string `json:"scan_tag_id" binding:"required"`
	DeviceHash string `json:"device_hash"`
	UserAgent  string `json:"user_agent"`
}

// ValidateTag resolves a scanned tag and issues (or reuses) a check.
// POST /api/v1/scan/validate-tag
func (ctrl *ScanController) ValidateTag(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ValidateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "scan_tag_id is required")
		return
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = c.Request.UserAgent()
	}

	result, err := ctrl.scanService.ValidateScan(c.Request.Context(), req.ScanTagID, service.ScanRequest{
		Fingerprint: service.Fingerprint{IP: c.ClientIP(), DeviceHash: req.DeviceHash},
		UserAgent:   userAgent,
		UserID:      middleware.CallerID(c),
	})
	if err != nil {
		log.Info("Scan rejected", map[string]interface{}{
			"tag_id": req.ScanTagID,
			"reason": err.Error(),
		})
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"check_id":          result.CheckID,
		"business":          result.Business,
		"can_create_review": result.CanCreateReview,
		"expires_at":        result.ExpiresAt,
		"reused":            result.Reused,
	})
}

type ValidateCheckRequest struct {
	CheckID string `json:"check_id" binding:"required"`
}

// ValidateCheck tells the client whether a check can still be reviewed.
// POST /api/v1/checks/validate
func (ctrl *ScanController) ValidateCheck(c *gin.Context) {
	var req ValidateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "check_id is required")
		return
	}

	result, err := ctrl.scanService.ValidateCheck(c.Request.Context(), req.CheckID, middleware.CallerID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := gin.H{
		"success":           true,
		"business":          result.Business,
		"can_create_review": result.CanCreateReview,
	}
	if result.Reason != "" {
		resp["reason"] = result.Reason
	}
	c.JSON(http.StatusOK, resp)
}
