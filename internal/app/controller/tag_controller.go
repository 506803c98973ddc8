package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/scanreview-backend/internal/app/service"
	apperrors "github.com/ikkim/scanreview-backend/internal/errors"
	"github.com/ikkim/scanreview-backend/internal/middleware"
)

type TagController struct {
	tagService service.TagService
}

func NewTagController(tagService service.TagService) *TagController {
	return &TagController{tagService: tagService}
}

// QRCode renders the printable QR image of an active tag.
// GET /api/v1/tags/:id/qr.png
func (ctrl *TagController) QRCode(c *gin.Context) {
	png, err := ctrl.tagService.TagQRCode(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

// ListOwnerTags lists the caller's tags with scan counters.
// GET /api/v1/owner/tags
func (ctrl *TagController) ListOwnerTags(c *gin.Context) {
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}

	tags, err := ctrl.tagService.ListTags(c.Request.Context(), ownerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "tags": tags})
}

// CreateTag registers a new tag for one of the caller's businesses.
// POST /api/v1/owner/tags
func (ctrl *TagController) CreateTag(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}

	var input service.CreateTagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "business_id is required")
		return
	}

	tag, err := ctrl.tagService.CreateTag(c.Request.Context(), ownerID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	log.Info("Tag created", map[string]interface{}{
		"tag_id":      tag.ID,
		"business_id": tag.BusinessID,
	})
	c.JSON(http.StatusCreated, gin.H{"success": true, "tag": tag})
}

// DeactivateTag retires a tag; later scans are refused.
// POST /api/v1/owner/tags/:id/deactivate
func (ctrl *TagController) DeactivateTag(c *gin.Context) {
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := ctrl.tagService.DeactivateTag(c.Request.Context(), c.Param("id"), &ownerID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type ReplaceTagRequest struct {
	Label string `json:"label" binding:"max=120"`
}

// ReplaceTag swaps a lost or damaged tag for a fresh one.
// POST /api/v1/owner/tags/:id/replace
func (ctrl *TagController) ReplaceTag(c *gin.Context) {
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}

	var req ReplaceTagRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
			return
		}
	}

	tag, err := ctrl.tagService.ReplaceTag(c.Request.Context(), ownerID, c.Param("id"), req.Label)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "tag": tag})
}

// DiagnoseTag explains why a tag does or does not scan. Only routed outside
// production.
// GET /api/v1/debug/tags/:id
func (ctrl *TagController) DiagnoseTag(c *gin.Context) {
	diag, err := ctrl.tagService.DiagnoseTag(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "diagnosis": diag})
}
