package controller

import (
	"net/http"
	"testing"
	"time"

	"github.com/ikkim/scanreview-backend/internal/app/model"
	apperrors "github.com/ikkim/scanreview-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanController_ValidateTag(t *testing.T) {
	env := setupControllerTest(t)
	business := env.createBusiness(t, "Crêperie du Port", nil)
	active := env.createTag(t, business.ID, model.TagStatusActive)
	inactive := env.createTag(t, business.ID, model.TagStatusInactive)

	t.Run("issues a check", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/scan/validate-tag", map[string]string{
			"scan_tag_id": active.ID,
			"device_hash": "abc123",
		}, 0)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		body := decode(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, true, body["can_create_review"])
		assert.NotEmpty(t, body["check_id"])

		summary := body["business"].(map[string]interface{})
		assert.Equal(t, "Crêperie du Port", summary["name"])
		assert.Equal(t, "Nantes", summary["city"])
		assert.Equal(t, "1 rue du Port", summary["address"])
		assert.Contains(t, summary, "average_rating")
		assert.Contains(t, summary, "review_count")
	})

	t.Run("same client reuses its check", func(t *testing.T) {
		first := decode(t, env.do(t, http.MethodPost, "/scan/validate-tag", map[string]string{"scan_tag_id": active.ID}, 0))
		second := decode(t, env.do(t, http.MethodPost, "/scan/validate-tag", map[string]string{"scan_tag_id": active.ID}, 0))
		assert.Equal(t, first["check_id"], second["check_id"])
		assert.Equal(t, true, second["reused"])
	})

	t.Run("missing tag id", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/scan/validate-tag", map[string]string{}, 0)
		assertFailure(t, w, http.StatusBadRequest, apperrors.ValidationInvalidInput)
	})

	t.Run("unknown tag", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/scan/validate-tag", map[string]string{"scan_tag_id": "not-a-tag"}, 0)
		assertFailure(t, w, http.StatusNotFound, apperrors.ScanTagInvalid)
	})

	t.Run("inactive tag", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/scan/validate-tag", map[string]string{"scan_tag_id": inactive.ID}, 0)
		assertFailure(t, w, http.StatusGone, apperrors.ScanTagInactive)
	})
}

func TestScanController_ValidateCheck(t *testing.T) {
	env := setupControllerTest(t)
	business := env.createBusiness(t, "Bistro", nil)
	tag := env.createTag(t, business.ID, model.TagStatusActive)

	scan := decode(t, env.do(t, http.MethodPost, "/scan/validate-tag", map[string]string{"scan_tag_id": tag.ID}, 0))
	checkID := scan["check_id"].(string)

	w := env.do(t, http.MethodPost, "/checks/validate", map[string]string{"check_id": checkID}, 0)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["can_create_review"])
	assert.NotContains(t, body, "reason")

	w = env.do(t, http.MethodPost, "/reviews", map[string]interface{}{
		"check_id": checkID,
		"rating":   4,
		"content":  "Lovely galettes",
	}, 0)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/checks/validate", map[string]string{"check_id": checkID}, 0)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, false, body["can_create_review"])
	assert.Equal(t, "already_reviewed", body["reason"])

	w = env.do(t, http.MethodPost, "/checks/validate", map[string]string{"check_id": "6f1c1f7e-8a43-4c1e-9a57-2a8d2f0b7a10"}, 0)
	assertFailure(t, w, http.StatusNotFound, apperrors.CheckNotFound)

	w = env.do(t, http.MethodPost, "/checks/validate", map[string]string{}, 0)
	assertFailure(t, w, http.StatusBadRequest, apperrors.ValidationInvalidInput)
}

func TestScanController_ExpiredCheck(t *testing.T) {
	env := setupControllerTest(t)
	business := env.createBusiness(t, "Bistro", nil)
	tag := env.createTag(t, business.ID, model.TagStatusActive)

	scan := decode(t, env.do(t, http.MethodPost, "/scan/validate-tag", map[string]string{"scan_tag_id": tag.ID}, 0))
	checkID := scan["check_id"].(string)

	env.now = env.now.Add(25 * time.Hour)

	w := env.do(t, http.MethodPost, "/checks/validate", map[string]string{"check_id": checkID}, 0)
	assertFailure(t, w, http.StatusGone, apperrors.CheckExpired)

	w = env.do(t, http.MethodPost, "/reviews", map[string]interface{}{
		"check_id": checkID,
		"rating":   3,
		"content":  "Too late to count",
	}, 0)
	assertFailure(t, w, http.StatusGone, apperrors.CheckExpired)
}
