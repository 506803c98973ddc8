package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"

	"github.com/ikkim/scanreview-backend/internal/app/model"
	apperrors "github.com/ikkim/scanreview-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestTagController_OwnerLifecycle(t *testing.T) {
	env := setupControllerTest(t)
	owner := env.createUser(t, "owner@example.com")
	stranger := env.createUser(t, "stranger@example.com")
	business := env.createBusiness(t, "Bistro", &owner.ID)

	assertFailure(t, env.do(t, http.MethodPost, "/owner/tags", map[string]interface{}{"business_id": business.ID}, 0), http.StatusUnauthorized, apperrors.AuthUnauthorized)
	assertFailure(t, env.do(t, http.MethodPost, "/owner/tags", map[string]interface{}{"business_id": business.ID}, stranger.ID), http.StatusForbidden, apperrors.AuthzOwnerOnly)
	assertFailure(t, env.do(t, http.MethodPost, "/owner/tags", map[string]interface{}{}, owner.ID), http.StatusBadRequest, apperrors.ValidationInvalidInput)

	w := env.do(t, http.MethodPost, "/owner/tags", map[string]interface{}{"business_id": business.ID, "label": "Counter"}, owner.ID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tag := decode(t, w)["tag"].(map[string]interface{})
	tagID := tag["id"].(string)
	assert.Equal(t, "Counter", tag["label"])
	assert.Equal(t, "active", tag["status"])

	w = env.do(t, http.MethodGet, "/tags/"+tagID+"/qr.png", nil, 0)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = env.do(t, http.MethodGet, "/owner/tags", nil, owner.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["tags"], 1)

	w = env.do(t, http.MethodPost, "/owner/tags/"+tagID+"/replace", map[string]string{"label": "Counter v2"}, owner.ID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	replacementID := decode(t, w)["tag"].(map[string]interface{})["id"].(string)

	w = env.do(t, http.MethodGet, "/debug/tags/"+tagID, nil, 0)
	require.Equal(t, http.StatusOK, w.Code)
	diag := decode(t, w)["diagnosis"].(map[string]interface{})
	assert.Equal(t, "replaced", diag["verdict"])
	assert.Equal(t, replacementID, diag["replaced_by_id"])

	assertFailure(t, env.do(t, http.MethodGet, "/tags/"+tagID+"/qr.png", nil, 0), http.StatusGone, apperrors.ScanTagInactive)

	assertFailure(t, env.do(t, http.MethodPost, "/owner/tags/"+replacementID+"/deactivate", nil, stranger.ID), http.StatusForbidden, apperrors.AuthzOwnerOnly)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/owner/tags/"+replacementID+"/deactivate", nil, owner.ID).Code)
	assertFailure(t, env.do(t, http.MethodPost, "/scan/validate-tag", map[string]string{"scan_tag_id": replacementID}, 0), http.StatusGone, apperrors.ScanTagInactive)
}

func TestOwnerController_ChecksAndExport(t *testing.T) {
	env := setupControllerTest(t)
	owner := env.createUser(t, "owner@example.com")
	business := env.createBusiness(t, "Bistro", &owner.ID)
	other := env.createBusiness(t, "Elsewhere", nil)
	tag := env.createTag(t, business.ID, model.TagStatusActive)
	otherTag := env.createTag(t, other.ID, model.TagStatusActive)

	scanCheck(t, env, tag.ID, 0)
	scanCheck(t, env, tag.ID, 0)
	scanCheck(t, env, otherTag.ID, 0)

	w := env.do(t, http.MethodGet, "/owner/checks?status=active", nil, owner.ID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, float64(2), body["total"])

	w = env.do(t, http.MethodGet, "/owner/checks?status=expired", nil, owner.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["total"])

	assertFailure(t, env.do(t, http.MethodGet, "/owner/checks?business_id=abc", nil, owner.ID), http.StatusBadRequest, apperrors.ValidationInvalidID)
	assertFailure(t, env.do(t, http.MethodGet, fmt.Sprintf("/owner/checks?business_id=%d", other.ID), nil, owner.ID), http.StatusForbidden, apperrors.AuthzOwnerOnly)

	w = env.do(t, http.MethodGet, "/owner/checks/export", nil, owner.ID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Checks")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestCategoryController_ListCategories(t *testing.T) {
	env := setupControllerTest(t)
	require.NoError(t, env.db.Create(&model.Category{Name: "Bakery", Slug: "bakery"}).Error)

	w := env.do(t, http.MethodGet, "/categories", nil, 0)
	require.Equal(t, http.StatusOK, w.Code)
	categories := decode(t, w)["categories"].([]interface{})
	require.Len(t, categories, 1)
	assert.Equal(t, "bakery", categories[0].(map[string]interface{})["slug"])
}
