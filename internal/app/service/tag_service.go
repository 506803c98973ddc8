package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/internal/app/repository"
	"github.com/ikkim/scanreview-backend/pkg/logger"
	"github.com/ikkim/scanreview-backend/pkg/util"
	"gorm.io/gorm"
)

// Diagnosis verdicts
const (
	TagVerdictOK       = "ok"
	TagVerdictNotFound = "not_found"
	TagVerdictInactive = "inactive"
	TagVerdictReplaced = "replaced"
)

type TagDiagnosis struct {
	TagID         string          `json:"tag_id"`
	Verdict       string          `json:"verdict"`
	Status        model.TagStatus `json:"status,omitempty"`
	BusinessID    uint            `json:"business_id,omitempty"`
	ReplacedByID  *string         `json:"replaced_by_id,omitempty"`
	DeactivatedAt *time.Time      `json:"deactivated_at,omitempty"`
}

type CreateTagInput struct {
	BusinessID uint          `json:"business_id" binding:"required"`
	Type       model.TagType `json:"type"`
	Label      string        `json:"label" binding:"max=120"`
}

type TagWithStats struct {
	model.ScanTag
	TotalScans   int64      `json:"total_scans"`
	ScansLast24h int64      `json:"scans_last_24h"`
	LastScanAt   *time.Time `json:"last_scan_at,omitempty"`
}

// QRUploader stores a rendered tag QR image and returns its public URL.
type QRUploader interface {
	UploadTagQR(ctx context.Context, tagID string, png []byte) (string, error)
}

type TagService interface {
	// ResolveTag returns the active tag with its business.
	ResolveTag(ctx context.Context, tagID string) (*model.ScanTag, error)
	DiagnoseTag(ctx context.Context, tagID string) (*TagDiagnosis, error)
	CreateTag(ctx context.Context, ownerID uint, input CreateTagInput) (*model.ScanTag, error)
	ListTags(ctx context.Context, ownerID uint) ([]TagWithStats, error)
	// DeactivateTag retires a tag. A nil ownerID skips the ownership check.
	DeactivateTag(ctx context.Context, tagID string, ownerID *uint) error
	ReplaceTag(ctx context.Context, ownerID uint, tagID string, label string) (*model.ScanTag, error)
	TagQRCode(ctx context.Context, tagID string) ([]byte, error)
}

type tagService struct {
	tagRepo       repository.TagRepository
	businessRepo  repository.BusinessRepository
	checkRepo     repository.CheckRepository
	uploader      QRUploader
	publicBaseURL string
	now           Clock
}

// NewTagService builds the tag registry. uploader may be nil.
func NewTagService(
	tagRepo repository.TagRepository,
	businessRepo repository.BusinessRepository,
	checkRepo repository.CheckRepository,
	uploader QRUploader,
	publicBaseURL string,
	now Clock,
) TagService {
	if now == nil {
		now = utcNow
	}
	return &tagService{
		tagRepo:       tagRepo,
		businessRepo:  businessRepo,
		checkRepo:     checkRepo,
		uploader:      uploader,
		publicBaseURL: publicBaseURL,
		now:           now,
	}
}

func (s *tagService) lookup(ctx context.Context, tagID string) (*model.ScanTag, error) {
	if _, err := uuid.Parse(tagID); err != nil {
		return nil, ErrTagInvalid
	}

	tag, err := s.tagRepo.FindByID(ctx, tagID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagInvalid
		}
		return nil, storageFailure("tag.lookup", err, map[string]interface{}{"tag_id": tagID})
	}
	return tag, nil
}

func (s *tagService) ResolveTag(ctx context.Context, tagID string) (*model.ScanTag, error) {
	tag, err := s.lookup(ctx, tagID)
	if err != nil {
		return nil, err
	}

	if !tag.IsActive() {
		logger.Info("Rejected scan of non-active tag", map[string]interface{}{
			"tag_id": tag.ID,
			"status": tag.Status,
		})
		return nil, ErrTagInactive
	}
	if tag.Business == nil {
		return nil, ErrTagInvalid
	}
	return tag, nil
}

func (s *tagService) DiagnoseTag(ctx context.Context, tagID string) (*TagDiagnosis, error) {
	tag, err := s.lookup(ctx, tagID)
	if errors.Is(err, ErrTagInvalid) {
		return &TagDiagnosis{TagID: tagID, Verdict: TagVerdictNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	diag := &TagDiagnosis{
		TagID:         tag.ID,
		Status:        tag.Status,
		BusinessID:    tag.BusinessID,
		ReplacedByID:  tag.ReplacedByID,
		DeactivatedAt: tag.DeactivatedAt,
	}
	switch {
	case tag.Business == nil:
		diag.Verdict = TagVerdictNotFound
	case tag.Status == model.TagStatusReplaced:
		diag.Verdict = TagVerdictReplaced
	case !tag.IsActive():
		diag.Verdict = TagVerdictInactive
	default:
		diag.Verdict = TagVerdictOK
	}
	return diag, nil
}

func (s *tagService) ownedBusiness(ctx context.Context, ownerID, businessID uint) (*model.Business, error) {
	business, err := s.businessRepo.FindByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, storageFailure("tag.owned_business", err, map[string]interface{}{"business_id": businessID})
	}
	if !business.IsOwnedBy(ownerID) {
		return nil, ErrForbidden
	}
	return business, nil
}

func (s *tagService) CreateTag(ctx context.Context, ownerID uint, input CreateTagInput) (*model.ScanTag, error) {
	if input.Type == "" {
		input.Type = model.TagTypeQR
	}
	if !input.Type.Valid() {
		return nil, validationError("tag type must be QR or NFC")
	}

	if _, err := s.ownedBusiness(ctx, ownerID, input.BusinessID); err != nil {
		return nil, err
	}

	tag := &model.ScanTag{
		BusinessID: input.BusinessID,
		Code:       model.NewTagCode(),
		Type:       input.Type,
		Status:     model.TagStatusActive,
		Label:      strings.TrimSpace(input.Label),
	}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, storageFailure("tag.create", err, map[string]interface{}{"business_id": input.BusinessID})
	}

	logger.Info("Scan tag created", map[string]interface{}{
		"tag_id":      tag.ID,
		"business_id": tag.BusinessID,
		"type":        tag.Type,
	})

	s.publishQR(ctx, tag)
	return tag, nil
}

// publishQR uploads the tag's QR image when object storage is configured.
// Failures leave the tag usable; the PNG endpoint still renders on demand.
func (s *tagService) publishQR(ctx context.Context, tag *model.ScanTag) {
	if s.uploader == nil || tag.Type != model.TagTypeQR {
		return
	}

	png, err := util.RenderTagQR(s.publicBaseURL, tag.ID)
	if err != nil {
		logger.Warn("Failed to render tag QR", map[string]interface{}{"tag_id": tag.ID, "error": err.Error()})
		return
	}
	url, err := s.uploader.UploadTagQR(ctx, tag.ID, png)
	if err != nil {
		logger.Warn("Failed to upload tag QR", map[string]interface{}{"tag_id": tag.ID, "error": err.Error()})
		return
	}
	if err := s.tagRepo.UpdateQRImageURL(ctx, tag.ID, url); err != nil {
		logger.Warn("Failed to store tag QR URL", map[string]interface{}{"tag_id": tag.ID, "error": err.Error()})
		return
	}
	tag.QRImageURL = url
}

func (s *tagService) ListTags(ctx context.Context, ownerID uint) ([]TagWithStats, error) {
	businesses, err := s.businessRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, storageFailure("tag.list.businesses", err, map[string]interface{}{"owner_id": ownerID})
	}

	businessIDs := make([]uint, len(businesses))
	for i, b := range businesses {
		businessIDs[i] = b.ID
	}

	tags, err := s.tagRepo.ListByBusinesses(ctx, businessIDs)
	if err != nil {
		return nil, storageFailure("tag.list", err, map[string]interface{}{"owner_id": ownerID})
	}

	tagIDs := make([]string, len(tags))
	for i, t := range tags {
		tagIDs[i] = t.ID
	}
	stats, err := s.checkRepo.ScanStats(ctx, tagIDs, s.now().Add(-24*time.Hour))
	if err != nil {
		return nil, storageFailure("tag.list.stats", err, map[string]interface{}{"owner_id": ownerID})
	}

	result := make([]TagWithStats, len(tags))
	for i, t := range tags {
		st := stats[t.ID]
		result[i] = TagWithStats{
			ScanTag:      t,
			TotalScans:   st.Total,
			ScansLast24h: st.Recent,
			LastScanAt:   st.LastScanAt,
		}
	}
	return result, nil
}

func (s *tagService) DeactivateTag(ctx context.Context, tagID string, ownerID *uint) error {
	tag, err := s.lookup(ctx, tagID)
	if err != nil {
		return err
	}
	if ownerID != nil {
		if _, err := s.ownedBusiness(ctx, *ownerID, tag.BusinessID); err != nil {
			return err
		}
	}
	if !tag.IsActive() {
		return ErrTagInactive
	}

	if err := s.tagRepo.Deactivate(ctx, tag.ID, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTagInactive
		}
		return storageFailure("tag.deactivate", err, map[string]interface{}{"tag_id": tag.ID})
	}

	logger.Info("Scan tag deactivated", map[string]interface{}{
		"tag_id":      tag.ID,
		"business_id": tag.BusinessID,
	})
	return nil
}

func (s *tagService) ReplaceTag(ctx context.Context, ownerID uint, tagID string, label string) (*model.ScanTag, error) {
	old, err := s.lookup(ctx, tagID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedBusiness(ctx, ownerID, old.BusinessID); err != nil {
		return nil, err
	}
	if !old.IsActive() {
		return nil, ErrTagInactive
	}

	if label = strings.TrimSpace(label); label == "" {
		label = old.Label
	}
	replacement := &model.ScanTag{
		BusinessID: old.BusinessID,
		Code:       model.NewTagCode(),
		Type:       old.Type,
		Status:     model.TagStatusActive,
		Label:      label,
	}
	if err := s.tagRepo.Replace(ctx, old.ID, replacement, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagInactive
		}
		return nil, storageFailure("tag.replace", err, map[string]interface{}{"tag_id": old.ID})
	}

	logger.Info("Scan tag replaced", map[string]interface{}{
		"old_tag_id": old.ID,
		"new_tag_id": replacement.ID,
	})

	s.publishQR(ctx, replacement)
	return replacement, nil
}

func (s *tagService) TagQRCode(ctx context.Context, tagID string) ([]byte, error) {
	tag, err := s.ResolveTag(ctx, tagID)
	if err != nil {
		return nil, err
	}
	png, err := util.RenderTagQR(s.publicBaseURL, tag.ID)
	if err != nil {
		return nil, storageFailure("tag.qr", err, map[string]interface{}{"tag_id": tag.ID})
	}
	return png, nil
}
