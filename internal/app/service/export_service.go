package service

import (
	"context"

	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const (
	exportSheet   = "Checks"
	maxExportRows = 10000
)

var exportHeader = []interface{}{"Check ID", "Tag ID", "Business ID", "Scanned At", "Expires At", "Status", "Claimed"}

type ExportService interface {
	// ExportChecks renders the owner's checks matching q as an XLSX workbook.
	ExportChecks(ctx context.Context, ownerID uint, q CheckListQuery) ([]byte, error)
}

type exportService struct {
	checks CheckService
	now    Clock
}

func NewExportService(checks CheckService, now Clock) ExportService {
	if now == nil {
		now = utcNow
	}
	return &exportService{checks: checks, now: now}
}

func (s *exportService) collect(ctx context.Context, ownerID uint, q CheckListQuery) ([]model.Check, error) {
	q.PageSize = maxPageSize
	var all []model.Check
	for page := 1; len(all) < maxExportRows; page++ {
		q.Page = page
		batch, total, err := s.checks.ListChecks(ctx, ownerID, q)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) == 0 || int64(len(all)) >= total {
			break
		}
	}
	if len(all) > maxExportRows {
		all = all[:maxExportRows]
	}
	return all, nil
}

func (s *exportService) ExportChecks(ctx context.Context, ownerID uint, q CheckListQuery) ([]byte, error) {
	checks, err := s.collect(ctx, ownerID, q)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, storageFailure("export.sheet", err, nil)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, storageFailure("export.header", err, nil)
	}

	now := s.now()
	for i, c := range checks {
		status := CheckStatusActive
		if c.IsExpired(now) {
			status = CheckStatusExpired
		}
		row := []interface{}{
			c.ID,
			c.TagID,
			c.BusinessID,
			c.ScannedAt.UTC().Format("2006-01-02 15:04:05"),
			c.ExpiresAt.UTC().Format("2006-01-02 15:04:05"),
			status,
			c.UserID != nil,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, storageFailure("export.cell", err, nil)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, storageFailure("export.row", err, map[string]interface{}{"check_id": c.ID})
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, storageFailure("export.write", err, nil)
	}

	logger.Info("Checks exported", map[string]interface{}{
		"owner_id": ownerID,
		"rows":     len(checks),
	})
	return buf.Bytes(), nil
}
