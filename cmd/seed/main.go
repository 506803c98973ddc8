package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ikkim/scanreview-backend/config"
	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/internal/app/repository"
	"github.com/ikkim/scanreview-backend/internal/db"
	"github.com/ikkim/scanreview-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Workbook columns, first sheet, header on row 1.
const (
	colName = iota
	colCategory
	colAddress
	colCity
	colPostalCode
	colPhone
	colWebsite
	colOwnerEmail
	colTagLabel
	columnCount
)

type businessRow struct {
	Line       int
	Name       string
	Category   string
	Address    string
	City       string
	PostalCode string
	Phone      string
	Website    string
	OwnerEmail string
	TagLabel   string
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}
	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	rows, skipped, err := readBusinessesFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	fmt.Printf("Businesses to import: %d (skipped rows: %d)\n", len(rows), skipped)

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	imported, err := importBusinesses(context.Background(), db.GetDB(), rows)
	if err != nil {
		log.Fatal("Import stopped:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Businesses imported: %d\n", imported)
}

func readBusinessesFromXLSX(filePath string) ([]businessRow, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	parsed, skipped := parseBusinessRows(rows)
	return parsed, skipped, nil
}

// parseBusinessRows skips the header, rows without a name or city, and
// repeated name and address pairs.
func parseBusinessRows(rows [][]string) ([]businessRow, int) {
	var out []businessRow
	seen := make(map[string]bool)
	skipped := 0

	for i, row := range rows {
		if i == 0 {
			continue
		}

		cells := make([]string, columnCount)
		for j := 0; j < columnCount && j < len(row); j++ {
			cells[j] = strings.TrimSpace(row[j])
		}

		if cells[colName] == "" || cells[colCity] == "" {
			skipped++
			continue
		}

		key := strings.ToLower(cells[colName] + "|" + cells[colAddress] + "|" + cells[colCity])
		if seen[key] {
			skipped++
			continue
		}
		seen[key] = true

		out = append(out, businessRow{
			Line:       i + 1,
			Name:       cells[colName],
			Category:   strings.ToLower(cells[colCategory]),
			Address:    cells[colAddress],
			City:       cells[colCity],
			PostalCode: cells[colPostalCode],
			Phone:      cells[colPhone],
			Website:    cells[colWebsite],
			OwnerEmail: strings.ToLower(cells[colOwnerEmail]),
			TagLabel:   cells[colTagLabel],
		})
	}
	return out, skipped
}

// importBusinesses creates each business with one active QR tag in its own
// transaction. Unknown categories and owners are left empty.
func importBusinesses(ctx context.Context, gormDB *gorm.DB, rows []businessRow) (int, error) {
	categories, err := repository.NewCategoryRepository(gormDB).List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load categories: %w", err)
	}
	categoryIDs := make(map[string]uint, len(categories))
	for _, c := range categories {
		categoryIDs[c.Slug] = c.ID
	}

	users := repository.NewUserRepository(gormDB)
	imported := 0

	for _, row := range rows {
		business := &model.Business{
			Name:       row.Name,
			Address:    row.Address,
			City:       row.City,
			PostalCode: row.PostalCode,
			Phone:      row.Phone,
			Website:    row.Website,
		}
		if id, ok := categoryIDs[row.Category]; ok {
			business.CategoryID = &id
		} else if row.Category != "" {
			logger.Warn("Unknown category, importing without one", map[string]interface{}{
				"line":     row.Line,
				"category": row.Category,
			})
		}

		if row.OwnerEmail != "" {
			owner, err := users.FindByEmail(ctx, row.OwnerEmail)
			switch {
			case err == nil:
				business.OwnerID = &owner.ID
			case errors.Is(err, gorm.ErrRecordNotFound):
				logger.Warn("Owner not found, importing as unclaimed", map[string]interface{}{
					"line":  row.Line,
					"email": row.OwnerEmail,
				})
			default:
				return imported, fmt.Errorf("line %d: look up owner: %w", row.Line, err)
			}
		}

		err := gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := repository.NewBusinessRepository(tx).Create(ctx, business); err != nil {
				return err
			}
			return repository.NewTagRepository(tx).Create(ctx, &model.ScanTag{
				BusinessID: business.ID,
				Code:       model.NewTagCode(),
				Type:       model.TagTypeQR,
				Status:     model.TagStatusActive,
				Label:      row.TagLabel,
			})
		})
		if err != nil {
			return imported, fmt.Errorf("line %d (%s): %w", row.Line, row.Name, err)
		}
		imported++

		if imported%100 == 0 {
			fmt.Printf("Imported %d businesses...\n", imported)
		}
	}

	return imported, nil
}
