package db

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/pkg/logger"
	"github.com/ikkim/scanreview-backend/pkg/util"
	"gorm.io/gorm"
)

// Models lists every table in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Category{},
		&model.Business{},
		&model.ScanTag{},
		&model.Check{},
		&model.Review{},
		&model.ReviewResponse{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedCategories(DB); err != nil {
		logger.Error("Failed to seed categories during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// EnsureSystemUser returns the id of the system identity registered under
// email, creating it on first run. Anonymous reviews reference this row, so it
// has to exist before any review is written.
func EnsureSystemUser(db *gorm.DB, email string) (uint, error) {
	var user model.User
	err := db.Unscoped().Where("email = ?", email).First(&user).Error
	if err == nil {
		if !user.IsSystem {
			return 0, fmt.Errorf("user %s exists but is not a system user", email)
		}
		if user.DeletedAt.Valid {
			return 0, fmt.Errorf("system user %s is soft-deleted", email)
		}
		return user.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	// Nobody can log in as the system user: the password is random and discarded.
	hash, err := util.HashPassword(uuid.NewString())
	if err != nil {
		return 0, err
	}

	user = model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Anonymous",
		Role:         model.RoleSystem,
		IsSystem:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		return 0, err
	}

	logger.Info("System user created", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
	})
	return user.ID, nil
}

var defaultCategories = []model.Category{
	{Name: "Restaurant", Slug: "restaurant"},
	{Name: "Café", Slug: "cafe"},
	{Name: "Bar", Slug: "bar"},
	{Name: "Bakery", Slug: "bakery"},
	{Name: "Hotel", Slug: "hotel"},
	{Name: "Shop", Slug: "shop"},
	{Name: "Beauty & Wellness", Slug: "beauty-wellness"},
	{Name: "Services", Slug: "services"},
}

func seedCategories(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("Categories already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	categories := make([]model.Category, len(defaultCategories))
	copy(categories, defaultCategories)
	if err := db.Create(&categories).Error; err != nil {
		return err
	}

	logger.Info("Categories seeded", map[string]interface{}{
		"count": len(categories),
	})
	return nil
}
