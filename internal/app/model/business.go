package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Category 업종 카테고리
type Category struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(80);not null" json:"name"`
	Slug        string    `gorm:"type:varchar(80);uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

type Business struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	OwnerID     *uint     `gorm:"index" json:"owner_id"`
	Owner       *User     `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	Category    *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Name        string    `gorm:"not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Address     string    `gorm:"type:text" json:"address"`
	City        string    `gorm:"index" json:"city"`
	PostalCode  string    `gorm:"type:varchar(20)" json:"postal_code"`
	Phone       string    `gorm:"type:varchar(30)" json:"phone"`
	Website     string    `json:"website"`

	// Derived by the stats recompute, never written by clients.
	AverageRating float64    `gorm:"type:decimal(2,1);default:0;not null" json:"average_rating"`
	ReviewCount   int        `gorm:"default:0;not null" json:"review_count"`
	LastReviewAt  *time.Time `json:"last_review_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Business) TableName() string {
	return "businesses"
}

// BusinessSummary is the public view returned alongside scans and checks.
type BusinessSummary struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Address       string  `json:"address"`
	City          string  `json:"city"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

func (b *Business) Summary() *BusinessSummary {
	if b == nil {
		return nil
	}
	return &BusinessSummary{
		ID:            b.ID,
		Name:          b.Name,
		Description:   b.Description,
		Address:       b.Address,
		City:          b.City,
		AverageRating: b.AverageRating,
		ReviewCount:   b.ReviewCount,
	}
}

// IsOwnedBy reports whether userID owns the business.
func (b *Business) IsOwnedBy(userID uint) bool {
	return b.OwnerID != nil && *b.OwnerID == userID
}

var (
	slugInvalidChars = regexp.MustCompile(`[^\p{L}\p{N}-]+`)
	slugDashes       = regexp.MustCompile(`-+`)
)

func generateSlug(city, name string) string {
	slug := fmt.Sprintf("%s-%s", city, name)
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	slug = slugDashes.ReplaceAllString(slug, "-")
	return strings.ToLower(strings.Trim(slug, "-"))
}

// BeforeCreate는 slug가 비어 있으면 도시와 상호로 생성합니다
func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.Slug != "" {
		return nil
	}

	base := generateSlug(b.City, b.Name)
	slug := base
	for counter := 2; ; counter++ {
		var count int64
		if err := tx.Model(&Business{}).Unscoped().Where("slug = ?", slug).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
	b.Slug = slug
	return nil
}
