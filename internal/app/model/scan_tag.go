package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TagType string

const (
	TagTypeQR  TagType = "QR"
	TagTypeNFC TagType = "NFC"
)

func (t TagType) Valid() bool {
	return t == TagTypeQR || t == TagTypeNFC
}

type TagStatus string

const (
	TagStatusActive   TagStatus = "active"
	TagStatusInactive TagStatus = "inactive"
	TagStatusReplaced TagStatus = "replaced"
)

// ScanTag is a physical QR/NFC code bound to one business. Its ID is what the
// printed code or NFC record carries.
type ScanTag struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	BusinessID    uint       `gorm:"not null;index" json:"business_id"`
	Business      *Business  `gorm:"foreignKey:BusinessID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"business,omitempty"`
	Code          string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Type          TagType    `gorm:"type:varchar(8);not null;default:'QR'" json:"type"`
	Status        TagStatus  `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	Label         string     `gorm:"type:varchar(120)" json:"label"`
	QRImageURL    string     `json:"qr_image_url,omitempty"`
	ReplacedByID  *string    `gorm:"type:varchar(36)" json:"replaced_by_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

func (ScanTag) TableName() string {
	return "scan_tags"
}

func (t *ScanTag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// NewTagCode returns the short code printed next to a tag's QR image.
func NewTagCode() string {
	return "T-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func (t *ScanTag) IsActive() bool {
	return t.Status == TagStatusActive
}
