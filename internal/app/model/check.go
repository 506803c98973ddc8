package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Check is one authorized presence verification produced by a scan. It gates
// exactly one review and stops being usable at ExpiresAt.
type Check struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TagID      string    `gorm:"type:varchar(36);not null;index:idx_checks_tag_scanned,priority:1" json:"tag_id"`
	Tag        *ScanTag  `gorm:"foreignKey:TagID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"tag,omitempty"`
	BusinessID uint      `gorm:"not null;index" json:"business_id"`
	Business   *Business `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
	UserID     *uint     `gorm:"index" json:"user_id"`
	DeviceHash *string   `gorm:"type:varchar(128);index" json:"device_hash,omitempty"`
	IP         string    `gorm:"type:varchar(64);index" json:"ip"`
	UserAgent  string    `gorm:"type:text" json:"user_agent"`
	ScannedAt  time.Time `gorm:"not null;index:idx_checks_tag_scanned,priority:2" json:"scanned_at"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Check) TableName() string {
	return "checks"
}

func (c *Check) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IsExpired reports whether now is past the check's expiry.
func (c *Check) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
