package model

import (
	"time"

	"gorm.io/gorm"
)

// Review 스캔 인증 기반 리뷰. check_id 유니크 인덱스는 소프트 삭제된 행도 포함한다.
type Review struct {
	ID         uint            `gorm:"primarykey" json:"id"`
	BusinessID uint            `gorm:"not null;index" json:"business_id"`
	Business   *Business       `gorm:"foreignKey:BusinessID" json:"-"`
	UserID     uint            `gorm:"not null;index" json:"user_id"`
	User       *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CheckID    string          `gorm:"type:varchar(36);not null;uniqueIndex:idx_reviews_check_id" json:"check_id"`
	Check      *Check          `gorm:"foreignKey:CheckID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Rating     int             `gorm:"not null" json:"rating"`
	Content    string          `gorm:"type:text;not null" json:"content"`
	Response   *ReviewResponse `gorm:"foreignKey:ReviewID" json:"response,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}

// ReviewResponse 사장님 답글 (리뷰당 1개)
type ReviewResponse struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	ReviewID   uint      `gorm:"not null;uniqueIndex" json:"review_id"`
	BusinessID uint      `gorm:"not null;index" json:"business_id"`
	UserID     uint      `gorm:"not null" json:"user_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (ReviewResponse) TableName() string {
	return "review_responses"
}
