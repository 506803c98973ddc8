package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRole string // 사용자 권한 타입

const (
	RoleUser   UserRole = "user"   // 일반 사용자
	RoleOwner  UserRole = "owner"  // 매장(비즈니스) 소유자
	RoleAdmin  UserRole = "admin"  // 관리자
	RoleSystem UserRole = "system" // 시스템 계정 (익명 리뷰 작성자)
)

// ErrSystemUserImmutable is returned by the model hooks when a system identity
// would be modified or removed.
var ErrSystemUserImmutable = errors.New("system user cannot be modified")

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Role         UserRole       `gorm:"type:varchar(20);default:'user'" json:"role"`
	IsSystem     bool           `gorm:"default:false;index" json:"-"` // 익명 리뷰용 고정 계정
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// BeforeUpdate keeps system identities immutable.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	return guardSystemUser(tx, u)
}

// BeforeDelete keeps system identities from being removed.
func (u *User) BeforeDelete(tx *gorm.DB) error {
	return guardSystemUser(tx, u)
}

// guardSystemUser rejects a write when any row it targets is a system
// identity. The hook value is often an empty model, so the statement's
// primary key and WHERE conditions are checked against the table too.
func guardSystemUser(tx *gorm.DB, u *User) error {
	if u.IsSystem {
		return ErrSystemUserImmutable
	}

	query := tx.Session(&gorm.Session{NewDB: true}).Model(&User{}).Where("is_system = ?", true)
	if u.ID != 0 {
		query = query.Where("id = ?", u.ID)
	}
	if c, ok := tx.Statement.Clauses["WHERE"]; ok {
		if where, ok := c.Expression.(clause.Where); ok && len(where.Exprs) > 0 {
			query = query.Clauses(clause.Where{Exprs: where.Exprs})
		}
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrSystemUserImmutable
	}
	return nil
}
