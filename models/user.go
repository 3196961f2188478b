package models

import (
	"time"

	"gorm.io/gorm"
)

// Role values recognized by the platform.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleOperator   = "operator"
	RoleSuperadmin = "superadmin"
	RoleAuditor    = "auditor"
)

type User struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	Email           string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name            string         `gorm:"size:255;not null" json:"name"`
	PasswordHash    string         `gorm:"size:255;not null" json:"-"`
	Role            string         `gorm:"size:20;default:'user'" json:"role"`
	Country         string         `gorm:"size:2" json:"country"` // ISO country code
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	DefaultCurrency string         `gorm:"size:10;default:'USD'" json:"default_currency"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// IsAdminEquivalent reports whether the role may decide KYC reviews.
// Operators and auditors can read review queues but not decide them.
func IsAdminEquivalent(role string) bool {
	return role == RoleAdmin || role == RoleSuperadmin
}

// CanViewReviews reports whether the role may read the review queues.
func CanViewReviews(role string) bool {
	switch role {
	case RoleAdmin, RoleSuperadmin, RoleOperator, RoleAuditor:
		return true
	}
	return false
}
