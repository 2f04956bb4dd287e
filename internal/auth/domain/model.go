// Package domain contains core types for user accounts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User represents a platform user account. Tenant owners are created here
// during onboarding with a random unusable password; they pick a real one
// after verifying their email.
type User struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	Name            string       `gorm:"type:text;not null"`
	Email           string       `gorm:"type:text;not null;uniqueIndex:ux_users_email"`
	PasswordHash    *string      `gorm:"type:text"`
	EmailVerifiedAt *time.Time   `gorm:"column:email_verified_at"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
