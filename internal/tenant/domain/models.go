// Package domain contains persistence models for tenants.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TenantStatus represents lifecycle states for a tenant.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusInactive  TenantStatus = "inactive"
)

// Tenant represents an isolated school instance.
type Tenant struct {
	ID                snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name              string            `gorm:"type:text;not null" json:"name"`
	Slug              string            `gorm:"type:text;not null;uniqueIndex:ux_tenants_slug" json:"slug"`
	Subdomain         string            `gorm:"type:text;not null;uniqueIndex:ux_tenants_subdomain" json:"subdomain"`
	CustomDomain      *string           `gorm:"type:text;uniqueIndex:ux_tenants_custom_domain" json:"custom_domain"`
	OwnerID           snowflake.ID      `gorm:"column:owner_id;not null;index" json:"owner_id"`
	OwnerEmail        string            `gorm:"column:owner_email;type:text;not null" json:"owner_email"`
	Status            TenantStatus      `gorm:"type:text;not null" json:"status"`
	SchoolType        string            `gorm:"column:school_type;type:text" json:"school_type"`
	PrimaryColor      string            `gorm:"column:primary_color;type:text" json:"primary_color"`
	SecondaryColor    string            `gorm:"column:secondary_color;type:text" json:"secondary_color"`
	Timezone          string            `gorm:"type:text;not null" json:"timezone"`
	Country           string            `gorm:"type:text;not null" json:"country"`
	Currency          string            `gorm:"type:text;not null" json:"currency"`
	TrialEndsAt       *time.Time        `gorm:"column:trial_ends_at" json:"trial_ends_at"`
	SetupCompleted    bool              `gorm:"column:setup_completed;not null;default:false" json:"setup_completed"`
	OnboardingStep    string            `gorm:"column:onboarding_step;type:text" json:"onboarding_step"`
	VerificationToken string            `gorm:"column:verification_token;type:text" json:"-"`
	EmailVerifiedAt   *time.Time        `gorm:"column:email_verified_at" json:"email_verified_at"`
	Settings          datatypes.JSONMap `gorm:"type:jsonb" json:"settings"`
	CreatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt         gorm.DeletedAt    `gorm:"index" json:"-"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

// TenantUser represents membership of a user in a tenant.
type TenantUser struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	TenantID    snowflake.ID   `gorm:"not null;index;uniqueIndex:ux_tenant_user,priority:1" json:"tenant_id"`
	UserID      snowflake.ID   `gorm:"not null;index;uniqueIndex:ux_tenant_user,priority:2" json:"user_id"`
	Role        string         `gorm:"type:text;not null" json:"role"`
	Permissions datatypes.JSON `gorm:"type:jsonb" json:"permissions"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (TenantUser) TableName() string { return "tenant_users" }

const RoleOwner = "owner"

// Branding and locale defaults applied when the profile omits them.
const (
	DefaultPrimaryColor   = "#3B82F6"
	DefaultSecondaryColor = "#F97316"
	DefaultTimezone       = "Africa/Lagos"
	DefaultCountry        = "NG"
	DefaultCurrency       = "NGN"
)

const TrialPeriodDays = 14
