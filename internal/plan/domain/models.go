// Package domain contains persistence models for the subscription plan catalog.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// BillingCycle selects which plan price applies.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

// ParseBillingCycle validates a raw billing cycle value, defaulting to monthly.
func ParseBillingCycle(raw string) (BillingCycle, error) {
	switch BillingCycle(raw) {
	case BillingCycleMonthly, "":
		return BillingCycleMonthly, nil
	case BillingCycleYearly:
		return BillingCycleYearly, nil
	default:
		return "", ErrInvalidBillingCycle
	}
}

// Plan is a subscription plan offered to tenants.
type Plan struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	Slug         string       `gorm:"type:text;not null;uniqueIndex:ux_plans_slug" json:"slug"`
	Description  string       `gorm:"type:text" json:"description"`
	PriceMonthly float64      `gorm:"column:price_monthly;not null" json:"price_monthly"`
	PriceYearly  float64      `gorm:"column:price_yearly;not null" json:"price_yearly"`
	Currency     string       `gorm:"type:text;not null" json:"currency"`
	MaxStudents  int          `gorm:"column:max_students" json:"max_students"`
	MaxStaff     int          `gorm:"column:max_staff" json:"max_staff"`
	IsActive     bool         `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "subscription_plans" }

// IsFree reports whether the plan requires no payment. This is the single
// source of truth for the free-plan decision.
func (p Plan) IsFree() bool {
	return p.PriceMonthly == 0
}

// PriceFor returns the plan price for the given billing cycle.
func (p Plan) PriceFor(cycle BillingCycle) float64 {
	if cycle == BillingCycleYearly {
		return p.PriceYearly
	}
	return p.PriceMonthly
}

// Repository loads plans. Methods take the db handle so services can pass
// a transaction.
type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Plan, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]Plan, error)
}

var (
	ErrNotFound            = errors.New("plan not found")
	ErrInactive            = errors.New("plan is no longer available")
	ErrInvalidBillingCycle = errors.New("invalid billing cycle")
)
