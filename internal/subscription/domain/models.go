// Package domain contains persistence models for tenant subscriptions.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/scholaris/internal/payment/domain"
	plandomain "github.com/smallbiznis/scholaris/internal/plan/domain"
	tenantdomain "github.com/smallbiznis/scholaris/internal/tenant/domain"
	"gorm.io/gorm"
)

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"
)

// Subscription captures a tenant's billing agreement with a plan. Amount is
// fixed from the plan price at creation time and never re-derived.
type Subscription struct {
	ID                 snowflake.ID            `gorm:"primaryKey" json:"id"`
	TenantID           snowflake.ID            `gorm:"not null;index" json:"tenant_id"`
	PlanID             snowflake.ID            `gorm:"not null;index" json:"plan_id"`
	Code               string                  `gorm:"type:text;not null;uniqueIndex:ux_subscriptions_code" json:"code"`
	BillingCycle       plandomain.BillingCycle `gorm:"column:billing_cycle;type:text;not null" json:"billing_cycle"`
	Amount             float64                 `gorm:"not null" json:"amount"`
	Currency           string                  `gorm:"type:text;not null" json:"currency"`
	Status             SubscriptionStatus      `gorm:"type:text;not null" json:"status"`
	CurrentPeriodStart time.Time               `gorm:"column:current_period_start;not null" json:"current_period_start"`
	CurrentPeriodEnd   time.Time               `gorm:"column:current_period_end;not null" json:"current_period_end"`
	AutoRenew          bool                    `gorm:"column:auto_renew;not null" json:"auto_renew"`
	CreatedAt          time.Time               `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time               `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// Service activates subscriptions and settles their first payment. Methods
// take the db handle so the orchestrator can run them inside its transaction.
type Service interface {
	Activate(ctx context.Context, db *gorm.DB, tenant *tenantdomain.Tenant, planID snowflake.ID, cycle plandomain.BillingCycle) (*Subscription, *plandomain.Plan, error)
	SettlePayment(ctx context.Context, db *gorm.DB, tenant *tenantdomain.Tenant, sub *Subscription, plan *plandomain.Plan, reference string) (*paymentdomain.Payment, error)
}
