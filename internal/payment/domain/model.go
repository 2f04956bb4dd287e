// Package domain contains payment records and the gateway contract.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// PaymentStatus represents lifecycle states for a payment record.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment is the persisted record of a verified (or synthesized) payment.
type Payment struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID       snowflake.ID  `gorm:"not null;index" json:"tenant_id"`
	SubscriptionID snowflake.ID  `gorm:"not null;index" json:"subscription_id"`
	Reference      string        `gorm:"type:text;not null;uniqueIndex:ux_payments_reference" json:"reference"`
	Amount         float64       `gorm:"not null" json:"amount"`
	Currency       string        `gorm:"type:text;not null" json:"currency"`
	Provider       string        `gorm:"type:text;not null" json:"provider"`
	TransactionID  string        `gorm:"column:transaction_id;type:text" json:"transaction_id"`
	Status         PaymentStatus `gorm:"type:text;not null" json:"status"`
	Notes          string        `gorm:"type:text" json:"notes"`
	PaidAt         *time.Time    `gorm:"column:paid_at" json:"paid_at"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// VerifyResult is the typed outcome of a gateway verification call. Amount
// is in major currency units.
type VerifyResult struct {
	Status        string
	Amount        float64
	Currency      string
	TransactionID string
	PaidAt        *time.Time
}

// Succeeded reports whether the gateway settled the transaction.
func (r VerifyResult) Succeeded() bool {
	return r.Status == "success"
}

// Gateway verifies a third-party payment reference. A returned error means
// the gateway was unreachable or rejected the lookup; a non-success result
// comes back without an error.
type Gateway interface {
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

var (
	ErrVerificationFailed = errors.New("payment verification failed")
	ErrNotSuccessful      = errors.New("payment was not successful")
	ErrAmountMismatch     = errors.New("payment amount mismatch")
	ErrCurrencyMismatch   = errors.New("payment currency mismatch")
)
