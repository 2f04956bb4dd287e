package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/scholaris/internal/payment/domain"
	plandomain "github.com/smallbiznis/scholaris/internal/plan/domain"
	"github.com/smallbiznis/scholaris/internal/subscription/domain"
	tenantdomain "github.com/smallbiznis/scholaris/internal/tenant/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const paymentProvider = "paystack"

type service struct {
	planRepo plandomain.Repository
	gateway  paymentdomain.Gateway
	genID    *snowflake.Node
	log      *zap.Logger
}

// NewService builds the subscription activation service.
func NewService(planRepo plandomain.Repository, gateway paymentdomain.Gateway, genID *snowflake.Node, log *zap.Logger) domain.Service {
	return &service{
		planRepo: planRepo,
		gateway:  gateway,
		genID:    genID,
		log:      log.Named("subscription"),
	}
}

// Activate creates the subscription row for the chosen plan and cycle. The
// plan's active flag is re-checked here: plans may be retired between the
// wizard's plan step and submission.
func (s *service) Activate(ctx context.Context, db *gorm.DB, tenant *tenantdomain.Tenant, planID snowflake.ID, cycle plandomain.BillingCycle) (*domain.Subscription, *plandomain.Plan, error) {
	plan, err := s.planRepo.FindByID(ctx, db, planID)
	if err != nil {
		return nil, nil, err
	}
	if !plan.IsActive {
		return nil, nil, plandomain.ErrInactive
	}

	now := time.Now().UTC()
	periodEnd := now.AddDate(0, 1, 0)
	if cycle == plandomain.BillingCycleYearly {
		periodEnd = now.AddDate(1, 0, 0)
	}

	code, err := subscriptionCode()
	if err != nil {
		return nil, nil, err
	}

	sub := &domain.Subscription{
		ID:                 s.genID.Generate(),
		TenantID:           tenant.ID,
		PlanID:             plan.ID,
		Code:               code,
		BillingCycle:       cycle,
		Amount:             plan.PriceFor(cycle),
		Currency:           plan.Currency,
		Status:             domain.SubscriptionStatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   periodEnd,
		AutoRenew:          true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, nil, err
	}

	return sub, plan, nil
}

// SettlePayment records the first payment for a subscription. Free plans get
// a zero-amount completed record without touching the gateway; paid plans are
// verified against the gateway, and the verified currency and amount must
// match the subscription exactly.
func (s *service) SettlePayment(ctx context.Context, db *gorm.DB, tenant *tenantdomain.Tenant, sub *domain.Subscription, plan *plandomain.Plan, reference string) (*paymentdomain.Payment, error) {
	now := time.Now().UTC()

	if plan.IsFree() {
		freeRef, err := randomReference("FREE")
		if err != nil {
			return nil, err
		}
		payment := &paymentdomain.Payment{
			ID:             s.genID.Generate(),
			TenantID:       tenant.ID,
			SubscriptionID: sub.ID,
			Reference:      freeRef,
			Amount:         0,
			Currency:       sub.Currency,
			Provider:       paymentProvider,
			Status:         paymentdomain.PaymentStatusCompleted,
			Notes:          "Free plan - no payment required",
			PaidAt:         &now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := db.WithContext(ctx).Create(payment).Error; err != nil {
			return nil, err
		}
		return payment, nil
	}

	result, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrVerificationFailed, err)
	}
	if !result.Succeeded() {
		return nil, paymentdomain.ErrNotSuccessful
	}
	if !strings.EqualFold(result.Currency, sub.Currency) {
		s.log.Warn("payment currency mismatch",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("expected", sub.Currency),
			zap.String("verified", result.Currency),
		)
		return nil, paymentdomain.ErrCurrencyMismatch
	}
	if !amountsMatch(result.Amount, sub.Amount) {
		s.log.Warn("payment amount mismatch",
			zap.String("subscription_id", sub.ID.String()),
			zap.Float64("expected", sub.Amount),
			zap.Float64("verified", result.Amount),
		)
		return nil, paymentdomain.ErrAmountMismatch
	}

	paidAt := result.PaidAt
	if paidAt == nil {
		paidAt = &now
	}
	payment := &paymentdomain.Payment{
		ID:             s.genID.Generate(),
		TenantID:       tenant.ID,
		SubscriptionID: sub.ID,
		Reference:      strings.TrimSpace(reference),
		Amount:         result.Amount,
		Currency:       sub.Currency,
		Provider:       paymentProvider,
		TransactionID:  result.TransactionID,
		Status:         paymentdomain.PaymentStatusCompleted,
		PaidAt:         paidAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

// amountsMatch compares amounts in minor units; a 0.01 difference is a
// mismatch.
func amountsMatch(a, b float64) bool {
	return int64(math.Round(a*100)) == int64(math.Round(b*100))
}

func subscriptionCode() (string, error) {
	raw := make([]byte, 5)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return "SUB-" + strings.ToUpper(hex.EncodeToString(raw)), nil
}

func randomReference(prefix string) (string, error) {
	raw := make([]byte, 8)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return prefix + "-" + hex.EncodeToString(raw), nil
}
