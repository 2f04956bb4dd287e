package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/scholaris/internal/auth/domain"
	"github.com/smallbiznis/scholaris/internal/onboarding/domain"
	"github.com/smallbiznis/scholaris/internal/onboarding/repository"
	plandomain "github.com/smallbiznis/scholaris/internal/plan/domain"
	planrepository "github.com/smallbiznis/scholaris/internal/plan/repository"
	tenantdomain "github.com/smallbiznis/scholaris/internal/tenant/domain"
	tenantrepository "github.com/smallbiznis/scholaris/internal/tenant/repository"
	dbpkg "github.com/smallbiznis/scholaris/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type serviceFixture struct {
	db   *gorm.DB
	node *snowflake.Node
	repo domain.Repository
	svc  domain.Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	err = db.AutoMigrate(
		&authdomain.User{},
		&tenantdomain.Tenant{},
		&plandomain.Plan{},
		&domain.OnboardingDraft{},
		&domain.OnboardingJob{},
		&domain.JobProgress{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create id generator: %v", err)
	}

	repo := repository.Provide(node)
	svc := NewService(db, repo, planrepository.Provide(), tenantrepository.Provide(), zap.NewNop())
	return &serviceFixture{db: db, node: node, repo: repo, svc: svc}
}

func (f *serviceFixture) seedPlan(t *testing.T, priceMonthly float64, active bool) *plandomain.Plan {
	t.Helper()
	plan := &plandomain.Plan{
		ID:           f.node.Generate(),
		Name:         "Test Plan",
		Slug:         "test-plan-" + f.node.Generate().String(),
		PriceMonthly: priceMonthly,
		PriceYearly:  priceMonthly * 10,
		Currency:     "NGN",
		IsActive:     active,
	}
	if err := f.db.Create(plan).Error; err != nil {
		t.Fatalf("failed to seed plan: %v", err)
	}
	return plan
}

func (f *serviceFixture) saveValidProfile(t *testing.T, sessionID string) {
	t.Helper()
	_, err := f.svc.SaveStep(context.Background(), sessionID, domain.StepProfile, map[string]any{
		"school_name": "Sunrise Academy",
		"owner_email": "owner@sunrise.test",
		"country":     "NG",
	})
	if err != nil {
		t.Fatalf("failed to save profile: %v", err)
	}
}

func TestSaveStepRejectsInvalidProfile(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.SaveStep(context.Background(), "session-a", domain.StepProfile, map[string]any{
		"school_name": "Sunrise Academy",
		"owner_email": "not-an-email",
		"country":     "NG",
	})
	vErrs, ok := domain.AsValidationErrors(err)
	if !ok {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if vErrs[0].Field != "owner_email" {
		t.Fatalf("expected owner_email error, got %v", vErrs)
	}
}

func TestSaveStepRejectsUnknownPlan(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.SaveStep(context.Background(), "session-a", domain.StepPlan, map[string]any{
		"plan_id": f.node.Generate().String(),
	})
	vErrs, ok := domain.AsValidationErrors(err)
	if !ok {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if vErrs[0].Code != "not_found" {
		t.Fatalf("expected not_found, got %v", vErrs)
	}
}

func TestSaveStepRejectsInactivePlan(t *testing.T) {
	f := newServiceFixture(t)
	plan := f.seedPlan(t, 0, false)

	_, err := f.svc.SaveStep(context.Background(), "session-a", domain.StepPlan, map[string]any{
		"plan_id": plan.ID.String(),
	})
	vErrs, ok := domain.AsValidationErrors(err)
	if !ok {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if vErrs[0].Code != "inactive" {
		t.Fatalf("expected inactive, got %v", vErrs)
	}
}

func TestSubmitQueuesJobOnce(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	plan := f.seedPlan(t, 0, true)

	f.saveValidProfile(t, "session-a")
	if _, err := f.svc.SaveStep(ctx, "session-a", domain.StepPlan, map[string]any{"plan_id": plan.ID.String()}); err != nil {
		t.Fatalf("failed to save plan step: %v", err)
	}

	first, err := f.svc.Submit(ctx, "session-a")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if first.Status != domain.DraftStatusProcessing {
		t.Fatalf("expected processing, got %s", first.Status)
	}

	// Resubmitting while the job is queued returns the same job.
	second, err := f.svc.Submit(ctx, "session-a")
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if second.JobID != first.JobID {
		t.Fatalf("expected same job id, got %s and %s", first.JobID, second.JobID)
	}

	var jobs int64
	if err := f.db.Model(&domain.OnboardingJob{}).Count(&jobs).Error; err != nil {
		t.Fatalf("failed to count jobs: %v", err)
	}
	if jobs != 1 {
		t.Fatalf("expected 1 job, got %d", jobs)
	}
}

func TestSubmitRequiresPaymentReferenceForPaidPlan(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	plan := f.seedPlan(t, 15000, true)

	f.saveValidProfile(t, "session-a")
	if _, err := f.svc.SaveStep(ctx, "session-a", domain.StepPlan, map[string]any{"plan_id": plan.ID.String()}); err != nil {
		t.Fatalf("failed to save plan step: %v", err)
	}

	_, err := f.svc.Submit(ctx, "session-a")
	vErrs, ok := domain.AsValidationErrors(err)
	if !ok {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if vErrs[0].Field != "paystack_reference" {
		t.Fatalf("expected paystack_reference error, got %v", vErrs)
	}
}

func TestSubmitWithoutDraft(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Submit(context.Background(), "session-missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatusRejectsForeignSession(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	plan := f.seedPlan(t, 0, true)

	f.saveValidProfile(t, "session-a")
	if _, err := f.svc.SaveStep(ctx, "session-a", domain.StepPlan, map[string]any{"plan_id": plan.ID.String()}); err != nil {
		t.Fatalf("failed to save plan step: %v", err)
	}
	result, err := f.svc.Submit(ctx, "session-a")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	_, err = f.svc.Status(ctx, "session-b", result.JobID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestStatusUnknownJob(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Status(context.Background(), "session-a", f.node.Generate())
	if !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestStatusIncludesSubdomainWhenCompleted(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	tenant := &tenantdomain.Tenant{
		ID:         f.node.Generate(),
		Name:       "Sunrise Academy",
		Slug:       "sunrise-academy",
		Subdomain:  "sunrise-academy",
		OwnerID:    f.node.Generate(),
		OwnerEmail: "owner@sunrise.test",
		Status:     tenantdomain.TenantStatusActive,
		Timezone:   "Africa/Lagos",
		Country:    "NG",
		Currency:   "NGN",
	}
	if err := f.db.Create(tenant).Error; err != nil {
		t.Fatalf("failed to create tenant: %v", err)
	}

	draft, err := f.repo.GetOrCreate(ctx, f.db, "session-a")
	if err != nil {
		t.Fatalf("get or create failed: %v", err)
	}
	job, err := f.repo.MarkSubmitted(ctx, f.db, draft)
	if err != nil {
		t.Fatalf("mark submitted failed: %v", err)
	}
	if err := f.repo.SetTenant(ctx, f.db, draft, tenant.ID); err != nil {
		t.Fatalf("set tenant failed: %v", err)
	}
	if err := f.repo.MarkCompleted(ctx, f.db, draft); err != nil {
		t.Fatalf("mark completed failed: %v", err)
	}

	status, err := f.svc.Status(ctx, "session-a", job.ID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.Status != domain.DraftStatusCompleted {
		t.Fatalf("expected completed, got %s", status.Status)
	}
	if status.Progress != 100 {
		t.Fatalf("expected progress 100, got %d", status.Progress)
	}
	if status.Subdomain != "sunrise-academy" {
		t.Fatalf("expected subdomain, got %q", status.Subdomain)
	}
}
