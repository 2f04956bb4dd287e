package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/scholaris/internal/onboarding/domain"
	pagesdomain "github.com/smallbiznis/scholaris/internal/pages/domain"
	plandomain "github.com/smallbiznis/scholaris/internal/plan/domain"
	subscriptiondomain "github.com/smallbiznis/scholaris/internal/subscription/domain"
	tenantdomain "github.com/smallbiznis/scholaris/internal/tenant/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier sends the owner's verification email once setup has committed.
type Notifier interface {
	SendVerification(ctx context.Context, tenant *tenantdomain.Tenant) error
}

type processor struct {
	db         *gorm.DB
	repo       domain.Repository
	planRepo   plandomain.Repository
	tenantSvc  tenantdomain.Service
	tenantRepo tenantdomain.Repository
	subSvc     subscriptiondomain.Service
	pagesSvc   pagesdomain.Service
	notifier   Notifier
	log        *zap.Logger
}

// NewProcessor builds the setup pipeline runner.
func NewProcessor(
	db *gorm.DB,
	repo domain.Repository,
	planRepo plandomain.Repository,
	tenantSvc tenantdomain.Service,
	tenantRepo tenantdomain.Repository,
	subSvc subscriptiondomain.Service,
	pagesSvc pagesdomain.Service,
	notifier Notifier,
	log *zap.Logger,
) domain.Processor {
	return &processor{
		db:         db,
		repo:       repo,
		planRepo:   planRepo,
		tenantSvc:  tenantSvc,
		tenantRepo: tenantRepo,
		subSvc:     subSvc,
		pagesSvc:   pagesSvc,
		notifier:   notifier,
		log:        log.Named("onboarding.processor"),
	}
}

// Run executes the setup pipeline for one job. Tenant, subscription,
// payment, membership, and pages are created inside a single transaction,
// so a failure anywhere rolls everything back. Once the transaction has
// committed the draft carries the tenant id; a retried run skips straight
// to the verification email instead of provisioning twice.
func (p *processor) Run(ctx context.Context, job *domain.OnboardingJob) error {
	draft, err := p.repo.GetByJob(ctx, p.db, job.ID)
	if errors.Is(err, domain.ErrJobNotFound) {
		// Draft pruned or never linked; nothing to retry.
		p.log.Warn("no draft for job, skipping", zap.String("job_id", job.ID.String()))
		return nil
	}
	if err != nil {
		return err
	}
	if draft.Status == domain.DraftStatusCompleted {
		return nil
	}

	var tenant *tenantdomain.Tenant
	if draft.TenantID == nil {
		tenant, err = p.provision(ctx, draft)
		if err != nil {
			return err
		}
	} else {
		tenant, err = p.tenantRepo.FindByID(ctx, p.db, *draft.TenantID)
		if err != nil {
			return err
		}
	}

	if err := p.sendVerification(ctx, draft, tenant); err != nil {
		return err
	}

	if err := p.repo.MarkCompleted(ctx, p.db, draft); err != nil {
		return err
	}
	p.log.Info("onboarding completed",
		zap.String("job_id", job.ID.String()),
		zap.String("tenant_id", tenant.ID.String()),
	)
	return nil
}

// provision validates the draft and runs the transactional stages.
func (p *processor) provision(ctx context.Context, draft *domain.OnboardingDraft) (*tenantdomain.Tenant, error) {
	if err := p.repo.UpdateProgress(ctx, p.db, draft, "validate", 10, "Validating your information..."); err != nil {
		return nil, err
	}

	profile, planData, payment, plan, err := p.decodeAndValidate(ctx, draft)
	if err != nil {
		return nil, err
	}

	if err := p.repo.UpdateProgress(ctx, p.db, draft, "validate", 20, "Preparing your workspace..."); err != nil {
		return nil, err
	}

	var tenant *tenantdomain.Tenant
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := p.repo.UpdateProgress(ctx, tx, draft, "tenant", 30, "Creating your school workspace..."); err != nil {
			return err
		}
		result, err := p.tenantSvc.Provision(ctx, tx, tenantdomain.ProvisionRequest{
			SchoolName:     profile.SchoolName,
			OwnerEmail:     profile.OwnerEmail,
			Country:        profile.Country,
			SchoolType:     profile.SchoolType,
			PrimaryColor:   profile.PrimaryColor,
			SecondaryColor: profile.SecondaryColor,
			Timezone:       profile.Timezone,
		})
		if err != nil {
			return err
		}
		tenant = result.Tenant

		if err := p.repo.UpdateProgress(ctx, tx, draft, "tenant", 40, "Setting up your school profile..."); err != nil {
			return err
		}

		if err := p.repo.UpdateProgress(ctx, tx, draft, "subscription", 50, "Configuring your subscription..."); err != nil {
			return err
		}
		cycle, err := plandomain.ParseBillingCycle(planData.BillingCycle)
		if err != nil {
			return err
		}
		sub, plan, err := p.subSvc.Activate(ctx, tx, tenant, plan.ID, cycle)
		if err != nil {
			return err
		}
		if err := p.repo.UpdateProgress(ctx, tx, draft, "subscription", 60, "Activating your plan..."); err != nil {
			return err
		}

		if err := p.repo.UpdateProgress(ctx, tx, draft, "payment", 70, "Processing payment..."); err != nil {
			return err
		}
		if _, err := p.subSvc.SettlePayment(ctx, tx, tenant, sub, plan, payment.PaystackReference); err != nil {
			return err
		}

		if err := p.repo.UpdateProgress(ctx, tx, draft, "membership", 75, "Setting up your account..."); err != nil {
			return err
		}
		if err := p.tenantSvc.CreateMembership(ctx, tx, tenant.ID, result.Owner.ID); err != nil {
			return err
		}

		if err := p.repo.UpdateProgress(ctx, tx, draft, "pages", 80, "Creating your public pages..."); err != nil {
			return err
		}
		if _, err := p.pagesSvc.GenerateDefaults(ctx, tx, tenant); err != nil {
			return err
		}
		if err := p.repo.UpdateProgress(ctx, tx, draft, "pages", 85, "Customizing your school website..."); err != nil {
			return err
		}

		if err := p.tenantSvc.CompleteSetup(ctx, tx, tenant.ID); err != nil {
			return err
		}
		return p.repo.SetTenant(ctx, tx, draft, tenant.ID)
	})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (p *processor) decodeAndValidate(ctx context.Context, draft *domain.OnboardingDraft) (domain.ProfileData, domain.PlanData, domain.PaymentData, *plandomain.Plan, error) {
	var (
		zeroProfile domain.ProfileData
		zeroPlan    domain.PlanData
		zeroPayment domain.PaymentData
	)

	profile, err := domain.DecodeProfile(draft.Profile)
	if err != nil {
		return zeroProfile, zeroPlan, zeroPayment, nil, fmt.Errorf("decode profile: %w", err)
	}
	planData, err := domain.DecodePlan(draft.Plan)
	if err != nil {
		return zeroProfile, zeroPlan, zeroPayment, nil, fmt.Errorf("decode plan: %w", err)
	}
	payment, err := domain.DecodePayment(draft.Payment)
	if err != nil {
		return zeroProfile, zeroPlan, zeroPayment, nil, fmt.Errorf("decode payment: %w", err)
	}

	var errs domain.ValidationErrors
	errs = append(errs, profile.Validate()...)
	errs = append(errs, planData.Validate()...)

	var plan *plandomain.Plan
	if planID, parseErr := planData.ParsePlanID(); parseErr == nil {
		plan, err = p.planRepo.FindByID(ctx, p.db, planID)
		if err != nil {
			return zeroProfile, zeroPlan, zeroPayment, nil, err
		}
		if !plan.IsActive {
			return zeroProfile, zeroPlan, zeroPayment, nil, plandomain.ErrInactive
		}
		errs = append(errs, payment.ValidateForPlan(plan)...)
	}

	if len(errs) > 0 {
		return zeroProfile, zeroPlan, zeroPayment, nil, errs
	}
	return profile, planData, payment, plan, nil
}

func (p *processor) sendVerification(ctx context.Context, draft *domain.OnboardingDraft, tenant *tenantdomain.Tenant) error {
	if tenant.EmailVerifiedAt != nil {
		return nil
	}
	if err := p.repo.UpdateProgress(ctx, p.db, draft, "email", 90, "Preparing verification email..."); err != nil {
		return err
	}
	if err := p.repo.UpdateProgress(ctx, p.db, draft, "email", 95, "Sending verification email..."); err != nil {
		return err
	}
	return p.notifier.SendVerification(ctx, tenant)
}
