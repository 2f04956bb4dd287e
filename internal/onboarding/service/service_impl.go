package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scholaris/internal/onboarding/domain"
	plandomain "github.com/smallbiznis/scholaris/internal/plan/domain"
	tenantdomain "github.com/smallbiznis/scholaris/internal/tenant/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	db         *gorm.DB
	repo       domain.Repository
	planRepo   plandomain.Repository
	tenantRepo tenantdomain.Repository
	log        *zap.Logger
}

// NewService builds the HTTP-facing onboarding service.
func NewService(db *gorm.DB, repo domain.Repository, planRepo plandomain.Repository, tenantRepo tenantdomain.Repository, log *zap.Logger) domain.Service {
	return &service{
		db:         db,
		repo:       repo,
		planRepo:   planRepo,
		tenantRepo: tenantRepo,
		log:        log.Named("onboarding"),
	}
}

func (s *service) Get(ctx context.Context, sessionID string) (*domain.OnboardingDraft, error) {
	return s.repo.GetOrCreate(ctx, s.db, sessionID)
}

// SaveStep validates and merges one wizard step. Validation here catches
// mistakes early; everything is re-validated at submission.
func (s *service) SaveStep(ctx context.Context, sessionID, step string, payload map[string]any) (*domain.OnboardingDraft, error) {
	if err := s.validateStep(ctx, step, payload); err != nil {
		return nil, err
	}
	return s.repo.SaveStep(ctx, s.db, sessionID, step, payload)
}

func (s *service) validateStep(ctx context.Context, step string, payload map[string]any) error {
	switch step {
	case domain.StepProfile:
		data, err := domain.DecodeProfile(payload)
		if err != nil {
			return domain.ValidationErrors{{Field: "profile", Code: "invalid", Message: "Profile payload is malformed"}}
		}
		if errs := data.Validate(); len(errs) > 0 {
			return errs
		}
	case domain.StepPlan:
		data, err := domain.DecodePlan(payload)
		if err != nil {
			return domain.ValidationErrors{{Field: "plan", Code: "invalid", Message: "Plan payload is malformed"}}
		}
		if errs := data.Validate(); len(errs) > 0 {
			return errs
		}
		if errs := s.checkPlan(ctx, data); len(errs) > 0 {
			return errs
		}
	case domain.StepPayment:
		if _, err := domain.DecodePayment(payload); err != nil {
			return domain.ValidationErrors{{Field: "payment", Code: "invalid", Message: "Payment payload is malformed"}}
		}
	default:
		return domain.ErrUnknownStep
	}
	return nil
}

func (s *service) checkPlan(ctx context.Context, data domain.PlanData) domain.ValidationErrors {
	planID, err := data.ParsePlanID()
	if err != nil {
		return domain.ValidationErrors{{Field: "plan_id", Code: "invalid", Message: "Plan identifier is invalid"}}
	}
	plan, err := s.planRepo.FindByID(ctx, s.db, planID)
	if errors.Is(err, plandomain.ErrNotFound) {
		return domain.ValidationErrors{{Field: "plan_id", Code: "not_found", Message: "Selected plan does not exist"}}
	}
	if err != nil {
		s.log.Error("plan lookup failed", zap.Error(err))
		return domain.ValidationErrors{{Field: "plan_id", Code: "unavailable", Message: "Plan could not be verified, try again"}}
	}
	if !plan.IsActive {
		return domain.ValidationErrors{{Field: "plan_id", Code: "inactive", Message: "Selected plan is no longer available"}}
	}
	return nil
}

// Submit runs final validation over the accumulated draft and queues the
// setup job. Resubmitting while a job is queued or running returns the
// existing job instead of creating another.
func (s *service) Submit(ctx context.Context, sessionID string) (*domain.SubmitResult, error) {
	draft, err := s.repo.GetBySession(ctx, s.db, sessionID)
	if err != nil {
		return nil, err
	}

	switch draft.Status {
	case domain.DraftStatusProcessing, domain.DraftStatusCompleted:
		if draft.JobID != nil {
			return &domain.SubmitResult{JobID: *draft.JobID, Status: draft.Status}, nil
		}
	}

	if err := s.validateFinal(ctx, draft); err != nil {
		return nil, err
	}

	var job *domain.OnboardingJob
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err = s.repo.MarkSubmitted(ctx, tx, draft)
		return err
	})
	if err != nil {
		// A concurrent submit won the claim; its job is the answer.
		var already *domain.AlreadyProcessingError
		if errors.As(err, &already) {
			return &domain.SubmitResult{JobID: already.JobID, Status: domain.DraftStatusProcessing}, nil
		}
		return nil, err
	}

	s.log.Info("onboarding submitted",
		zap.String("session_id", sessionID),
		zap.String("job_id", job.ID.String()),
	)
	return &domain.SubmitResult{JobID: job.ID, Status: domain.DraftStatusProcessing}, nil
}

// validateFinal re-checks the whole draft: steps may have been saved in any
// order, and the chosen plan may have been retired since the plan step.
func (s *service) validateFinal(ctx context.Context, draft *domain.OnboardingDraft) error {
	var errs domain.ValidationErrors

	profile, err := domain.DecodeProfile(draft.Profile)
	if err != nil {
		errs = append(errs, domain.ValidationError{Field: "profile", Code: "invalid", Message: "Profile payload is malformed"})
	} else {
		errs = append(errs, profile.Validate()...)
	}

	planData, err := domain.DecodePlan(draft.Plan)
	if err != nil {
		errs = append(errs, domain.ValidationError{Field: "plan", Code: "invalid", Message: "Plan payload is malformed"})
	} else if stepErrs := planData.Validate(); len(stepErrs) > 0 {
		errs = append(errs, stepErrs...)
	} else if planErrs := s.checkPlan(ctx, planData); len(planErrs) > 0 {
		errs = append(errs, planErrs...)
	} else {
		planID, _ := planData.ParsePlanID()
		plan, lookupErr := s.planRepo.FindByID(ctx, s.db, planID)
		if lookupErr == nil {
			payment, decodeErr := domain.DecodePayment(draft.Payment)
			if decodeErr != nil {
				errs = append(errs, domain.ValidationError{Field: "payment", Code: "invalid", Message: "Payment payload is malformed"})
			} else {
				errs = append(errs, payment.ValidateForPlan(plan)...)
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Status reports job progress to the owning session only.
func (s *service) Status(ctx context.Context, sessionID string, jobID snowflake.ID) (*domain.StatusResult, error) {
	draft, err := s.repo.GetByJob(ctx, s.db, jobID)
	if err != nil {
		return nil, err
	}
	if draft.SessionID != sessionID {
		return nil, domain.ErrForbidden
	}

	result := &domain.StatusResult{
		JobID:        jobID,
		Status:       draft.Status,
		Progress:     draft.Progress,
		Message:      draft.Message,
		CurrentStep:  draft.CurrentStep,
		ErrorMessage: draft.ErrorMessage,
		TenantID:     draft.TenantID,
	}

	if draft.Status == domain.DraftStatusCompleted && draft.TenantID != nil {
		tenant, err := s.tenantRepo.FindByID(ctx, s.db, *draft.TenantID)
		if err == nil {
			result.Subdomain = strings.TrimSpace(tenant.Subdomain)
		}
	}
	return result, nil
}
