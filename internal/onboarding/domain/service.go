package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists drafts, jobs, and the job progress mirror. Methods
// take the db handle so callers can run them inside a transaction.
type Repository interface {
	GetBySession(ctx context.Context, db *gorm.DB, sessionID string) (*OnboardingDraft, error)
	GetOrCreate(ctx context.Context, db *gorm.DB, sessionID string) (*OnboardingDraft, error)
	SaveStep(ctx context.Context, db *gorm.DB, sessionID, step string, payload map[string]any) (*OnboardingDraft, error)
	GetByJob(ctx context.Context, db *gorm.DB, jobID snowflake.ID) (*OnboardingDraft, error)

	MarkSubmitted(ctx context.Context, db *gorm.DB, draft *OnboardingDraft) (*OnboardingJob, error)
	UpdateProgress(ctx context.Context, db *gorm.DB, draft *OnboardingDraft, step string, progress int, message string) error
	RecordAttemptError(ctx context.Context, db *gorm.DB, jobID snowflake.ID, message string) error
	SetTenant(ctx context.Context, db *gorm.DB, draft *OnboardingDraft, tenantID snowflake.ID) error
	MarkCompleted(ctx context.Context, db *gorm.DB, draft *OnboardingDraft) error
	MarkFailed(ctx context.Context, db *gorm.DB, draft *OnboardingDraft, message string) error

	GetJob(ctx context.Context, db *gorm.DB, jobID snowflake.ID) (*OnboardingJob, error)
	ClaimDueJobs(ctx context.Context, db *gorm.DB, limit int) ([]OnboardingJob, error)
	RescheduleJob(ctx context.Context, db *gorm.DB, job *OnboardingJob, lastError string, backoff time.Duration) error
	CompleteJob(ctx context.Context, db *gorm.DB, job *OnboardingJob) error
	FailJob(ctx context.Context, db *gorm.DB, job *OnboardingJob, lastError string) error

	SweepStale(ctx context.Context, db *gorm.DB, olderThan time.Duration) (int64, error)
	PruneCompleted(ctx context.Context, db *gorm.DB, olderThan time.Duration) (int64, error)
}

// SubmitResult is returned to the client after queueing the setup job.
type SubmitResult struct {
	JobID  snowflake.ID `json:"job_id"`
	Status DraftStatus  `json:"status"`
}

// StatusResult is the polled view of a running or finished setup job.
type StatusResult struct {
	JobID        snowflake.ID `json:"job_id"`
	Status       DraftStatus  `json:"status"`
	Progress     int          `json:"progress"`
	Message      string       `json:"message"`
	CurrentStep  string       `json:"current_step,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	TenantID     *snowflake.ID `json:"tenant_id,omitempty"`
	Subdomain    string       `json:"subdomain,omitempty"`
}

// Service is the HTTP-facing onboarding API: draft reads, step saves,
// submission, and job status polling.
type Service interface {
	Get(ctx context.Context, sessionID string) (*OnboardingDraft, error)
	SaveStep(ctx context.Context, sessionID, step string, payload map[string]any) (*OnboardingDraft, error)
	Submit(ctx context.Context, sessionID string) (*SubmitResult, error)
	Status(ctx context.Context, sessionID string, jobID snowflake.ID) (*StatusResult, error)
}

// Processor runs one queued setup job to completion or error. It is invoked
// by the worker, never by request handlers.
type Processor interface {
	Run(ctx context.Context, job *OnboardingJob) error
}
