// Package worker polls the onboarding job queue and drives the setup
// pipeline with bounded retries.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/scholaris/internal/config"
	"github.com/smallbiznis/scholaris/internal/metrics"
	"github.com/smallbiznis/scholaris/internal/onboarding/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const batchSize = 10

// Runner claims due jobs and runs each through the processor. A failed
// attempt is rescheduled with a fixed backoff; once attempts are exhausted
// the job and its draft are failed for good.
type Runner struct {
	db        *gorm.DB
	repo      domain.Repository
	processor domain.Processor
	cfg       config.OnboardingConfig
	log       *zap.Logger
}

// NewRunner builds the job runner.
func NewRunner(db *gorm.DB, repo domain.Repository, processor domain.Processor, cfg config.Config, log *zap.Logger) *Runner {
	return &Runner{
		db:        db,
		repo:      repo,
		processor: processor,
		cfg:       cfg.Onboarding,
		log:       log.Named("onboarding.worker"),
	}
}

// Start polls for due jobs until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	r.log.Info("worker started",
		zap.Duration("poll_interval", r.cfg.PollInterval),
		zap.Int("max_attempts", r.cfg.JobMaxAttempts),
	)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("worker stopped")
			return
		case <-ticker.C:
			if err := r.ProcessDue(ctx); err != nil {
				r.log.Error("poll failed", zap.Error(err))
			}
		}
	}
}

// ProcessDue claims one batch of due jobs and runs them sequentially.
func (r *Runner) ProcessDue(ctx context.Context) error {
	jobs, err := r.repo.ClaimDueJobs(ctx, r.db, batchSize)
	if err != nil {
		return err
	}
	for i := range jobs {
		r.runOne(ctx, &jobs[i])
	}
	return nil
}

func (r *Runner) runOne(ctx context.Context, job *domain.OnboardingJob) {
	jobCtx, cancel := context.WithTimeout(ctx, r.cfg.JobTimeout)
	err := r.processor.Run(jobCtx, job)
	cancel()

	if err == nil {
		if err := r.repo.CompleteJob(ctx, r.db, job); err != nil {
			r.log.Error("complete job failed", zap.String("job_id", job.ID.String()), zap.Error(err))
			return
		}
		metrics.JobsProcessed.Inc()
		return
	}

	r.log.Warn("job attempt failed",
		zap.String("job_id", job.ID.String()),
		zap.Int("attempt", job.Attempts),
		zap.Error(err),
	)

	if job.Attempts < r.cfg.JobMaxAttempts {
		if rErr := r.repo.RescheduleJob(ctx, r.db, job, err.Error(), r.cfg.JobBackoff); rErr != nil {
			r.log.Error("reschedule failed", zap.String("job_id", job.ID.String()), zap.Error(rErr))
		}
		if rErr := r.repo.RecordAttemptError(ctx, r.db, job.ID, err.Error()); rErr != nil {
			r.log.Error("record attempt error failed", zap.String("job_id", job.ID.String()), zap.Error(rErr))
		}
		metrics.JobsRetried.Inc()
		return
	}

	r.deadLetter(ctx, job, err)
}

func (r *Runner) deadLetter(ctx context.Context, job *domain.OnboardingJob, cause error) {
	if err := r.repo.FailJob(ctx, r.db, job, cause.Error()); err != nil {
		r.log.Error("fail job failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}

	message := fmt.Sprintf("Setup failed after multiple attempts. Please contact support. Error: %s", cause.Error())
	draft, err := r.repo.GetByJob(ctx, r.db, job.ID)
	if err != nil {
		r.log.Error("draft lookup failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}
	if err := r.repo.MarkFailed(ctx, r.db, draft, message); err != nil {
		r.log.Error("mark draft failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}

	metrics.JobsDeadLettered.Inc()
	r.log.Error("job dead-lettered",
		zap.String("job_id", job.ID.String()),
		zap.Int("attempts", job.Attempts),
		zap.Error(cause),
	)
}
