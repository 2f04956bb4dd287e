package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scholaris/internal/onboarding/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct {
	genID *snowflake.Node
}

// Provide builds the onboarding repository.
func Provide(genID *snowflake.Node) domain.Repository {
	return &repo{genID: genID}
}

func (r *repo) GetBySession(ctx context.Context, db *gorm.DB, sessionID string) (*domain.OnboardingDraft, error) {
	var draft domain.OnboardingDraft
	err := db.WithContext(ctx).Where("session_id = ?", sessionID).First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *repo) GetOrCreate(ctx context.Context, db *gorm.DB, sessionID string) (*domain.OnboardingDraft, error) {
	draft, err := r.GetBySession(ctx, db, sessionID)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	draft = &domain.OnboardingDraft{
		ID:        r.genID.Generate(),
		SessionID: sessionID,
		Status:    domain.DraftStatusDraft,
		Profile:   datatypes.JSONMap{},
		Plan:      datatypes.JSONMap{},
		Payment:   datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(draft).Error; err != nil {
		return nil, err
	}
	return draft, nil
}

// SaveStep merges the payload into the step's stored blob. Merging is
// shallow: fields the client resends win, fields it omits survive.
func (r *repo) SaveStep(ctx context.Context, db *gorm.DB, sessionID, step string, payload map[string]any) (*domain.OnboardingDraft, error) {
	draft, err := r.GetOrCreate(ctx, db, sessionID)
	if err != nil {
		return nil, err
	}
	if draft.Status != domain.DraftStatusDraft && draft.Status != domain.DraftStatusFailed {
		return nil, domain.ErrDraftNotEditable
	}

	var target *datatypes.JSONMap
	switch step {
	case domain.StepProfile:
		target = &draft.Profile
	case domain.StepPlan:
		target = &draft.Plan
	case domain.StepPayment:
		target = &draft.Payment
	default:
		return nil, domain.ErrUnknownStep
	}

	if *target == nil {
		*target = datatypes.JSONMap{}
	}
	for k, v := range payload {
		(*target)[k] = v
	}

	draft.CurrentStep = step
	draft.UpdatedAt = time.Now().UTC()
	if draft.Status == domain.DraftStatusFailed {
		// Editing a failed draft re-opens it for another submission.
		draft.Status = domain.DraftStatusDraft
		draft.ErrorMessage = ""
	}
	if err := db.WithContext(ctx).Save(draft).Error; err != nil {
		return nil, err
	}
	return draft, nil
}

func (r *repo) GetByJob(ctx context.Context, db *gorm.DB, jobID snowflake.ID) (*domain.OnboardingDraft, error) {
	var draft domain.OnboardingDraft
	err := db.WithContext(ctx).Where("job_id = ?", jobID).First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// MarkSubmitted claims the draft with a guarded update and queues its job.
// The guard is the single serialization point: when two submits race, the
// loser gets AlreadyProcessingError carrying the winner's job id.
func (r *repo) MarkSubmitted(ctx context.Context, db *gorm.DB, draft *domain.OnboardingDraft) (*domain.OnboardingJob, error) {
	now := time.Now().UTC()
	jobID := r.genID.Generate()

	res := db.WithContext(ctx).Model(&domain.OnboardingDraft{}).
		Where("id = ? AND status IN ?", draft.ID, []domain.DraftStatus{domain.DraftStatusDraft, domain.DraftStatusFailed}).
		Updates(map[string]any{
			"status":        domain.DraftStatusProcessing,
			"job_id":        jobID,
			"progress":      0,
			"message":       "Queued for processing...",
			"error_message": "",
			"updated_at":    now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		current, err := r.GetBySession(ctx, db, draft.SessionID)
		if err != nil {
			return nil, err
		}
		if current.JobID != nil {
			return nil, &domain.AlreadyProcessingError{JobID: *current.JobID}
		}
		return nil, domain.ErrDraftNotEditable
	}

	job := &domain.OnboardingJob{
		ID:        jobID,
		DraftID:   draft.ID,
		Status:    domain.JobStatusPending,
		RunAfter:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}

	progress := &domain.JobProgress{
		ID:        r.genID.Generate(),
		JobID:     job.ID,
		DraftID:   draft.ID,
		Status:    domain.DraftStatusProcessing,
		Progress:  0,
		Message:   "Queued for processing...",
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(progress).Error; err != nil {
		return nil, err
	}

	draft.Status = domain.DraftStatusProcessing
	draft.JobID = &jobID
	draft.Progress = 0
	draft.Message = "Queued for processing..."
	draft.ErrorMessage = ""
	draft.UpdatedAt = now
	return job, nil
}

// UpdateProgress advances the draft's progress. The guard keeps progress
// monotonic: a retried run restarts at an earlier stage than a rolled-back
// attempt reached, and those lower writes are skipped so pollers never see
// progress move backwards.
func (r *repo) UpdateProgress(ctx context.Context, db *gorm.DB, draft *domain.OnboardingDraft, step string, progress int, message string) error {
	now := time.Now().UTC()

	res := db.WithContext(ctx).Model(&domain.OnboardingDraft{}).
		Where("id = ? AND progress <= ?", draft.ID, progress).
		Updates(map[string]any{
			"current_step": step,
			"progress":     progress,
			"message":      message,
			"updated_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	draft.CurrentStep = step
	draft.Progress = progress
	draft.Message = message
	draft.UpdatedAt = now
	return r.mirrorProgress(ctx, db, draft, domain.DraftStatusProcessing, progress, message)
}

// RecordAttemptError notes a failed attempt on a still-processing draft so
// support can see why its job is retrying. Status and progress are untouched.
func (r *repo) RecordAttemptError(ctx context.Context, db *gorm.DB, jobID snowflake.ID, message string) error {
	return db.WithContext(ctx).Model(&domain.OnboardingDraft{}).
		Where("job_id = ? AND status = ?", jobID, domain.DraftStatusProcessing).
		Updates(map[string]any{
			"error_message": message,
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (r *repo) SetTenant(ctx context.Context, db *gorm.DB, draft *domain.OnboardingDraft, tenantID snowflake.ID) error {
	draft.TenantID = &tenantID
	return db.WithContext(ctx).Model(&domain.OnboardingDraft{}).
		Where("id = ?", draft.ID).
		Updates(map[string]any{
			"tenant_id":  tenantID,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repo) MarkCompleted(ctx context.Context, db *gorm.DB, draft *domain.OnboardingDraft) error {
	now := time.Now().UTC()
	draft.Status = domain.DraftStatusCompleted
	draft.Progress = 100
	draft.Message = "Setup complete!"
	draft.CompletedAt = &now

	err := db.WithContext(ctx).Model(&domain.OnboardingDraft{}).
		Where("id = ?", draft.ID).
		Updates(map[string]any{
			"status":       domain.DraftStatusCompleted,
			"progress":     100,
			"message":      "Setup complete!",
			"completed_at": now,
			"updated_at":   now,
		}).Error
	if err != nil {
		return err
	}
	return r.mirrorProgress(ctx, db, draft, domain.DraftStatusCompleted, 100, "Setup complete!")
}

func (r *repo) MarkFailed(ctx context.Context, db *gorm.DB, draft *domain.OnboardingDraft, message string) error {
	now := time.Now().UTC()
	draft.Status = domain.DraftStatusFailed
	draft.ErrorMessage = message
	draft.Message = message

	err := db.WithContext(ctx).Model(&domain.OnboardingDraft{}).
		Where("id = ?", draft.ID).
		Updates(map[string]any{
			"status":        domain.DraftStatusFailed,
			"error_message": message,
			"message":       message,
			"updated_at":    now,
		}).Error
	if err != nil {
		return err
	}
	return r.mirrorProgress(ctx, db, draft, domain.DraftStatusFailed, draft.Progress, message)
}

func (r *repo) mirrorProgress(ctx context.Context, db *gorm.DB, draft *domain.OnboardingDraft, status domain.DraftStatus, progress int, message string) error {
	if draft.JobID == nil {
		return nil
	}
	return db.WithContext(ctx).Model(&domain.JobProgress{}).
		Where("job_id = ?", *draft.JobID).
		Updates(map[string]any{
			"status":     status,
			"progress":   progress,
			"message":    message,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repo) GetJob(ctx context.Context, db *gorm.DB, jobID snowflake.ID) (*domain.OnboardingJob, error) {
	var job domain.OnboardingJob
	err := db.WithContext(ctx).Where("id = ?", jobID).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ClaimDueJobs fetches due pending jobs and flips each to processing with a
// guarded update, so concurrent workers never run the same job twice.
func (r *repo) ClaimDueJobs(ctx context.Context, db *gorm.DB, limit int) ([]domain.OnboardingJob, error) {
	now := time.Now().UTC()

	var due []domain.OnboardingJob
	err := db.WithContext(ctx).
		Where("status = ? AND run_after <= ?", domain.JobStatusPending, now).
		Order("run_after ASC").
		Limit(limit).
		Find(&due).Error
	if err != nil {
		return nil, err
	}

	claimed := make([]domain.OnboardingJob, 0, len(due))
	for _, job := range due {
		res := db.WithContext(ctx).Model(&domain.OnboardingJob{}).
			Where("id = ? AND status = ?", job.ID, domain.JobStatusPending).
			Updates(map[string]any{
				"status":     domain.JobStatusProcessing,
				"attempts":   gorm.Expr("attempts + 1"),
				"updated_at": now,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}
		job.Status = domain.JobStatusProcessing
		job.Attempts++
		claimed = append(claimed, job)
	}
	return claimed, nil
}

func (r *repo) RescheduleJob(ctx context.Context, db *gorm.DB, job *domain.OnboardingJob, lastError string, backoff time.Duration) error {
	now := time.Now().UTC()
	job.Status = domain.JobStatusPending
	job.LastError = lastError
	job.RunAfter = now.Add(backoff)
	return db.WithContext(ctx).Model(&domain.OnboardingJob{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"status":     domain.JobStatusPending,
			"last_error": lastError,
			"run_after":  job.RunAfter,
			"updated_at": now,
		}).Error
}

func (r *repo) CompleteJob(ctx context.Context, db *gorm.DB, job *domain.OnboardingJob) error {
	job.Status = domain.JobStatusCompleted
	return db.WithContext(ctx).Model(&domain.OnboardingJob{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"status":     domain.JobStatusCompleted,
			"last_error": "",
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repo) FailJob(ctx context.Context, db *gorm.DB, job *domain.OnboardingJob, lastError string) error {
	job.Status = domain.JobStatusFailed
	job.LastError = lastError
	return db.WithContext(ctx).Model(&domain.OnboardingJob{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"status":     domain.JobStatusFailed,
			"last_error": lastError,
			"updated_at": time.Now().UTC(),
		}).Error
}

// SweepStale fails processing drafts that have not been touched within
// olderThan. Covers worker crashes that leave drafts stuck mid-run.
func (r *repo) SweepStale(ctx context.Context, db *gorm.DB, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	message := fmt.Sprintf("Job timed out after %d minutes", int(olderThan.Minutes()))

	var stale []domain.OnboardingDraft
	err := db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", domain.DraftStatusProcessing, cutoff).
		Find(&stale).Error
	if err != nil {
		return 0, err
	}

	var swept int64
	for i := range stale {
		draft := &stale[i]
		if err := r.MarkFailed(ctx, db, draft, message); err != nil {
			return swept, err
		}
		if draft.JobID != nil {
			err := db.WithContext(ctx).Model(&domain.OnboardingJob{}).
				Where("id = ? AND status IN ?", *draft.JobID, []domain.JobStatus{domain.JobStatusPending, domain.JobStatusProcessing}).
				Updates(map[string]any{
					"status":     domain.JobStatusFailed,
					"last_error": message,
					"updated_at": time.Now().UTC(),
				}).Error
			if err != nil {
				return swept, err
			}
		}
		swept++
	}
	return swept, nil
}

// PruneCompleted deletes completed drafts older than olderThan along with
// their jobs and progress rows.
func (r *repo) PruneCompleted(ctx context.Context, db *gorm.DB, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	var old []domain.OnboardingDraft
	err := db.WithContext(ctx).
		Where("status = ? AND completed_at < ?", domain.DraftStatusCompleted, cutoff).
		Find(&old).Error
	if err != nil {
		return 0, err
	}

	var pruned int64
	for i := range old {
		draft := old[i]
		if draft.JobID != nil {
			if err := db.WithContext(ctx).Where("job_id = ?", *draft.JobID).Delete(&domain.JobProgress{}).Error; err != nil {
				return pruned, err
			}
		}
		if err := db.WithContext(ctx).Where("draft_id = ?", draft.ID).Delete(&domain.OnboardingJob{}).Error; err != nil {
			return pruned, err
		}
		if err := db.WithContext(ctx).Delete(&domain.OnboardingDraft{}, "id = ?", draft.ID).Error; err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}
