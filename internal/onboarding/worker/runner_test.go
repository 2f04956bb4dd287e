package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scholaris/internal/config"
	"github.com/smallbiznis/scholaris/internal/onboarding/domain"
	"github.com/smallbiznis/scholaris/internal/onboarding/repository"
	dbpkg "github.com/smallbiznis/scholaris/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeProcessor struct {
	err   error
	calls int
}

func (f *fakeProcessor) Run(ctx context.Context, job *domain.OnboardingJob) error {
	_ = ctx
	_ = job
	f.calls++
	return f.err
}

func newRunnerTest(t *testing.T, processor domain.Processor) (*gorm.DB, domain.Repository, *Runner) {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	err = db.AutoMigrate(
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

	cfg := config.Config{
		Onboarding: config.OnboardingConfig{
			JobMaxAttempts: 3,
			JobBackoff:     10 * time.Second,
			JobTimeout:     time.Minute,
			PollInterval:   time.Second,
		},
	}
	return db, repo, NewRunner(db, repo, processor, cfg, zap.NewNop())
}

func submitJob(t *testing.T, db *gorm.DB, repo domain.Repository, sessionID string) *domain.OnboardingJob {
	t.Helper()
	ctx := context.Background()

	draft, err := repo.GetOrCreate(ctx, db, sessionID)
	if err != nil {
		t.Fatalf("get or create failed: %v", err)
	}
	job, err := repo.MarkSubmitted(ctx, db, draft)
	if err != nil {
		t.Fatalf("mark submitted failed: %v", err)
	}
	return job
}

func TestProcessDueCompletesJob(t *testing.T) {
	processor := &fakeProcessor{}
	db, repo, runner := newRunnerTest(t, processor)
	job := submitJob(t, db, repo, "session-a")

	if err := runner.ProcessDue(context.Background()); err != nil {
		t.Fatalf("process due failed: %v", err)
	}
	if processor.calls != 1 {
		t.Fatalf("expected 1 processor call, got %d", processor.calls)
	}

	var stored domain.OnboardingJob
	if err := db.First(&stored, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("failed to load job: %v", err)
	}
	if stored.Status != domain.JobStatusCompleted {
		t.Fatalf("expected completed job, got %s", stored.Status)
	}
}

func TestProcessDueReschedulesFailedAttempt(t *testing.T) {
	processor := &fakeProcessor{err: errors.New("gateway unreachable")}
	db, repo, runner := newRunnerTest(t, processor)
	job := submitJob(t, db, repo, "session-a")

	before := time.Now().UTC()
	if err := runner.ProcessDue(context.Background()); err != nil {
		t.Fatalf("process due failed: %v", err)
	}

	var stored domain.OnboardingJob
	if err := db.First(&stored, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("failed to load job: %v", err)
	}
	if stored.Status != domain.JobStatusPending {
		t.Fatalf("expected job back to pending, got %s", stored.Status)
	}
	if stored.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", stored.Attempts)
	}
	if stored.LastError != "gateway unreachable" {
		t.Fatalf("unexpected last error %q", stored.LastError)
	}
	if stored.RunAfter.Before(before.Add(9 * time.Second)) {
		t.Fatalf("expected backoff on run_after, got %s", stored.RunAfter)
	}

	// The attempt's error is mirrored onto the draft so support can see
	// why the job is retrying; the draft itself stays processing.
	var draft domain.OnboardingDraft
	if err := db.First(&draft, "job_id = ?", job.ID).Error; err != nil {
		t.Fatalf("failed to load draft: %v", err)
	}
	if draft.Status != domain.DraftStatusProcessing {
		t.Fatalf("expected draft still processing, got %s", draft.Status)
	}
	if draft.ErrorMessage != "gateway unreachable" {
		t.Fatalf("unexpected draft error %q", draft.ErrorMessage)
	}
}

func TestProcessDueDeadLettersAfterMaxAttempts(t *testing.T) {
	processor := &fakeProcessor{err: errors.New("gateway unreachable")}
	db, repo, runner := newRunnerTest(t, processor)
	job := submitJob(t, db, repo, "session-a")

	// Two attempts already burned; the claim makes it the third and last.
	err := db.Model(&domain.OnboardingJob{}).
		Where("id = ?", job.ID).
		UpdateColumn("attempts", 2).Error
	if err != nil {
		t.Fatalf("failed to set attempts: %v", err)
	}

	if err := runner.ProcessDue(context.Background()); err != nil {
		t.Fatalf("process due failed: %v", err)
	}

	var stored domain.OnboardingJob
	if err := db.First(&stored, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("failed to load job: %v", err)
	}
	if stored.Status != domain.JobStatusFailed {
		t.Fatalf("expected failed job, got %s", stored.Status)
	}

	var draft domain.OnboardingDraft
	if err := db.First(&draft, "job_id = ?", job.ID).Error; err != nil {
		t.Fatalf("failed to load draft: %v", err)
	}
	if draft.Status != domain.DraftStatusFailed {
		t.Fatalf("expected failed draft, got %s", draft.Status)
	}
	if !strings.HasPrefix(draft.ErrorMessage, "Setup failed after multiple attempts.") {
		t.Fatalf("unexpected dead-letter message %q", draft.ErrorMessage)
	}
	if !strings.Contains(draft.ErrorMessage, "gateway unreachable") {
		t.Fatalf("expected cause in message, got %q", draft.ErrorMessage)
	}
}

func TestProcessDueWithNothingDue(t *testing.T) {
	processor := &fakeProcessor{}
	_, _, runner := newRunnerTest(t, processor)

	if err := runner.ProcessDue(context.Background()); err != nil {
		t.Fatalf("process due failed: %v", err)
	}
	if processor.calls != 0 {
		t.Fatalf("expected no processor calls, got %d", processor.calls)
	}
}
