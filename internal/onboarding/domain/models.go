// Package domain contains the onboarding draft, its background job, and the
// step payload contracts for the signup wizard.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// DraftStatus represents lifecycle states for an onboarding draft.
type DraftStatus string

const (
	DraftStatusDraft      DraftStatus = "draft"
	DraftStatusProcessing DraftStatus = "processing"
	DraftStatusCompleted  DraftStatus = "completed"
	DraftStatusFailed     DraftStatus = "failed"
)

// Wizard step names. Steps are saved independently and validated both on
// save and again at submission.
const (
	StepProfile = "profile"
	StepPlan    = "plan"
	StepPayment = "payment"
)

// OnboardingDraft accumulates wizard input across steps for one browser
// session. Step payloads are stored as loose JSON so partial saves never
// lose fields the client sent.
type OnboardingDraft struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	SessionID    string            `gorm:"column:session_id;type:text;not null;uniqueIndex:ux_onboarding_drafts_session" json:"session_id"`
	Status       DraftStatus       `gorm:"type:text;not null;default:draft" json:"status"`
	CurrentStep  string            `gorm:"column:current_step;type:text" json:"current_step"`
	Progress     int               `gorm:"not null;default:0" json:"progress"`
	Message      string            `gorm:"type:text" json:"message"`
	Profile      datatypes.JSONMap `gorm:"type:jsonb" json:"profile"`
	Plan         datatypes.JSONMap `gorm:"type:jsonb" json:"plan"`
	Payment      datatypes.JSONMap `gorm:"type:jsonb" json:"payment"`
	JobID        *snowflake.ID     `gorm:"column:job_id;index" json:"job_id,omitempty"`
	TenantID     *snowflake.ID     `gorm:"column:tenant_id;index" json:"tenant_id,omitempty"`
	ErrorMessage string            `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	CompletedAt  *time.Time        `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (OnboardingDraft) TableName() string { return "onboarding_drafts" }

// JobStatus represents lifecycle states for a queued onboarding job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// OnboardingJob is a durable work item created at submission. Jobs are
// polled by the worker; a failed attempt is rescheduled via RunAfter until
// attempts are exhausted.
type OnboardingJob struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	DraftID   snowflake.ID `gorm:"column:draft_id;not null;index" json:"draft_id"`
	Status    JobStatus    `gorm:"type:text;not null;default:pending;index" json:"status"`
	Attempts  int          `gorm:"not null;default:0" json:"attempts"`
	RunAfter  time.Time    `gorm:"column:run_after;not null;index" json:"run_after"`
	LastError string       `gorm:"column:last_error;type:text" json:"last_error,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (OnboardingJob) TableName() string { return "onboarding_jobs" }

// JobProgress mirrors the draft's progress keyed by job so status polling
// survives draft row contention during the provisioning transaction.
type JobProgress struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	JobID     snowflake.ID `gorm:"column:job_id;not null;uniqueIndex:ux_job_progress_job" json:"job_id"`
	DraftID   snowflake.ID `gorm:"column:draft_id;not null;index" json:"draft_id"`
	Status    DraftStatus  `gorm:"type:text;not null" json:"status"`
	Progress  int          `gorm:"not null;default:0" json:"progress"`
	Message   string       `gorm:"type:text" json:"message"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (JobProgress) TableName() string { return "job_progress" }
