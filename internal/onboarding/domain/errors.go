package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

var (
	// ErrNotFound is returned when no draft exists for a session.
	ErrNotFound = errors.New("onboarding draft not found")
	// ErrDraftNotEditable is returned when a step save targets a draft
	// that has already been submitted.
	ErrDraftNotEditable = errors.New("draft is no longer editable")
	// ErrForbidden is returned when a session polls a job it does not own.
	ErrForbidden = errors.New("job does not belong to this session")
	// ErrJobNotFound is returned when status is polled for an unknown job.
	ErrJobNotFound = errors.New("onboarding job not found")
	// ErrUnknownStep is returned for a save targeting an unknown step name.
	ErrUnknownStep = errors.New("unknown onboarding step")
)

// AlreadyProcessingError reports a resubmission of a draft whose job is
// already queued or running. Callers surface the existing job instead of
// creating a second one.
type AlreadyProcessingError struct {
	JobID snowflake.ID
}

func (e *AlreadyProcessingError) Error() string {
	return fmt.Sprintf("onboarding already in progress (job %s)", e.JobID)
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationErrors aggregates field errors so a save or submit can report
// everything wrong at once.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationErrors unwraps err into ValidationErrors if possible.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
