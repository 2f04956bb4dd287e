package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	onboardingdomain "github.com/smallbiznis/scholaris/internal/onboarding/domain"
)

type draftResponse struct {
	Status      onboardingdomain.DraftStatus `json:"status"`
	CurrentStep string                       `json:"current_step,omitempty"`
	Profile     map[string]any               `json:"profile"`
	Plan        map[string]any               `json:"plan"`
	Payment     map[string]any               `json:"payment"`
	JobID       *snowflake.ID                `json:"job_id,omitempty"`
}

func toDraftResponse(draft *onboardingdomain.OnboardingDraft) draftResponse {
	return draftResponse{
		Status:      draft.Status,
		CurrentStep: draft.CurrentStep,
		Profile:     draft.Profile,
		Plan:        draft.Plan,
		Payment:     draft.Payment,
		JobID:       draft.JobID,
	}
}

// GetOnboarding returns the session's draft, creating an empty one on
// first contact, together with the active plan catalog so the wizard can
// render the plan step without a second round trip.
func (s *Server) GetOnboarding(c *gin.Context) {
	draft, err := s.onboardingSvc.Get(c.Request.Context(), s.sessionID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	plans, err := s.planRepo.ListActive(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"draft": toDraftResponse(draft),
		"plans": plans,
	})
}

type saveStepRequest struct {
	Step string         `json:"step"`
	Data map[string]any `json:"data"`
}

// SaveOnboardingStep validates and merges one wizard step payload into the
// session's draft.
func (s *Server) SaveOnboardingStep(c *gin.Context) {
	var req saveStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	draft, err := s.onboardingSvc.SaveStep(c.Request.Context(), s.sessionID(c), req.Step, req.Data)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDraftResponse(draft))
}

// SubmitOnboarding queues the setup job. Resubmitting while one is running
// returns the same job id. Final validation failures come back as 422 with
// field-level messages, unlike per-step saves which respond 400.
func (s *Server) SubmitOnboarding(c *gin.Context) {
	result, err := s.onboardingSvc.Submit(c.Request.Context(), s.sessionID(c))
	if err != nil {
		if vErrs, ok := onboardingdomain.AsValidationErrors(err); ok {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{Error: errorPayload{
				Type:    "validation_error",
				Message: "onboarding is incomplete",
				Errors:  vErrs,
			}})
			return
		}
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

// GetOnboardingStatus reports job progress to the owning session.
func (s *Server) GetOnboardingStatus(c *gin.Context) {
	jobID, err := snowflake.ParseString(c.Param("job_id"))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.onboardingSvc.Status(c.Request.Context(), s.sessionID(c), jobID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
