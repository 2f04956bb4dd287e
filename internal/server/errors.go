package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	onboardingdomain "github.com/smallbiznis/scholaris/internal/onboarding/domain"
	paymentdomain "github.com/smallbiznis/scholaris/internal/payment/domain"
	plandomain "github.com/smallbiznis/scholaris/internal/plan/domain"
	tenantdomain "github.com/smallbiznis/scholaris/internal/tenant/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string                             `json:"type"`
	Message string                             `json:"message"`
	Errors  []onboardingdomain.ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrTooManyRequest = errors.New("too_many_requests")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return onboardingdomain.ValidationErrors{
		{Field: "request", Code: "invalid_request", Message: "invalid request"},
	}
}

func mapError(err error) (int, errorPayload) {
	if vErrs, ok := onboardingdomain.AsValidationErrors(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErrs,
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, onboardingdomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrTooManyRequest):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "too many requests, slow down",
		}
	case errors.Is(err, onboardingdomain.ErrDraftNotEditable):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "draft has already been submitted",
		}
	case errors.Is(err, paymentdomain.ErrNotSuccessful),
		errors.Is(err, paymentdomain.ErrAmountMismatch),
		errors.Is(err, paymentdomain.ErrCurrencyMismatch),
		errors.Is(err, paymentdomain.ErrVerificationFailed):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "payment_error",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, onboardingdomain.ErrUnknownStep):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "unknown onboarding step",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, onboardingdomain.ErrNotFound),
		errors.Is(err, onboardingdomain.ErrJobNotFound),
		errors.Is(err, plandomain.ErrNotFound),
		errors.Is(err, tenantdomain.ErrTenantNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
