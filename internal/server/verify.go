package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// VerifyEmail confirms a tenant owner's email from the signed link in the
// verification mail. Idempotent: a second click reports already verified.
func (s *Server) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	expires := c.Query("expires")
	sig := c.Query("sig")
	if token == "" || expires == "" || sig == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	if !s.notifier.VerifySignature(token, expires, sig) {
		AbortWithError(c, ErrForbidden)
		return
	}

	tenant, err := s.tenantRepo.FindByVerificationToken(c.Request.Context(), s.db, token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if tenant.EmailVerifiedAt != nil {
		c.JSON(http.StatusOK, gin.H{"status": "already_verified"})
		return
	}

	if err := s.tenantRepo.MarkEmailVerified(c.Request.Context(), s.db, tenant.ID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "verified"})
}
