package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListPlans returns the active plan catalog for the wizard's plan step.
func (s *Server) ListPlans(c *gin.Context) {
	plans, err := s.planRepo.ListActive(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}
