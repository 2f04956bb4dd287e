package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sessionHeader     = "X-Onboarding-Session"
	sessionCookie     = "onboarding_session"
	sessionContextKey = "onboarding_session_id"
	sessionCookieAge  = 7 * 24 * 60 * 60
)

// RequestLogger logs one line per request with method, path, status, and
// latency.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// SessionRequired resolves the anonymous wizard session from the header or
// cookie, minting a new one when the client has none. The same session id
// must accompany every wizard call, including status polling.
func (s *Server) SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(sessionHeader)
		if sessionID == "" {
			sessionID, _ = c.Cookie(sessionCookie)
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
			c.SetCookie(sessionCookie, sessionID, sessionCookieAge, "/", "", false, true)
		}
		c.Header(sessionHeader, sessionID)
		c.Set(sessionContextKey, sessionID)
		c.Next()
	}
}

func (s *Server) sessionID(c *gin.Context) string {
	if v, ok := c.Get(sessionContextKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// SubmitRateLimit caps submissions per session.
func (s *Server) SubmitRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "onboarding:submit:" + s.sessionID(c)
		allowed, err := s.limiter.Allow(c.Request.Context(), key, s.cfg.Onboarding.SubmitLimit, s.cfg.Onboarding.SubmitWindow)
		if err != nil {
			s.log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			AbortWithError(c, ErrTooManyRequest)
			return
		}
		c.Next()
	}
}

// StatusRateLimit caps status polling per client IP.
func (s *Server) StatusRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "onboarding:status:" + c.ClientIP()
		allowed, err := s.limiter.Allow(c.Request.Context(), key, s.cfg.Onboarding.StatusLimit, s.cfg.Onboarding.StatusWindow)
		if err != nil {
			s.log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			AbortWithError(c, ErrTooManyRequest)
			return
		}
		c.Next()
	}
}
