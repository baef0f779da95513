package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/metrics"
	"quickbite/internal/models"
)

const sessionKey = "session"

func (s *Server) withTimeout() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.RequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// withSession resolves the session cookie, issuing a Guest session when it
// is missing or unknown.
func (s *Server) withSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(s.config.CookieName)
		sess, created, err := s.deps.Sessions.Resolve(c.Request.Context(), id)
		if err != nil {
			s.abortWithError(c, apperrors.NewPersistenceFailureError("resolve session", err))
			return
		}
		if created {
			s.setSessionCookie(c, sess.ID)
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func (s *Server) requireMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		if !sess.Role.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "please log in first",
				"code":  apperrors.ErrCodeAuthorizationDenied,
			})
			return
		}
		c.Next()
	}
}

func (s *Server) setSessionCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.config.CookieName, id, int(s.deps.Sessions.TTL().Seconds()), "/", "", s.config.SecureCookies, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.config.CookieName, "", -1, "/", "", s.config.SecureCookies, true)
}

func currentSession(c *gin.Context) *models.Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(*models.Session); ok {
			return sess
		}
	}
	return &models.Session{Role: models.RoleGuest}
}

func (s *Server) requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"durationMs": time.Since(start).Milliseconds(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Warn("http request failed", fields)
			return
		}
		s.logger.Debug("http request", fields)
	}
}

func (s *Server) recoverPanic(c *gin.Context, recovered interface{}) {
	s.logger.Error("panic serving request", map[string]interface{}{
		"path":  c.Request.URL.Path,
		"panic": recovered,
	})
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": "unexpected error",
		"code":  apperrors.ErrCodeInternal,
	})
}
