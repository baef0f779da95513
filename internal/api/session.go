package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/validation"
	"quickbite/internal/models"
)

type loginRequest struct {
	UserIdentifier string `json:"userIdentifier"`
	Role           string `json:"role"`
}

// login trusts the identity it is given; authentication happens upstream.
// The Admin role is only granted to configured admin identities.
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !s.bindValidated(c, validation.SchemaSessionLogin, &req) {
		return
	}
	previous := currentSession(c)

	role := models.ParseRole(req.Role)
	if role == models.RoleAdmin && !s.isAdminIdentity(req.UserIdentifier) {
		s.logger.Warn("admin login refused, granting member", map[string]interface{}{
			"userIdentifier": req.UserIdentifier,
		})
		role = models.RoleMember
	}

	sess, err := s.deps.Sessions.Login(c.Request.Context(), previous.ID, req.UserIdentifier, role)
	if err != nil {
		s.abortWithError(c, apperrors.NewInvalidRequestError(err.Error()))
		return
	}
	s.setSessionCookie(c, sess.ID)
	c.JSON(http.StatusOK, sess)
}

func (s *Server) isAdminIdentity(user string) bool {
	user = strings.TrimSpace(user)
	for _, admin := range s.config.AdminIdentities {
		if strings.EqualFold(strings.TrimSpace(admin), user) {
			return true
		}
	}
	return false
}

func (s *Server) logout(c *gin.Context) {
	if err := s.deps.Sessions.Logout(c.Request.Context(), currentSession(c).ID); err != nil {
		s.abortWithError(c, apperrors.NewPersistenceFailureError("logout", err))
		return
	}
	s.clearSessionCookie(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c))
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{}
	status := http.StatusOK
	for _, chk := range s.deps.Readiness {
		if err := chk.Check(ctx); err != nil {
			checks[chk.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[chk.Name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}
