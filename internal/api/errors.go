package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/validation"
	"quickbite/internal/models"
)

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeInvalidRequest, apperrors.ErrCodeInputParseFailure:
		return http.StatusBadRequest
	case apperrors.ErrCodeAuthorizationDenied:
		return http.StatusForbidden
	case apperrors.ErrCodeLookupMiss:
		return http.StatusNotFound
	case apperrors.ErrCodePriceEditMismatch:
		return http.StatusConflict
	case apperrors.ErrCodeEmptyCart:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodePersistenceFailure, apperrors.ErrCodeCartUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeVisionAPIFailed, apperrors.ErrCodeVisionAPITimeout,
		apperrors.ErrCodeStorageFailed, apperrors.ErrCodeNotifyFailed,
		apperrors.ErrCodeSearchFailed, apperrors.ErrCodeCheckoutFailed,
		apperrors.ErrCodeWorkflowEngine:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as {"error", "code"}. Unknown errors are logged
// and reported without details.
func (s *Server) abortWithError(c *gin.Context, err error) {
	if errors.Is(err, models.ErrOrderNotFound) || errors.Is(err, models.ErrMenuItemNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found", "code": apperrors.ErrCodeLookupMiss})
		return
	}

	stdErr := apperrors.AsStandardError(err)
	status := statusFor(stdErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"path":  c.Request.URL.Path,
			"code":  string(stdErr.Code),
			"error": err.Error(),
		})
	}
	c.AbortWithStatusJSON(status, gin.H{"error": stdErr.Message, "code": stdErr.Code})
}

func abortInvalid(c *gin.Context, result *validation.ValidationResult) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":  "invalid request",
		"code":   apperrors.ErrCodeInvalidRequest,
		"fields": result.Errors,
	})
}
