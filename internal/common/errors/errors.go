// Package errors provides the structured error taxonomy shared by the chat
// assistant, the HTTP API and the workflow workers.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode is a stable, machine-readable error code.
type ErrorCode string

const (
	// Chat taxonomy.
	ErrCodeInputParseFailure   ErrorCode = "INPUT_PARSE_FAILURE"
	ErrCodeLookupMiss          ErrorCode = "LOOKUP_MISS"
	ErrCodePersistenceFailure  ErrorCode = "PERSISTENCE_FAILURE"
	ErrCodeAuthorizationDenied ErrorCode = "AUTHORIZATION_DENIED"
	ErrCodePriceEditMismatch   ErrorCode = "PRICE_EDIT_MISMATCH"

	// External collaborators.
	ErrCodeVisionAPIFailed  ErrorCode = "VISION_API_FAILED"
	ErrCodeVisionAPITimeout ErrorCode = "VISION_API_TIMEOUT"
	ErrCodeStorageFailed    ErrorCode = "STORAGE_UPLOAD_FAILED"
	ErrCodeNotifyFailed     ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeSearchFailed     ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeWorkflowEngine   ErrorCode = "WORKFLOW_ENGINE_FAILED"

	// Cart and checkout.
	ErrCodeCartUnavailable ErrorCode = "CART_UNAVAILABLE"
	ErrCodeEmptyCart       ErrorCode = "EMPTY_CART"
	ErrCodeCheckoutFailed  ErrorCode = "CHECKOUT_FAILED"

	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
)

// StandardError is a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns e after attaching a metadata key.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Workflow Job Errors
// ==========================

// JobError is an error thrown to the Zeebe workflow engine.
type JobError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *JobError) Error() string {
	return fmt.Sprintf("JobError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the variables attached to a failed or thrown job.
func (e *JobError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func detailsOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewInputParseFailureError reports a message that could not be interpreted.
func NewInputParseFailureError(details string) *StandardError {
	return newError(ErrCodeInputParseFailure, "Could not understand the request", details, false, nil)
}

func NewLookupMissError(itemName string) *StandardError {
	return newError(ErrCodeLookupMiss, "Menu item not found", itemName, false, nil).
		WithMetadata("itemName", itemName)
}

// NewPersistenceFailureError wraps a storage failure; these are retryable.
func NewPersistenceFailureError(operation string, err error) *StandardError {
	return newError(ErrCodePersistenceFailure, "Storage operation failed: "+operation, detailsOf(err), true, err).
		WithMetadata("operation", operation)
}

func NewAuthorizationDeniedError(role, action string) *StandardError {
	return newError(ErrCodeAuthorizationDenied, "Not permitted", fmt.Sprintf("role %s may not %s", role, action), false, nil).
		WithMetadata("role", role)
}

func NewPriceEditMismatchError(details string) *StandardError {
	return newError(ErrCodePriceEditMismatch, "Price edit does not match the pending proposal", details, false, nil)
}

func NewVisionAPIFailedError(err error) *StandardError {
	return newError(ErrCodeVisionAPIFailed, "Image recognition failed", detailsOf(err), true, err)
}

func NewVisionAPITimeoutError() *StandardError {
	return newError(ErrCodeVisionAPITimeout, "Image recognition timed out", "", true, nil)
}

func NewStorageFailedError(err error) *StandardError {
	return newError(ErrCodeStorageFailed, "Image upload failed", detailsOf(err), true, err)
}

func NewNotificationFailedError(event string, err error) *StandardError {
	return newError(ErrCodeNotifyFailed, "Failed to publish "+event, detailsOf(err), true, err)
}

func NewSearchFailedError(err error) *StandardError {
	return newError(ErrCodeSearchFailed, "Menu search failed", detailsOf(err), true, err)
}

// NewWorkflowEngineError reports a failed Zeebe gateway call.
func NewWorkflowEngineError(operation string, err error, retryable bool) *StandardError {
	return newError(ErrCodeWorkflowEngine, "Workflow engine call failed: "+operation, detailsOf(err), retryable, err).
		WithMetadata("operation", operation)
}

func NewCartUnavailableError(err error) *StandardError {
	return newError(ErrCodeCartUnavailable, "Cart is unavailable", detailsOf(err), true, err)
}

func NewEmptyCartError() *StandardError {
	return newError(ErrCodeEmptyCart, "Cart is empty", "", false, nil)
}

func NewCheckoutFailedError(err error) *StandardError {
	return newError(ErrCodeCheckoutFailed, "Checkout failed", detailsOf(err), true, err)
}

func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Invalid request", details, false, nil)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", detailsOf(err), false, err)
}

// ==========================
// 4. Conversion
// ==========================

// GetRetryCount returns the recommended retry budget for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePersistenceFailure,
		ErrCodeVisionAPIFailed,
		ErrCodeStorageFailed,
		ErrCodeNotifyFailed,
		ErrCodeCartUnavailable,
		ErrCodeCheckoutFailed:
		return 3

	case ErrCodeVisionAPITimeout,
		ErrCodeSearchFailed:
		return 2

	default:
		return 0
	}
}

// ConvertToJobError converts a StandardError for the workflow engine.
func ConvertToJobError(stdErr *StandardError) *JobError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}
	return &JobError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// AsStandardError extracts a StandardError from err, wrapping unknown errors
// as INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// CodeOf returns the code carried by err, or "" when err carries none.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logging and metrics.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeInputParseFailure || code == ErrCodeInvalidRequest:
		return "INPUT"
	case code == ErrCodeLookupMiss:
		return "LOOKUP"
	case code == ErrCodePersistenceFailure || strings.HasPrefix(codeStr, "CART") || code == ErrCodeCheckoutFailed:
		return "PERSISTENCE"
	case code == ErrCodeAuthorizationDenied || code == ErrCodePriceEditMismatch:
		return "AUTHORIZATION"
	case strings.HasPrefix(codeStr, "VISION"):
		return "VISION"
	case code == ErrCodeStorageFailed || code == ErrCodeNotifyFailed || code == ErrCodeSearchFailed ||
		code == ErrCodeWorkflowEngine:
		return "INTEGRATION"
	default:
		return "OTHER"
	}
}
