// internal/common/camunda/retry.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "quickbite/internal/common/errors"
)

// Backoff bounds how often a gateway command is resent.
type Backoff struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultBackoff = &Backoff{
	MaxRetries: 3,
	BaseDelay:  500 * time.Millisecond,
	MaxDelay:   5 * time.Second,
}

func (b *Backoff) delay(attempt int) time.Duration {
	d := b.BaseDelay << attempt
	if b.MaxDelay > 0 && (d <= 0 || d > b.MaxDelay) {
		return b.MaxDelay
	}
	return d
}

// Send runs a gateway command, resending it while the failure looks like a
// dropped connection. Anything else is returned at once as a workflow engine
// error tagged with the operation name.
func Send[T any](ctx context.Context, b *Backoff, operation string, send func(context.Context) (T, error)) (T, error) {
	if b == nil {
		b = DefaultBackoff
	}

	var zero T
	for attempt := 0; ; attempt++ {
		res, err := send(ctx)
		if err == nil {
			return res, nil
		}

		transient := isTransient(err)
		if !transient || attempt >= b.MaxRetries {
			return zero, apperrors.NewWorkflowEngineError(operation,
				fmt.Errorf("%s failed after %d attempt(s): %w", operation, attempt+1, err), transient)
		}

		select {
		case <-time.After(b.delay(attempt)):
		case <-ctx.Done():
			return zero, apperrors.NewWorkflowEngineError(operation, ctx.Err(), true)
		}
	}
}

var transientPhrases = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"deadline exceeded",
	"timeout",
	"unavailable",
	"unreachable",
}

func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, p := range transientPhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
