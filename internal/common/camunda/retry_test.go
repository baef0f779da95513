package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "quickbite/internal/common/errors"
)

var fast = &Backoff{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(errors.New("rpc error: code = Unavailable desc = connection refused")))
	assert.True(t, isTransient(errors.New("context deadline exceeded")))
	assert.False(t, isTransient(errors.New("rpc error: code = NotFound desc = job not found")))
}

func TestBackoffDelayIsCapped(t *testing.T) {
	assert.Equal(t, time.Millisecond, fast.delay(0))
	assert.Equal(t, 2*time.Millisecond, fast.delay(1))
	assert.Equal(t, 4*time.Millisecond, fast.delay(5))
	assert.Equal(t, 4*time.Millisecond, fast.delay(80))
}

func TestSend_RecoversFromDroppedConnection(t *testing.T) {
	calls := 0
	res, err := Send(context.Background(), fast, "complete job", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection reset by peer")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, 3, calls)
}

func TestSend_PermanentErrorIsNotRetried(t *testing.T) {
	calls := 0
	_, err := Send(context.Background(), fast, "complete job", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("job not found")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	stdErr := apperrors.AsStandardError(err)
	assert.Equal(t, apperrors.ErrCodeWorkflowEngine, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestSend_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	_, err := Send(context.Background(), &Backoff{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		"fail job", func(context.Context) (bool, error) {
			calls++
			return false, errors.New("gateway unavailable")
		})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	stdErr := apperrors.AsStandardError(err)
	assert.True(t, stdErr.Retryable)
	assert.Equal(t, "fail job", stdErr.Metadata["operation"])
}

func TestSend_StopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Send(ctx, &Backoff{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Second},
		"complete job", func(context.Context) (string, error) {
			calls++
			return "", errors.New("connection refused")
		})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, apperrors.ErrCodeWorkflowEngine, apperrors.CodeOf(err))
}
