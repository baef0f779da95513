package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickbite/internal/common/config"
)

func TestObservability(t *testing.T) {
	// Tracing is requested without an endpoint: the tracer provider is
	// skipped but metrics still work.
	o, err := New("quickbite-test", "test", config.TracingConfig{Enabled: true})
	require.Error(t, err)
	require.NotNil(t, o)

	ctx, span := o.StartSpan(context.Background(), "test.span")
	assert.NotNil(t, ctx)
	span.End()

	assert.NotPanics(t, func() {
		o.RecordJobProcessed(ctx, "handle-chat-message", "completed")
		o.RecordJobDuration(ctx, "handle-chat-message", 25*time.Millisecond, "completed")
		o.RecordTurn(ctx, "http", "handle-message")
	})
	assert.NoError(t, o.Shutdown(context.Background()))
}

func TestNewTracerProvider(t *testing.T) {
	tp, err := newTracerProvider("svc", "v1", config.TracingConfig{
		Enabled:        true,
		JaegerEndpoint: "http://localhost:14268/api/traces",
		SampleRatio:    5,
	})
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.NoError(t, tp.Shutdown(context.Background()))
}
