package confirmpriceedit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickbite/internal/chat"
	"quickbite/internal/chat/chattest"
	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/logger"
)

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second, MaxRetries: 2}
}

func newTestHandler(t *testing.T) (*Handler, *chattest.Fixture) {
	t.Helper()
	log := logger.NewTestLogger(t)
	fx := chattest.NewFixture(log)
	return NewHandler(createTestConfig(), fx.Assistant, log), fx
}

func TestExecute_CommitsPendingEdit(t *testing.T) {
	h, fx := newTestHandler(t)
	require.NoError(t, fx.Pending.Propose(context.Background(), "root",
		chat.PriceEditRequest{ItemName: "Iced Tea", NewPrice: 5.25}))

	out, err := h.Execute(context.Background(), &Input{
		Role: "admin", UserIdentifier: "root", ItemName: "Iced Tea", NewPrice: 5.25,
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.Replies)
	assert.Contains(t, out.Replies[0], "Done!")
	assert.Equal(t, 5.25, fx.Catalog.Price("Iced Tea"))
}

func TestExecute_RefusesWithoutCommitting(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		pending   *chat.PriceEditRequest
		newPrice  float64
		wantReply string
	}{
		{
			name:      "member",
			role:      "member",
			pending:   &chat.PriceEditRequest{ItemName: "Iced Tea", NewPrice: 5.25},
			newPrice:  5.25,
			wantReply: "only administrators",
		},
		{
			name:      "nothing proposed",
			role:      "admin",
			newPrice:  5.25,
			wantReply: "doesn't match",
		},
		{
			name:      "different price",
			role:      "admin",
			pending:   &chat.PriceEditRequest{ItemName: "Iced Tea", NewPrice: 5.25},
			newPrice:  9.99,
			wantReply: "doesn't match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, fx := newTestHandler(t)
			if tt.pending != nil {
				require.NoError(t, fx.Pending.Propose(context.Background(), "root", *tt.pending))
			}

			out, err := h.Execute(context.Background(), &Input{
				Role: tt.role, UserIdentifier: "root", ItemName: "Iced Tea", NewPrice: tt.newPrice,
			})
			require.NoError(t, err)
			require.NotEmpty(t, out.Replies)
			assert.Contains(t, out.Replies[0], tt.wantReply)
			assert.Equal(t, 4.5, fx.Catalog.Price("Iced Tea"))
		})
	}
}

func TestExecute_InvalidInput(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, input := range []Input{
		{Role: "admin", ItemName: "Iced Tea", NewPrice: 5},
		{Role: "admin", UserIdentifier: "root", NewPrice: 5},
	} {
		_, err := h.Execute(context.Background(), &input)
		assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))
	}
}
