package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/logger"
)

func createTestClient(t *testing.T, url string, timeout time.Duration, retries int) *Client {
	return NewClient(Config{BaseURL: url, APIKey: "secret", Timeout: timeout, MaxRetries: retries},
		logger.NewZapAdapter(zaptest.NewLogger(t)))
}

func TestClient_Tags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/tags", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req tagsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://cdn/img.png", req.ImageRef)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tags":["burger"," cheese ",""]}`))
	}))
	defer server.Close()

	c := createTestClient(t, server.URL+"/", time.Second, 0)
	tags, err := c.Tags(context.Background(), "https://cdn/img.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"burger", "cheese"}, tags)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"tags":["pizza"]}`))
	}))
	defer server.Close()

	c := createTestClient(t, server.URL, time.Second, 2)
	tags, err := c.Tags(context.Background(), "ref")
	require.NoError(t, err)
	assert.Equal(t, []string{"pizza"}, tags)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		timeout  time.Duration
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "bad request",
			handler:  func(w http.ResponseWriter, r *http.Request) { http.Error(w, "bad image", http.StatusBadRequest) },
			timeout:  time.Second,
			wantCode: apperrors.ErrCodeVisionAPIFailed,
		},
		{
			name:     "malformed body",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`tags`)) },
			timeout:  time.Second,
			wantCode: apperrors.ErrCodeVisionAPIFailed,
		},
		{
			name: "slow upstream",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
				w.Write([]byte(`{"tags":[]}`))
			},
			timeout:  30 * time.Millisecond,
			wantCode: apperrors.ErrCodeVisionAPITimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			c := createTestClient(t, server.URL, tt.timeout, 0)
			_, err := c.Tags(context.Background(), "ref")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
		})
	}
}
