// Package vision calls the external image tagging API.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "quickbite/internal/common/errors"
	httpclient "quickbite/internal/common/http"
	"quickbite/internal/common/logger"
)

const tagsPath = "/v1/tags"

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

type tagsRequest struct {
	ImageRef string `json:"imageRef"`
}

type tagsResponse struct {
	Tags []string `json:"tags"`
}

type Client struct {
	config Config
	http   *httpclient.Client
	logger logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		config: cfg,
		http:   httpclient.NewRetryingClient(cfg.Timeout, cfg.MaxRetries),
		logger: log.With(map[string]interface{}{"component": "vision"}),
	}
}

// Tags returns the labels the tagging API assigns to imageRef. Tags are
// trimmed and empty ones dropped.
func (c *Client) Tags(ctx context.Context, imageRef string) ([]string, error) {
	body, err := json.Marshal(tagsRequest{ImageRef: imageRef})
	if err != nil {
		return nil, apperrors.NewVisionAPIFailedError(err)
	}
	url := strings.TrimRight(c.config.BaseURL, "/") + tagsPath

	start := time.Now()
	resp, err := c.http.DoWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		}
		return req, nil
	})
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, apperrors.NewVisionAPITimeoutError()
		}
		return nil, apperrors.NewVisionAPIFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.NewVisionAPIFailedError(
			fmt.Errorf("tagging API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	var parsed tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewVisionAPIFailedError(fmt.Errorf("decode tags: %w", err))
	}

	tags := make([]string, 0, len(parsed.Tags))
	for _, t := range parsed.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	c.logger.Debug("image tagged", map[string]interface{}{
		"tags":     len(tags),
		"duration": time.Since(start).Milliseconds(),
	})
	return tags, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
