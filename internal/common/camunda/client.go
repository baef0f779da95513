// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client owns the gateway connection shared by every chat worker.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	Retry                  *Backoff
}

// NewClientWithConfig dials the gateway and asks for the topology once so a
// wrong address fails at startup instead of on the first activated job.
func NewClientWithConfig(cfg *ClientConfig) (*Client, error) {
	if cfg.Retry == nil {
		cfg.Retry = DefaultBackoff
	}
	if cfg.ConnectionTimeout <= 0 {
		cfg.ConnectionTimeout = 10 * time.Second
	}

	zc, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.GatewayAddress,
		UsePlaintextConnection: cfg.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("zeebe client: %w", err)
	}

	c := &Client{client: zc, config: cfg}
	if err := c.HealthCheck(context.Background()); err != nil {
		zc.Close()
		return nil, fmt.Errorf("zeebe gateway %s: %w", cfg.GatewayAddress, err)
	}
	return c, nil
}

// GetClient exposes the raw client for job polling.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

// Backoff returns the policy workers should use when completing jobs.
func (c *Client) Backoff() *Backoff {
	return c.config.Retry
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck is the readiness probe for the broker.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe topology: %w", err)
	}
	return nil
}
