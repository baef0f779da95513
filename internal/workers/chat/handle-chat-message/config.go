// internal/workers/chat/handle-chat-message/config.go
package handlechatmessage

import (
	"time"

	"quickbite/internal/common/camunda"
)

type Config struct {
	Timeout    time.Duration
	MaxRetries int
	// Backoff governs resending the completion when the gateway drops.
	Backoff *camunda.Backoff
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    10 * time.Second,
		MaxRetries: 2,
		Backoff:    camunda.DefaultBackoff,
	}
}
