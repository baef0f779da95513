// internal/workers/chat/handle-image-upload/config.go
package handleimageupload

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
		Timeout:    15 * time.Second,
		MaxRetries: 2,
		Backoff:    camunda.DefaultBackoff,
	}
}
