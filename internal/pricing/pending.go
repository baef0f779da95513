// Package pricing holds the admin price-edit workflow around the chat
// assistant: pending proposals and post-commit propagation.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quickbite/internal/chat"
)

const pendingKeyPrefix = "pending-price-edit:"

// PendingStore keeps one proposed price edit per admin in Redis. A new
// proposal replaces the previous one.
type PendingStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPendingStore(client *redis.Client, ttl time.Duration) *PendingStore {
	return &PendingStore{client: client, ttl: ttl}
}

func (s *PendingStore) Propose(ctx context.Context, owner string, edit chat.PriceEditRequest) error {
	data, err := json.Marshal(edit)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, pendingKeyPrefix+owner, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store pending edit: %w", err)
	}
	return nil
}

// Take returns and removes the pending edit, or nil when none is pending.
func (s *PendingStore) Take(ctx context.Context, owner string) (*chat.PriceEditRequest, error) {
	raw, err := s.client.GetDel(ctx, pendingKeyPrefix+owner).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("take pending edit: %w", err)
	}

	var edit chat.PriceEditRequest
	if err := json.Unmarshal(raw, &edit); err != nil {
		return nil, fmt.Errorf("decode pending edit: %w", err)
	}
	return &edit, nil
}
