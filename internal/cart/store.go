// Package cart keeps session carts in Redis hashes keyed by menu item id.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quickbite/internal/chat"
	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/logger"
	"quickbite/internal/common/metrics"
	"quickbite/internal/models"
)

const (
	keyPrefix  = "cart:"
	defaultTTL = 24 * time.Hour
	maxTxRetry = 3
)

// storedLine is the hash value for one cart line.
type storedLine struct {
	models.CartLine
	AddedAt int64 `json:"addedAt"`
}

type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time
}

func NewStore(client *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{
		client: client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "cart"}),
		now:    time.Now,
	}
}

// ForSession returns the cart bound to sessionID. No Redis call is made
// until the cart is used.
func (s *Store) ForSession(sessionID string) chat.Cart {
	return &SessionCart{store: s, key: keyPrefix + sessionID}
}

type SessionCart struct {
	store *Store
	key   string
}

// AddToCart increments the quantity of an existing line or appends a new one.
// A non-empty personalization replaces the stored one.
func (c *SessionCart) AddToCart(ctx context.Context, item models.MenuItem, quantity int, personalization string) error {
	if quantity <= 0 {
		return apperrors.NewInvalidRequestError(fmt.Sprintf("quantity must be positive, got %d", quantity))
	}
	field := strconv.FormatInt(item.ID, 10)

	txf := func(tx *redis.Tx) error {
		line := storedLine{
			CartLine: models.CartLine{
				MenuItemID:      item.ID,
				Name:            item.Name,
				UnitPrice:       item.Price,
				Quantity:        quantity,
				Personalization: personalization,
			},
			AddedAt: c.store.now().UnixNano(),
		}

		raw, err := tx.HGet(ctx, c.key, field).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var existing storedLine
			if err := json.Unmarshal(raw, &existing); err != nil {
				return fmt.Errorf("decode cart line: %w", err)
			}
			line.Quantity += existing.Quantity
			line.AddedAt = existing.AddedAt
			if personalization == "" {
				line.Personalization = existing.Personalization
			}
		}

		data, err := json.Marshal(line)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, c.key, field, data)
			pipe.Expire(ctx, c.key, c.store.ttl)
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < maxTxRetry; attempt++ {
		err = c.store.client.Watch(ctx, txf, c.key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return apperrors.NewCartUnavailableError(err)
	}

	metrics.CartMutations.WithLabelValues("add").Inc()
	c.store.logger.Debug("cart line added", map[string]interface{}{
		"cart":     c.key,
		"itemId":   item.ID,
		"quantity": quantity,
	})
	return nil
}

func (c *SessionCart) RemoveFromCart(ctx context.Context, item models.MenuItem) error {
	if err := c.store.client.HDel(ctx, c.key, strconv.FormatInt(item.ID, 10)).Err(); err != nil {
		return apperrors.NewCartUnavailableError(err)
	}
	metrics.CartMutations.WithLabelValues("remove").Inc()
	return nil
}

func (c *SessionCart) ClearCart(ctx context.Context) error {
	if err := c.store.client.Del(ctx, c.key).Err(); err != nil {
		return apperrors.NewCartUnavailableError(err)
	}
	metrics.CartMutations.WithLabelValues("clear").Inc()
	return nil
}

// Lines returns the cart in the order items were first added.
func (c *SessionCart) Lines(ctx context.Context) ([]models.CartLine, error) {
	values, err := c.store.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, apperrors.NewCartUnavailableError(err)
	}

	stored := make([]storedLine, 0, len(values))
	for field, raw := range values {
		var line storedLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			c.store.logger.Warn("skipping corrupt cart line", map[string]interface{}{
				"cart":  c.key,
				"field": field,
				"error": err.Error(),
			})
			continue
		}
		stored = append(stored, line)
	}
	sort.Slice(stored, func(i, j int) bool {
		if stored[i].AddedAt != stored[j].AddedAt {
			return stored[i].AddedAt < stored[j].AddedAt
		}
		return stored[i].MenuItemID < stored[j].MenuItemID
	})

	lines := make([]models.CartLine, len(stored))
	for i, s := range stored {
		lines[i] = s.CartLine
	}
	return lines, nil
}
