// Package session stores browser sessions in Redis.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quickbite/internal/common/logger"
	"quickbite/internal/models"
)

const (
	DefaultCookieName = "qb_session"
	keyPrefix         = "session:"
	defaultTTL        = 24 * time.Hour
)

var ErrSessionNotFound = errors.New("SESSION_NOT_FOUND")

type Manager struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time
}

func NewManager(client *redis.Client, ttl time.Duration, log logger.Logger) *Manager {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{
		client: client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "session"}),
		now:    time.Now,
	}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Resolve loads the session for id, refreshing its expiry. Unknown, expired
// or empty ids yield a new stored Guest session; created reports that case.
func (m *Manager) Resolve(ctx context.Context, id string) (sess *models.Session, created bool, err error) {
	if id != "" {
		sess, err = m.Load(ctx, id)
		if err == nil {
			if err := m.client.Expire(ctx, keyPrefix+id, m.ttl).Err(); err != nil {
				m.logger.Warn("failed to refresh session expiry", map[string]interface{}{"error": err.Error()})
			}
			return sess, false, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, false, err
		}
	}

	sess, err = m.create(ctx, "", models.RoleGuest)
	if err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

func (m *Manager) Load(ctx context.Context, id string) (*models.Session, error) {
	raw, err := m.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.IsExpired() {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

// Login replaces the session identified by previousID with a fresh
// authenticated one. Guest is not a valid login role.
func (m *Manager) Login(ctx context.Context, previousID, userIdentifier string, role models.Role) (*models.Session, error) {
	userIdentifier = strings.TrimSpace(userIdentifier)
	if userIdentifier == "" {
		return nil, fmt.Errorf("user identifier is required")
	}
	if !role.IsAuthenticated() {
		return nil, fmt.Errorf("role %q cannot log in", role)
	}

	sess, err := m.create(ctx, userIdentifier, role)
	if err != nil {
		return nil, err
	}
	if previousID != "" && previousID != sess.ID {
		if err := m.client.Del(ctx, keyPrefix+previousID).Err(); err != nil {
			m.logger.Warn("failed to drop previous session", map[string]interface{}{"error": err.Error()})
		}
	}

	m.logger.Info("session login", map[string]interface{}{
		"userIdentifier": userIdentifier,
		"role":           string(role),
	})
	return sess, nil
}

func (m *Manager) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (m *Manager) create(ctx context.Context, userIdentifier string, role models.Role) (*models.Session, error) {
	now := m.now()
	sess := &models.Session{
		ID:             uuid.NewString(),
		UserIdentifier: userIdentifier,
		Role:           role,
		CreatedAt:      now,
		ExpiresAt:      now.Add(m.ttl),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := m.client.Set(ctx, keyPrefix+sess.ID, data, m.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}
