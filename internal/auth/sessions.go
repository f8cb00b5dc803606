package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionStore holds the "operator is logged in" flag, keyed by an opaque token.
type SessionStore interface {
	Create(ctx context.Context) (string, error)
	Valid(ctx context.Context, token string) (bool, error)
	Destroy(ctx context.Context, token string) error
}

// MemorySessions keeps sessions in process memory; they vanish on restart.
type MemorySessions struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]time.Time
}

func NewMemorySessions(ttl time.Duration) *MemorySessions {
	return &MemorySessions{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]time.Time),
	}
}

func (m *MemorySessions) Create(ctx context.Context) (string, error) {
	token := uuid.New().String()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune()
	m.sessions[token] = m.now().Add(m.ttl)
	return token, nil
}

func (m *MemorySessions) Valid(ctx context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expires, ok := m.sessions[token]
	if !ok {
		return false, nil
	}
	if !m.now().Before(expires) {
		delete(m.sessions, token)
		return false, nil
	}
	return true, nil
}

func (m *MemorySessions) Destroy(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[token]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, token)
	return nil
}

// prune drops expired sessions. Caller holds mu.
func (m *MemorySessions) prune() {
	now := m.now()
	for token, expires := range m.sessions {
		if !now.Before(expires) {
			delete(m.sessions, token)
		}
	}
}

const sessionKeyPrefix = "portfolio:session:" // portfolio:session:{token}

// RedisSessions shares sessions across API replicas. Expiry is left to Redis.
type RedisSessions struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessions(client *redis.Client, ttl time.Duration) *RedisSessions {
	return &RedisSessions{client: client, ttl: ttl}
}

func (r *RedisSessions) Create(ctx context.Context) (string, error) {
	token := uuid.New().String()
	if err := r.client.Set(ctx, sessionKeyPrefix+token, "1", r.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return token, nil
}

func (r *RedisSessions) Valid(ctx context.Context, token string) (bool, error) {
	err := r.client.Get(ctx, sessionKeyPrefix+token).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get session: %w", err)
	}
	return true, nil
}

func (r *RedisSessions) Destroy(ctx context.Context, token string) error {
	n, err := r.client.Del(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
