package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/domain"
)

// RedisCache stores the collection as a JSON array under a single key
// (portfolioProjects by default). The key never expires.
type RedisCache struct {
	client *redis.Client
	key    string
}

func NewRedisCache(client *redis.Client, key string) *RedisCache {
	return &RedisCache{client: client, key: key}
}

func (c *RedisCache) Name() string { return "redis" }

func (c *RedisCache) Read(ctx context.Context) (domain.Snapshot, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache key %s: %w", c.key, err)
	}

	projects, err := decodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache key %s: %w", c.key, err)
	}
	return projects, nil
}

func (c *RedisCache) Persist(ctx context.Context, projects domain.Snapshot) error {
	if projects == nil {
		projects = domain.Snapshot{}
	}
	data, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("failed to marshal projects: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", c.key, err)
	}
	return nil
}
