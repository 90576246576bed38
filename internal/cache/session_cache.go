package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"manara/internal/quiz"
)

// SessionCache persists challenge session snapshots so a user can
// resume after a reconnect. The durable progress record lives in
// Mongo; only the ephemeral pointer/countdown state goes here.
type SessionCache interface {
	Set(ctx context.Context, userID string, snap *quiz.Snapshot) error
	Get(ctx context.Context, userID string) (*quiz.Snapshot, error)
	Delete(ctx context.Context, userID string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *sessionCache) key(userID string) string {
	return fmt.Sprintf("challenges:session:%s", userID)
}

func (c *sessionCache) Set(ctx context.Context, userID string, snap *quiz.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(userID), data, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, userID string) (*quiz.Snapshot, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap quiz.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *sessionCache) Delete(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}
