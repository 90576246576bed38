package cache

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const statsKey = "dashboard:stats"

// StatsCache holds the admin dashboard counters in a Redis hash
type StatsCache interface {
	Increment(ctx context.Context, field string, delta int64) error
	Set(ctx context.Context, field string, value int64) error
	GetAll(ctx context.Context) (map[string]int64, error)
}

// Counter fields tracked for the dashboard
const (
	StatAnswersRecorded = "answersRecorded"
	StatPenaltiesIssued = "penaltiesIssued"
	StatSessionsStarted = "sessionsStarted"
	StatTimeouts        = "timeouts"
)

type statsCache struct {
	client *redis.Client
}

// NewStatsCache creates a new stats cache
func NewStatsCache(client *redis.Client) StatsCache {
	return &statsCache{
		client: client,
	}
}

func (c *statsCache) Increment(ctx context.Context, field string, delta int64) error {
	return c.client.HIncrBy(ctx, statsKey, field, delta).Err()
}

func (c *statsCache) Set(ctx context.Context, field string, value int64) error {
	return c.client.HSet(ctx, statsKey, field, value).Err()
}

func (c *statsCache) GetAll(ctx context.Context) (map[string]int64, error) {
	raw, err := c.client.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int64, len(raw))
	for field, val := range raw {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			continue
		}
		stats[field] = n
	}
	return stats, nil
}
