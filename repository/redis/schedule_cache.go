package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/vendaplan/backend/domain"
	"github.com/vendaplan/backend/repository"
)

type scheduleCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewScheduleCache creates a Redis-backed reconciled-snapshot cache.
func NewScheduleCache(client *redislib.Client, ttl time.Duration) repository.SnapshotCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &scheduleCache{
		client: client,
		prefix: "schedule:",
		ttl:    ttl,
	}
}

func (c *scheduleCache) Get(ctx context.Context, userID string) (*domain.Schedule, error) {
	result, err := c.client.Get(ctx, c.key(userID)).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}

	var schedule domain.Schedule
	if err := json.Unmarshal([]byte(result), &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (c *scheduleCache) Set(ctx context.Context, schedule *domain.Schedule) error {
	if schedule == nil || schedule.UserID == "" {
		return domain.ErrInvalidPayload
	}

	payload, err := json.Marshal(schedule)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(schedule.UserID), payload, c.ttl).Err()
}

func (c *scheduleCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}

func (c *scheduleCache) key(userID string) string {
	return fmt.Sprintf("%s%s", c.prefix, userID)
}
