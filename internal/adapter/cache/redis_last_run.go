package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aq2208/gorder-seed/internal/usecase"
	"github.com/redis/go-redis/v9"
)

const lastRunKey = "seed:run:last"

// RedisLastRun keeps the most recent run-completed event for the HTTP surface.
type RedisLastRun struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLastRun(rdb *redis.Client, ttl time.Duration) *RedisLastRun {
	return &RedisLastRun{rdb: rdb, ttl: ttl}
}

func (c *RedisLastRun) PublishRunCompleted(ctx context.Context, msg usecase.RunCompletedMsg) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, lastRunKey, b, c.ttl).Err()
}

func (c *RedisLastRun) Last(ctx context.Context) (usecase.RunCompletedMsg, error) {
	var msg usecase.RunCompletedMsg
	b, err := c.rdb.Get(ctx, lastRunKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return msg, usecase.ErrNoRunRecorded
	}
	if err != nil {
		return msg, err
	}
	if err := json.Unmarshal(b, &msg); err != nil {
		return msg, fmt.Errorf("decode last run: %w", err)
	}
	return msg, nil
}

var (
	_ usecase.EventPublisher = (*RedisLastRun)(nil)
	_ usecase.RunHistory     = (*RedisLastRun)(nil)
)
