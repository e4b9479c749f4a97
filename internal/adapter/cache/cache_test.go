package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/aq2208/gorder-seed/internal/usecase"
)

func unreachable(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisRunLock_PropagatesConnectionErrors(t *testing.T) {
	l := NewRedisRunLock(unreachable(t), time.Minute)
	ok, err := l.Acquire(context.Background(), "run-1")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, l.Release(context.Background(), "run-1"))
}

func TestRedisLastRun_PropagatesConnectionErrors(t *testing.T) {
	c := NewRedisLastRun(unreachable(t), time.Hour)
	assert.Error(t, c.PublishRunCompleted(context.Background(), usecase.RunCompletedMsg{RunID: "r"}))

	_, err := c.Last(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, usecase.ErrNoRunRecorded)
}
