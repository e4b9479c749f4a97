package cache

import (
	"context"
	"time"

	"github.com/aq2208/gorder-seed/internal/usecase"
	"github.com/redis/go-redis/v9"
)

const runLockKey = "seed:run:lock"

// deletes the key only while it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisRunLock struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRunLock(rdb *redis.Client, ttl time.Duration) *RedisRunLock {
	return &RedisRunLock{rdb: rdb, ttl: ttl}
}

func (l *RedisRunLock) Acquire(ctx context.Context, owner string) (bool, error) {
	return l.rdb.SetNX(ctx, runLockKey, owner, l.ttl).Result()
}

func (l *RedisRunLock) Release(ctx context.Context, owner string) error {
	return releaseScript.Run(ctx, l.rdb, []string{runLockKey}, owner).Err()
}

var _ usecase.RunLock = (*RedisRunLock)(nil)
