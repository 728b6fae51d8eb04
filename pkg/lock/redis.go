package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker shares turn locks across server instances with SET NX PX.
type RedisLocker struct {
	client   redis.UniversalClient
	prefix   string
	ttl      time.Duration
	maxWait  time.Duration
	interval time.Duration
}

func NewRedisLocker(client redis.UniversalClient, ttl, maxWait time.Duration) *RedisLocker {
	return &RedisLocker{
		client:   client,
		prefix:   "lock:",
		ttl:      ttl,
		maxWait:  maxWait,
		interval: 100 * time.Millisecond,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := l.prefix + key

	var deadline <-chan time.Time
	if l.maxWait > 0 {
		timer := time.NewTimer(l.maxWait)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, eris.Wrap(err, "lock: redis setnx")
		}
		if ok {
			return func() {
				// Release must run even when the request context is already cancelled.
				_ = releaseScript.Run(context.Background(), l.client, []string{redisKey}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, ErrLockTimeout
		case <-time.After(l.interval):
		}
	}
}
