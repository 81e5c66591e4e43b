package formation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker admits one formation run at a time. Acquire returns ErrFormationInProgress when
// another run holds the lock.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// LocalLocker serializes runs within one process.
type LocalLocker struct {
	mu sync.Mutex
}

func (l *LocalLocker) Acquire(context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrFormationInProgress
	}
	return l.mu.Unlock, nil
}

// LockKey is the Redis key guarding formation runs across instances.
const LockKey = "lock:team-formation"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker shares the formation lock between server and worker instances. The key
// expires after ttl so a crashed holder cannot block formation forever.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, LockKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire formation lock: %w", err)
	}
	if !ok {
		return nil, ErrFormationInProgress
	}
	return func() {
		// Released on a fresh context: the run's context may already be done.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{LockKey}, token).Err()
	}, nil
}
