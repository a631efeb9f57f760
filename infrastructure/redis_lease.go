package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// SettlementLeaseKey is the Redis key holding the settlement tick lease
const SettlementLeaseKey = "zhigulbot:settlement:lease"

// releaseScript deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// holdScript sets a new expiry only if the key still holds our token
var holdScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// ErrLeaseLost is returned when the lease expired or changed hands
var ErrLeaseLost = errors.New("lease no longer held")

// NewRedisClient parses url and verifies the server answers
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	log.WithField("addr", opt.Addr).Info("Connected to Redis")
	return rdb, nil
}

// RedisLease is a best-effort mutual exclusion across replicas. A holder
// keeps it until the TTL lapses unless it releases or holds it longer.
type RedisLease struct {
	rdb redis.Cmdable
	key string
	ttl time.Duration
}

// NewRedisLease creates a lease on key that expires after ttl
func NewRedisLease(rdb redis.Cmdable, key string, ttl time.Duration) *RedisLease {
	return &RedisLease{rdb: rdb, key: key, ttl: ttl}
}

// Acquire tries to take the lease. ok is false when another holder has it.
func (l *RedisLease) Acquire(ctx context.Context) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lease %s: %w", l.key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Hold extends a held lease so it expires d from now
func (l *RedisLease) Hold(ctx context.Context, token string, d time.Duration) error {
	held, err := holdScript.Run(ctx, l.rdb, []string{l.key}, token, d.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("failed to hold lease %s: %w", l.key, err)
	}
	if held == 0 {
		return fmt.Errorf("%w: %s", ErrLeaseLost, l.key)
	}
	return nil
}

// Release gives the lease up if token still owns it
func (l *RedisLease) Release(ctx context.Context, token string) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lease %s: %w", l.key, err)
	}
	return nil
}
