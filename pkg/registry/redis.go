package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/polsolde/bingo-fes-te-jove/pkg/observability"
	"github.com/polsolde/bingo-fes-te-jove/pkg/retry"
)

// DefaultEventTTL is how long an event's fingerprint set lives in Redis
// after its last insert. A weekend-long event fits comfortably; the set
// expires on its own afterwards.
const DefaultEventTTL = 72 * time.Hour

// RedisConfig configures a Redis-backed registry.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string

	// Password is the optional server password.
	Password string

	// DB is the Redis database number.
	DB int

	// Event names the fingerprint set, so separate events on the same
	// server never collide. Required.
	Event string

	// TTL is the expiry applied to the set after each insert.
	// Zero means DefaultEventTTL.
	TTL time.Duration
}

// RedisRegistry shares one fingerprint set across processes via a Redis
// SET. SADD's reply tells us atomically whether the fingerprint was new,
// so the insert-if-absent contract holds without any client-side
// locking, even with generators running on several machines.
type RedisRegistry struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedis connects to Redis and returns an event-scoped registry.
// The connection is verified with a ping before use, retried with
// backoff so a registry still starting up does not fail the run.
func NewRedis(ctx context.Context, cfg RedisConfig) (*RedisRegistry, error) {
	if cfg.Event == "" {
		return nil, fmt.Errorf("redis registry: event name is required")
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultEventTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	err := retry.WithBackoff(ctx, func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			return &retry.TransientError{Err: err}
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &RedisRegistry{
		client: client,
		key:    "bingo:event:" + cfg.Event + ":fingerprints",
		ttl:    ttl,
	}, nil
}

// Add inserts fp via SADD and reports whether it was new.
func (r *RedisRegistry) Add(ctx context.Context, fp string) (bool, error) {
	added, err := r.client.SAdd(ctx, r.key, fp).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	r.client.Expire(ctx, r.key, r.ttl)
	inserted := added == 1
	observability.Registry().OnAdd(ctx, "redis", inserted)
	return inserted, nil
}

// Len returns the cardinality of the event's fingerprint set.
func (r *RedisRegistry) Len(ctx context.Context) (int, error) {
	n, err := r.client.SCard(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return int(n), nil
}

// Close closes the Redis connection.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

// Ensure RedisRegistry implements Registry.
var _ Registry = (*RedisRegistry)(nil)
