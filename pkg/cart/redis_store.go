package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the redis-backed guest cart store.
type RedisConfig struct {
	ConnectionURL  string        `env:"CART_REDIS_URL" envDefault:"redis://localhost:6379/0"` // Format "redis://:password@host:6379/0".
	TTL            time.Duration `env:"CART_REDIS_TTL" envDefault:"720h"`                     // Guest carts expire after this period of inactivity.
	ConnectTimeout time.Duration `env:"CART_REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
}

// ConnectRedis parses the connection URL and verifies the server is
// reachable before returning a client.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, fmt.Errorf("cart: parse redis connection url: %w", err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cart: redis not reachable: %w", err)
	}
	return client, nil
}

// RedisStore persists guest cart snapshots as JSON values with a TTL, so
// abandoned guest carts clean themselves up.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing redis client. A non-positive ttl stores
// snapshots without expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: max(ttl, 0)}
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	data, err := s.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("cart: load snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("cart: decode stored snapshot: %w", err)
	}
	return snap, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("cart: encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("cart: save snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("cart: delete snapshot: %w", err)
	}
	return nil
}

func cartKey(sessionID string) string {
	return "cart:guest:" + sessionID
}
