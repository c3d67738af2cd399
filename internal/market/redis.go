package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/napolitain/solver-mutations/internal/models"
)

// RedisStore shares prices between server replicas
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to addr and stores prices under key
func NewRedisStore(addr, key string) *RedisStore {
	if key == "" {
		key = pricesKey
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    key,
	}
}

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Load(ctx context.Context) (models.Prices, bool, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	var prices models.Prices
	if err := json.Unmarshal(raw, &prices); err != nil {
		return nil, false, fmt.Errorf("redis decode %s: %w", s.key, err)
	}
	return prices, true, nil
}

func (s *RedisStore) Save(ctx context.Context, prices models.Prices, ttl time.Duration) error {
	raw, err := json.Marshal(prices)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Close releases the connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}
