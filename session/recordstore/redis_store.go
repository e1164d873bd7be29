package recordstore

import (
	"context"
	"fmt"

	apperrors "github.com/makkotwal/venus-auth/internal/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis implementation of Store for deployments where the
// durable session record must survive process restarts.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis record store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "venus:session:",
	}
}

// Save writes the record with the session TTL so stale records expire on
// their own.
func (s *RedisStore) Save(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, RecordTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		return "", apperrors.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session record: %w", err)
	}
	return value, nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to clear session record: %w", err)
	}
	return nil
}
