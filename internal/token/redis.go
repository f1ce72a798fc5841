package token

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SessionKey is the namespaced Redis key holding the persisted token.
const SessionKey = "koma:session:token"

// RedisStore keeps the token in Redis. Useful when several terminals share
// one session (the file store is the default backend).
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection so a bad URL
// fails at startup rather than on first use.
// URL format: redis://[:password@]host:port[/db]
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Load(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, SessionKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return val, nil
}

func (s *RedisStore) Save(ctx context.Context, tok string) error {
	if err := s.client.Set(ctx, SessionKey, tok, 0).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, SessionKey).Err(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
