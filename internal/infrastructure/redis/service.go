package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/internal/session"
)

// Service wraps the Redis client used for conversation-history persistence.
// It satisfies session.KeyValueStore.
type Service struct {
	client *redis.Client
}

func NewService() *Service {
	url := config.GetRedisURL()
	if url == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     url,
		Password: config.GetRedisPassword(),
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Error().
			Err(err).
			Str("addr", url).
			Msg("Failed to establish Redis connection")
		return nil
	}

	return &Service{client: client}
}

// Get retrieves a value. A missing key maps onto session.ErrNotFound so the
// controller treats Redis and the in-memory store identically.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", session.ErrNotFound
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Msg("Redis GET operation failed")
		return "", err
	}
	return val, nil
}

// Set stores a value with an expiration.
func (s *Service) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Dur("expiration", ttl).
			Msg("Redis SET operation failed")
		return err
	}
	return nil
}

// Delete removes a key.
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Ping checks if Redis is accessible
func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Service) Close() error {
	return s.client.Close()
}
