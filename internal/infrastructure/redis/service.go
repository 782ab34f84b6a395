package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned by Get when the key does not exist
var ErrNotFound = errors.New("redis: key not found")

type Service struct {
	client *redis.Client
}

// NewService connects to addr. It returns nil when addr is empty or the server
// cannot be reached, in which case callers fall back to in-memory storage.
func NewService(addr, password string) *Service {
	if addr == "" {
		log.Info().Msg("Redis not configured - using in-memory storage")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Error().
			Err(err).
			Str("addr", addr).
			Msg("Failed to establish Redis connection")
		_ = client.Close()
		return nil
	}

	log.Info().Str("addr", addr).Msg("Redis connection established")
	return NewServiceWithClient(client)
}

// NewServiceWithClient wraps an existing client
func NewServiceWithClient(client *redis.Client) *Service {
	return &Service{client: client}
}

// Set stores a value with an optional expiration
func (s *Service) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := s.client.Set(ctx, key, value, expiration).Err(); err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Dur("expiration", expiration).
			Msg("Redis SET failed")
		return err
	}
	return nil
}

// Get retrieves a value, returning ErrNotFound for missing keys
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Msg("Redis GET failed")
		return "", err
	}
	return val, nil
}

// GetBytes retrieves a binary value, returning ErrNotFound for missing keys
func (s *Service) GetBytes(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Msg("Redis GET failed")
		return nil, err
	}
	return val, nil
}

func (s *Service) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Service) Close() error {
	return s.client.Close()
}
