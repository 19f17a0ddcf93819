package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const idempotencyKeyPrefix = "idempotency:"

// RedisIdempotencyStore shares cached responses across replicas. Redis
// expires entries, so there is nothing to stop.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (*CachedResponse, bool, error) {
	data, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read idempotent response: %w", err)
	}

	var response CachedResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, false, fmt.Errorf("failed to decode idempotent response: %w", err)
	}
	return &response, true, nil
}

// Set keeps the first stored response if two requests race.
func (s *RedisIdempotencyStore) Set(ctx context.Context, key string, response *CachedResponse) error {
	response.CreatedAt = time.Now().UTC()
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to encode idempotent response: %w", err)
	}
	if err := s.client.SetNX(ctx, idempotencyKeyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotent response: %w", err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Stop() {}
