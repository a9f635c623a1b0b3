package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// returnURLTTL bounds how long a pending return URL survives. A login round
// trip that takes longer than this has been abandoned.
const returnURLTTL = 15 * time.Minute

// ReturnURLStore is a Redis-based single-slot store for pending return URLs,
// keyed per visitor. Last write wins; there is no stacking.
type ReturnURLStore struct {
	client redis.UniversalClient
	prefix string
}

// NewReturnURLStore creates a Redis return-URL store.
func NewReturnURLStore(client redis.UniversalClient) *ReturnURLStore {
	return &ReturnURLStore{client: client, prefix: "returnurl:"}
}

func (s *ReturnURLStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrNotFound
	}

	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

func (s *ReturnURLStore) Set(ctx context.Context, key, rawURL string) error {
	if key == "" {
		return errors.New("return URL key cannot be empty")
	}
	return s.client.Set(ctx, s.prefix+key, rawURL, returnURLTTL).Err()
}

func (s *ReturnURLStore) Clear(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+key).Err()
}
