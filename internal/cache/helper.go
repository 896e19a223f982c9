package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Get loads key into a T. ok is false on a miss or when no client is set.
func Get[T any](ctx context.Context, key string) (value T, ok bool, err error) {
	if client == nil {
		return value, false, nil
	}
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, err
	}
	return value, true, nil
}

// Set stores value under key for ttl. It is a no-op without a client.
func Set[T any](ctx context.Context, key string, value T, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, raw, ttl).Err()
}

// Aside returns the cached value for key, or calls fetch and caches its result
// for ttl. Cache failures are logged and never fail the read; fetch errors are
// returned and not cached.
func Aside[T any](ctx context.Context, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	cached, ok, err := Get[T](ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if ok {
		return cached, nil
	}

	value, err := fetch()
	if err != nil {
		return value, err
	}
	if err := Set(ctx, key, value, ttl); err != nil {
		slog.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return value, nil
}
