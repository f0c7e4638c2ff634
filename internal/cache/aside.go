package cache

import (
	"context"
	"errors"
	"time"

	"socialapi/internal/observability"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GetJSON reads key from Redis into dest. It reports false on a miss or when
// Redis is not configured.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v under key in Redis with ttl.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, raw, ttl).Err()
}

// Aside loads key into dest from the local layer, then Redis, and finally
// from fetch, which must populate dest. Cache failures never fail the call.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if localGet(ctx, key, dest) {
		observability.CacheLookups.WithLabelValues("local", "hit").Inc()
		return nil
	}
	observability.CacheLookups.WithLabelValues("local", "miss").Inc()

	found, err := GetJSON(ctx, key, dest)
	if err == nil && found {
		observability.CacheLookups.WithLabelValues("redis", "hit").Inc()
		localSet(ctx, key, dest, ttl)
		return nil
	}
	if client != nil {
		observability.CacheLookups.WithLabelValues("redis", "miss").Inc()
	}

	if err := fetch(); err != nil {
		return err
	}

	_ = SetJSON(ctx, key, dest, ttl)
	localSet(ctx, key, dest, ttl)
	return nil
}

// Invalidate drops keys from both layers.
func Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		localDelete(ctx, key)
	}
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}
