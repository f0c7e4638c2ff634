package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix   = "user:%d"
	CategoryTreeKey = "categories:tree"
	CategoryListKey = "categories:list"
	TagListKey      = "tags:list"
	BlacklistPrefix = "blacklist:"
)

const (
	UserTTL     = 5 * time.Minute
	TaxonomyTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// BlacklistKey is where a revoked token's jti is stored until it expires.
func BlacklistKey(jti string) string {
	return BlacklistPrefix + jti
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateCategories(ctx context.Context) {
	Invalidate(ctx, CategoryTreeKey, CategoryListKey)
}

func InvalidateTags(ctx context.Context) {
	Invalidate(ctx, TagListKey)
}

// RevokeToken blacklists a token id until ttl elapses. Without Redis it is a no-op.
func RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil || jti == "" || ttl <= 0 {
		return nil
	}
	return client.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti was blacklisted by RevokeToken.
func IsRevoked(ctx context.Context, jti string) (bool, error) {
	if client == nil || jti == "" {
		return false, nil
	}
	n, err := client.Exists(ctx, BlacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
