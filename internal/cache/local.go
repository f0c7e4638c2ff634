package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto"
	gocache "github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
)

// LocalTTL caps how long a value lives in the in-process layer so other
// instances' invalidations are picked up quickly.
const LocalTTL = 30 * time.Second

var local *marshaler.Marshaler

func init() {
	if err := InitLocal(); err != nil {
		slog.Warn("local cache disabled", slog.String("error", err.Error()))
	}
}

// InitLocal (re)creates the in-process cache layer.
func InitLocal() error {
	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		local = nil
		return err
	}
	manager := gocache.New[any](ristretto_store.NewRistretto(rc))
	local = marshaler.New(manager)
	return nil
}

// DisableLocal turns the in-process layer off. Used by tests that need
// every read to reach Redis.
func DisableLocal() {
	local = nil
}

func localGet(ctx context.Context, key string, dest any) bool {
	if local == nil {
		return false
	}
	if _, err := local.Get(ctx, key, dest); err != nil {
		return false
	}
	return true
}

func localSet(ctx context.Context, key string, value any, ttl time.Duration) {
	if local == nil {
		return
	}
	if ttl <= 0 || ttl > LocalTTL {
		ttl = LocalTTL
	}
	_ = local.Set(ctx, key, value, store.WithExpiration(ttl), store.WithCost(1))
}

func localDelete(ctx context.Context, key string) {
	if local == nil {
		return
	}
	_ = local.Delete(ctx, key)
}
