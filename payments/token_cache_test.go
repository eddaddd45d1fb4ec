package payments

import (
	"context"
	"testing"
	"time"
)

func TestMemoryTokenCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryTokenCache()

	if _, ok := cache.Get(ctx, "k"); ok {
		t.Fatal("empty cache hit")
	}
	cache.Set(ctx, "k", "tok", time.Minute)
	if v, ok := cache.Get(ctx, "k"); !ok || v != "tok" {
		t.Errorf("get = %q, %v", v, ok)
	}

	cache.Set(ctx, "expired", "old", -time.Second)
	if _, ok := cache.Get(ctx, "expired"); ok {
		t.Error("expired token returned")
	}
}
