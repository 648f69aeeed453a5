package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"tokobesi/terminal/internal/domain"
)

func TestNoopProductCacheAlwaysMisses(t *testing.T) {
	var c ProductCache = NoopProductCache{}
	ctx := context.Background()

	if err := c.Set(ctx, "store-1", []domain.Product{{ID: "p-1"}}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, err := c.Get(ctx, "store-1"); ok || err != nil {
		t.Fatalf("expected miss without error, got ok=%v err=%v", ok, err)
	}
}

func TestProductKey(t *testing.T) {
	if got := productKey("store-1"); got != "tokobesi:products:store-1" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := productKey(""); got != "tokobesi:products:_all" {
		t.Fatalf("unexpected empty-store key %q", got)
	}
}

func TestRedisProductCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("TOKOBESI_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TOKOBESI_TEST_REDIS_ADDR to run redis integration test")
	}

	ctx := context.Background()
	c := NewRedisProductCache(addr, "", 0)
	t.Cleanup(func() { _ = c.Close() })
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	storeID := "it-" + time.Now().Format("150405.000000")
	products := []domain.Product{{ID: "p-1", Name: "Gergaji Kayu", PriceCents: 78000, Active: true}}
	if err := c.Set(ctx, storeID, products, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := c.Get(ctx, storeID)
	if err != nil || !ok || len(got) != 1 || got[0].Name != "Gergaji Kayu" {
		t.Fatalf("unexpected get result: %+v ok=%v err=%v", got, ok, err)
	}
	if err := c.Invalidate(ctx, storeID); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := c.Get(ctx, storeID); ok {
		t.Fatalf("expected miss after invalidate")
	}
}
