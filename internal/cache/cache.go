package cache

import (
	"context"
	"time"

	"tokobesi/terminal/internal/domain"
)

// ProductCache holds the unfiltered catalog of one store.
type ProductCache interface {
	Get(ctx context.Context, storeID string) ([]domain.Product, bool, error)
	Set(ctx context.Context, storeID string, products []domain.Product, ttl time.Duration) error
	Invalidate(ctx context.Context, storeID string) error
}

type NoopProductCache struct{}

func (NoopProductCache) Get(_ context.Context, _ string) ([]domain.Product, bool, error) {
	return nil, false, nil
}

func (NoopProductCache) Set(_ context.Context, _ string, _ []domain.Product, _ time.Duration) error {
	return nil
}

func (NoopProductCache) Invalidate(_ context.Context, _ string) error {
	return nil
}

func productKey(storeID string) string {
	if storeID == "" {
		storeID = "_all"
	}
	return "tokobesi:products:" + storeID
}
