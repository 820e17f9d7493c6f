package ports

import (
	"context"

	"github.com/samirrijal/hazardboard/internal/core/domain"
)

// EventPublisher publishes dashboard events to a message broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, subject string, event *domain.DashboardEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// DatasetLoader returns the process-wide fire table, loading it on first use.
type DatasetLoader interface {
	Load(ctx context.Context, path string) (*domain.FireTable, error)
}
