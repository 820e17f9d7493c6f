package ports

import (
	"context"

	"github.com/samirrijal/hazardboard/internal/core/domain"
)

// FireSource reads every row of a fire detection dataset.
// A missing or unreadable file is reported as *domain.FileAccessError.
type FireSource interface {
	ReadFires(ctx context.Context, path string) ([]domain.RawFireRow, error)
}

// FireWriter persists decoded rows into a snapshot store.
type FireWriter interface {
	WriteFires(ctx context.Context, rows []domain.RawFireRow) (int, error)
}
