package repository

import (
	"context"

	"github.com/user/article-crawler/internal/entity"
)

// FailedItemRepository keeps track of article URLs that could not be collected.
type FailedItemRepository interface {
	// SaveOrUpdate creates a record or increments the attempt count of an existing one.
	SaveOrUpdate(ctx context.Context, item *entity.FailedItem) error
	// FindRecent returns the most recently failed items.
	FindRecent(ctx context.Context, limit int) ([]*entity.FailedItem, error)
	// Delete removes a record, typically after the URL was collected successfully.
	Delete(ctx context.Context, url string) error
}
