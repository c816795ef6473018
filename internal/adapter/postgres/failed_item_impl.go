package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/article-crawler/internal/entity"
)

// FailedItemRepoImpl provides a concrete implementation for the FailedItemRepository interface using PostgreSQL.
type FailedItemRepoImpl struct {
	db *pgxpool.Pool
}

// NewFailedItemRepo creates a new instance of FailedItemRepoImpl.
func NewFailedItemRepo(db *pgxpool.Pool) *FailedItemRepoImpl {
	return &FailedItemRepoImpl{db: db}
}

// SaveOrUpdate creates or updates a record for a failed article URL.
// It increments the attempt count on conflict.
func (r *FailedItemRepoImpl) SaveOrUpdate(ctx context.Context, item *entity.FailedItem) error {
	query := `
		INSERT INTO failed_items (url, failure_kind, failure_reason, last_attempt_at, attempt_count)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (url) DO UPDATE SET
			failure_kind = EXCLUDED.failure_kind,
			failure_reason = EXCLUDED.failure_reason,
			last_attempt_at = EXCLUDED.last_attempt_at,
			attempt_count = failed_items.attempt_count + 1;
	`
	_, err := r.db.Exec(ctx, query,
		item.URL,
		item.FailureKind,
		item.FailureReason,
		item.LastAttemptAt,
	)
	return err
}

// FindRecent retrieves the most recently failed article URLs.
func (r *FailedItemRepoImpl) FindRecent(ctx context.Context, limit int) ([]*entity.FailedItem, error) {
	query := `
		SELECT id, url, failure_kind, failure_reason, last_attempt_at, attempt_count
		FROM failed_items
		ORDER BY last_attempt_at DESC
		LIMIT $1;
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*entity.FailedItem{}
	for rows.Next() {
		var it entity.FailedItem
		if err := rows.Scan(
			&it.ID,
			&it.URL,
			&it.FailureKind,
			&it.FailureReason,
			&it.LastAttemptAt,
			&it.AttemptCount,
		); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}

	return items, rows.Err()
}

// Delete removes a failed item record, typically after a successful collection.
func (r *FailedItemRepoImpl) Delete(ctx context.Context, url string) error {
	query := `DELETE FROM failed_items WHERE url = $1;`
	_, err := r.db.Exec(ctx, query, url)
	return err
}
