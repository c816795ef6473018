package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/article-crawler/internal/entity"
)

// ArticleArchiveImpl provides a concrete implementation for the ArticleArchive interface using PostgreSQL.
type ArticleArchiveImpl struct {
	db *pgxpool.Pool
}

// NewArticleArchive creates a new instance of ArticleArchiveImpl.
func NewArticleArchive(db *pgxpool.Pool) *ArticleArchiveImpl {
	return &ArticleArchiveImpl{db: db}
}

// ConsumeBatch stores a page batch in one transaction. Already archived ids keep their first version.
func (r *ArticleArchiveImpl) ConsumeBatch(ctx context.Context, batch []entity.Article) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	b := &pgx.Batch{}
	for _, a := range batch {
		content, err := json.Marshal(a.Content)
		if err != nil {
			return fmt.Errorf("encode content of %s: %w", a.ID, err)
		}
		b.Queue(`
			INSERT INTO articles (id, title, publish_date, publish_date_approximate, url, content, category, summary, source, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO NOTHING`,
			a.ID, a.Title, a.PublishDate, a.PublishDateApproximate, a.URL, content,
			a.Category, a.Summary, a.Source, a.CreatedAt, a.UpdatedAt,
		)
	}
	if err := tx.SendBatch(ctx, b).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// LoadAll returns every archived article, newest first.
func (r *ArticleArchiveImpl) LoadAll(ctx context.Context) ([]entity.Article, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, title, publish_date, publish_date_approximate, url, content, category, summary, source, created_at, updated_at
		FROM articles
		ORDER BY created_at DESC;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []entity.Article
	for rows.Next() {
		var a entity.Article
		var content []byte
		if err := rows.Scan(
			&a.ID,
			&a.Title,
			&a.PublishDate,
			&a.PublishDateApproximate,
			&a.URL,
			&content,
			&a.Category,
			&a.Summary,
			&a.Source,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(content, &a.Content); err != nil {
			return nil, fmt.Errorf("decode content of %s: %w", a.ID, err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// Purge deletes every archived article.
func (r *ArticleArchiveImpl) Purge(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM articles;`)
	return err
}
