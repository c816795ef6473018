package repository

import (
	"context"

	"github.com/user/article-crawler/internal/entity"
)

// ArticleStore is the queryable article cache shared by the crawler and the API.
type ArticleStore interface {
	// Merge inserts articles whose id is not cached yet and returns how many were added.
	Merge(batch []entity.Article) int
	Query(q entity.ArticleQuery) entity.ArticlePage
	GetByID(id string) (entity.Article, bool)
	Clear()
	Status() entity.CacheStatus
	// TryBeginUpdate marks the cache as updating. It reports false if an update is already running.
	TryBeginUpdate() bool
	// EndUpdate clears the updating flag and records err as the last error when non-nil.
	EndUpdate(err error)
}

// BatchSink consumes the articles collected from one listing page.
type BatchSink interface {
	ConsumeBatch(ctx context.Context, batch []entity.Article) error
}

// ArticleArchive is durable storage for collected articles.
type ArticleArchive interface {
	BatchSink
	// LoadAll returns every archived article, newest first.
	LoadAll(ctx context.Context) ([]entity.Article, error)
	Purge(ctx context.Context) error
}
