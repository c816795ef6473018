// Package memory provides the in-process article cache.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/user/article-crawler/internal/entity"
)

// ArticleStore is a lock-guarded article cache ordered by recency. Articles are
// deduplicated by id with first-write-wins semantics.
type ArticleStore struct {
	mu         sync.RWMutex
	articles   []entity.Article
	ids        map[string]struct{}
	lastUpdate *time.Time
	isUpdating bool
	lastError  string
	now        func() time.Time
}

// NewArticleStore creates an empty store.
func NewArticleStore() *ArticleStore {
	return &ArticleStore{
		ids: make(map[string]struct{}),
		now: time.Now,
	}
}

// Merge inserts the articles whose id is not cached yet. Existing entries are never
// replaced. The whole store is re-sorted by CreatedAt descending; ties keep insertion order.
func (s *ArticleStore) Merge(batch []entity.Article) int {
	if len(batch) == 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, a := range batch {
		if _, ok := s.ids[a.ID]; ok {
			continue
		}
		a.Content = append([]entity.ContentBlock(nil), a.Content...)
		s.articles = append(s.articles, a)
		s.ids[a.ID] = struct{}{}
		added++
	}
	sort.SliceStable(s.articles, func(i, j int) bool {
		return s.articles[i].CreatedAt.After(s.articles[j].CreatedAt)
	})

	now := s.now()
	s.lastUpdate = &now
	s.lastError = ""
	return added
}

// ConsumeBatch lets the store act as the crawl's primary batch sink.
func (s *ArticleStore) ConsumeBatch(_ context.Context, batch []entity.Article) error {
	s.Merge(batch)
	return nil
}

// Query returns one page of articles, optionally filtered by a case-insensitive
// substring of title or summary. With q.All every match is returned as a single page.
func (s *ArticleStore) Query(q entity.ArticleQuery) entity.ArticlePage {
	s.mu.RLock()
	matches := make([]entity.Article, 0, len(s.articles))
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	for _, a := range s.articles {
		if needle == "" ||
			strings.Contains(strings.ToLower(a.Title), needle) ||
			strings.Contains(strings.ToLower(a.Summary), needle) {
			matches = append(matches, a)
		}
	}
	s.mu.RUnlock()

	total := len(matches)
	if q.All {
		return entity.ArticlePage{Items: matches, Total: total, Page: 1, PageSize: total}
	}

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	start := min((page-1)*size, total)
	end := min(start+size, total)
	return entity.ArticlePage{
		Items:    matches[start:end],
		Total:    total,
		Page:     page,
		PageSize: size,
		HasNext:  end < total,
		HasPrev:  page > 1,
	}
}

// GetByID looks up one article.
func (s *ArticleStore) GetByID(id string) (entity.Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.ids[id]; !ok {
		return entity.Article{}, false
	}
	for _, a := range s.articles {
		if a.ID == id {
			return a, true
		}
	}
	return entity.Article{}, false
}

// Clear drops every article and resets the counters.
func (s *ArticleStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.articles = nil
	s.ids = make(map[string]struct{})
	s.lastUpdate = nil
	s.lastError = ""
}

func (s *ArticleStore) Status() entity.CacheStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := entity.CacheStatus{
		TotalArticles: len(s.articles),
		IsUpdating:    s.isUpdating,
		LastError:     s.lastError,
	}
	if s.lastUpdate != nil {
		t := *s.lastUpdate
		status.LastUpdate = &t
	}
	return status
}

// TryBeginUpdate sets the updating flag unless it is already set.
func (s *ArticleStore) TryBeginUpdate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isUpdating {
		return false
	}
	s.isUpdating = true
	return true
}

// EndUpdate clears the updating flag and records the outcome of the attempt.
func (s *ArticleStore) EndUpdate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isUpdating = false
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
}
