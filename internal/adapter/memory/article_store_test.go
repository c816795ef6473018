package memory_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/article-crawler/internal/adapter/memory"
	"github.com/user/article-crawler/internal/entity"
)

var base = time.Date(2025, 11, 16, 12, 0, 0, 0, time.UTC)

func article(id, title string, age time.Duration) entity.Article {
	return entity.Article{
		ID:        id,
		Title:     title,
		URL:       "https://ost.51cto.com/posts/" + id,
		Summary:   "summary of " + id,
		Content:   []entity.ContentBlock{{Kind: entity.BlockText, Value: title}},
		CreatedAt: base.Add(-age),
	}
}

func ids(items []entity.Article) []string {
	out := make([]string, 0, len(items))
	for _, a := range items {
		out = append(out, a.ID)
	}
	return out
}

func TestMergeIsIdempotent(t *testing.T) {
	t.Parallel()
	s := memory.NewArticleStore()
	batch := []entity.Article{article("a", "A", time.Hour), article("b", "B", 2*time.Hour)}

	assert.Equal(t, 2, s.Merge(batch))
	first := s.Query(entity.ArticleQuery{All: true})

	assert.Equal(t, 0, s.Merge(batch))
	second := s.Query(entity.ArticleQuery{All: true})

	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, 2, s.Status().TotalArticles)
}

func TestMergeFirstWriteWins(t *testing.T) {
	t.Parallel()
	s := memory.NewArticleStore()

	original := article("same", "first seen", time.Hour)
	later := article("same", "second crawl", 0)
	later.Content = []entity.ContentBlock{{Kind: entity.BlockText, Value: "new body"}}

	s.Merge([]entity.Article{original})
	s.Merge([]entity.Article{later, article("other", "Other", 3*time.Hour)})

	got, ok := s.GetByID("same")
	require.True(t, ok)
	assert.Equal(t, "first seen", got.Title)
	assert.Equal(t, original.Content, got.Content)
	assert.Equal(t, 2, s.Status().TotalArticles)
}

func TestMergeOrdersByRecencyStableOnTies(t *testing.T) {
	t.Parallel()
	s := memory.NewArticleStore()

	s.Merge([]entity.Article{
		article("old", "Old", 5*time.Hour),
		article("tie1", "Tie 1", time.Hour),
	})
	s.Merge([]entity.Article{
		article("tie2", "Tie 2", time.Hour),
		article("new", "New", 0),
		article("tie3", "Tie 3", time.Hour),
	})

	page := s.Query(entity.ArticleQuery{All: true})
	assert.Equal(t, []string{"new", "tie1", "tie2", "tie3", "old"}, ids(page.Items))

	for i := 1; i < len(page.Items); i++ {
		assert.False(t, page.Items[i].CreatedAt.After(page.Items[i-1].CreatedAt))
	}
}

func TestQuerySearch(t *testing.T) {
	t.Parallel()
	s := memory.NewArticleStore()
	s.Merge([]entity.Article{
		article("1", "AI agents in practice", time.Hour),
		article("2", "HarmonyOS 4.0 发布", 2*time.Hour),
		article("3", "Rust ownership", 3*time.Hour),
	})

	page := s.Query(entity.ArticleQuery{Page: 1, PageSize: 10, Search: "AI"})
	assert.Equal(t, 1, page.Total)
	assert.False(t, page.HasNext)
	assert.False(t, page.HasPrev)
	assert.Equal(t, []string{"1"}, ids(page.Items))

	// summary matches too, case-insensitively
	page = s.Query(entity.ArticleQuery{Page: 1, PageSize: 10, Search: "SUMMARY OF 3"})
	assert.Equal(t, []string{"3"}, ids(page.Items))
}

func TestQueryPagination(t *testing.T) {
	t.Parallel()
	s := memory.NewArticleStore()
	var batch []entity.Article
	for i := range 25 {
		batch = append(batch, article(fmt.Sprintf("%02d", i), "T", time.Duration(i)*time.Minute))
	}
	s.Merge(batch)

	p1 := s.Query(entity.ArticleQuery{Page: 1, PageSize: 10})
	assert.Len(t, p1.Items, 10)
	assert.Equal(t, 25, p1.Total)
	assert.True(t, p1.HasNext)
	assert.False(t, p1.HasPrev)
	assert.Equal(t, "00", p1.Items[0].ID)

	p3 := s.Query(entity.ArticleQuery{Page: 3, PageSize: 10})
	assert.Len(t, p3.Items, 5)
	assert.False(t, p3.HasNext)
	assert.True(t, p3.HasPrev)

	beyond := s.Query(entity.ArticleQuery{Page: 9, PageSize: 10})
	assert.Empty(t, beyond.Items)

	all := s.Query(entity.ArticleQuery{All: true, Page: 3, PageSize: 2})
	assert.Len(t, all.Items, 25)
	assert.Equal(t, 1, all.Page)
	assert.Equal(t, 25, all.PageSize)
	assert.False(t, all.HasNext)
}

func TestGetByIDNotFound(t *testing.T) {
	t.Parallel()
	s := memory.NewArticleStore()

	_, ok := s.GetByID("nonexistent123")
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	t.Parallel()
	s := memory.NewArticleStore()
	s.Merge([]entity.Article{article("a", "A", 0)})
	require.NotNil(t, s.Status().LastUpdate)

	s.Clear()

	status := s.Status()
	assert.Zero(t, status.TotalArticles)
	assert.Nil(t, status.LastUpdate)
	_, ok := s.GetByID("a")
	assert.False(t, ok)

	// a cleared id can be collected again
	assert.Equal(t, 1, s.Merge([]entity.Article{article("a", "A", 0)}))
}

func TestClearResetsLastError(t *testing.T) {
	t.Parallel()
	s := memory.NewArticleStore()
	require.True(t, s.TryBeginUpdate())
	s.EndUpdate(errors.New("boom"))
	require.Equal(t, "boom", s.Status().LastError)

	s.Clear()
	assert.Empty(t, s.Status().LastError)
}

func TestMergeEmptyBatchLeavesStatus(t *testing.T) {
	t.Parallel()
	s := memory.NewArticleStore()

	assert.Zero(t, s.Merge(nil))
	assert.Nil(t, s.Status().LastUpdate)

	require.True(t, s.TryBeginUpdate())
	s.EndUpdate(errors.New("boom"))
	s.Merge([]entity.Article{})
	assert.Equal(t, "boom", s.Status().LastError)
}

func TestUpdateLifecycle(t *testing.T) {
	t.Parallel()
	s := memory.NewArticleStore()

	require.True(t, s.TryBeginUpdate())
	assert.False(t, s.TryBeginUpdate())
	assert.True(t, s.Status().IsUpdating)

	s.EndUpdate(errors.New("boom"))
	status := s.Status()
	assert.False(t, status.IsUpdating)
	assert.Equal(t, "boom", status.LastError)

	// a successful merge clears the last error
	s.Merge([]entity.Article{article("a", "A", 0)})
	assert.Empty(t, s.Status().LastError)
}

func TestConcurrentReadersDuringMerge(t *testing.T) {
	t.Parallel()
	s := memory.NewArticleStore()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 50 {
			s.Merge([]entity.Article{
				article(fmt.Sprintf("a%d", i), "A", time.Duration(i)*time.Second),
				article(fmt.Sprintf("b%d", i), "B", time.Duration(i)*time.Second),
			})
		}
	}()
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				page := s.Query(entity.ArticleQuery{All: true})
				// batches are merged atomically: readers never see half of one
				assert.Zero(t, page.Total%2)
				_ = s.Status()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, s.Status().TotalArticles)
}
