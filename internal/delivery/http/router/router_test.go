package router_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/article-crawler/internal/adapter/memory"
	"github.com/user/article-crawler/internal/delivery/http/handler"
	"github.com/user/article-crawler/internal/delivery/http/response"
	"github.com/user/article-crawler/internal/delivery/http/router"
	"github.com/user/article-crawler/internal/entity"
	"github.com/user/article-crawler/internal/repository"
	"github.com/user/article-crawler/internal/usecase"
	"github.com/user/article-crawler/pkg/metrics"
)

// stubRunner hands its articles to the sink once gate is closed.
type stubRunner struct {
	articles []entity.Article
	gate     chan struct{}
}

func (s *stubRunner) RunWithRetry(ctx context.Context, _ entity.CrawlSessionConfig, sink repository.BatchSink) ([]entity.Article, error) {
	if s.gate != nil {
		<-s.gate
	}
	if err := sink.ConsumeBatch(ctx, s.articles); err != nil {
		return nil, err
	}
	return s.articles, nil
}

type fixture struct {
	server *httptest.Server
	store  *memory.ArticleStore
	svc    usecase.CrawlService
}

func newFixture(t *testing.T, runner usecase.CrawlRunner) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store := memory.NewArticleStore()
	svc := usecase.NewCrawlService(
		context.Background(), store, runner, nil, nil, nil,
		usecase.ServiceConfig{
			DefaultMaxPages: 3,
			MaxPagesLimit:   10,
			Session:         func(n int) entity.CrawlSessionConfig { return entity.CrawlSessionConfig{MaxPages: n} },
		},
		m, zap.NewNop(),
	)
	h := handler.NewHandler(svc, "51CTO开源社区", zap.NewNop())
	server := httptest.NewServer(router.New(h, m, reg, zap.NewNop()))
	t.Cleanup(server.Close)
	return &fixture{server: server, store: store, svc: svc}
}

func (f *fixture) do(t *testing.T, method, path string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, nil)
	require.NoError(t, err)
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func sampleArticles() []entity.Article {
	now := time.Now()
	return []entity.Article{
		{ID: "a1", Title: "AI 助手", URL: "https://ost.51cto.com/posts/1", Summary: "s", CreatedAt: now,
			Content: []entity.ContentBlock{{Kind: entity.BlockText, Value: "hello"}}},
		{ID: "a2", Title: "Rust 入门", URL: "https://ost.51cto.com/posts/2", CreatedAt: now.Add(-time.Minute)},
		{ID: "a3", Title: "Go 并发", URL: "https://ost.51cto.com/posts/3", CreatedAt: now.Add(-2 * time.Minute)},
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, &stubRunner{})
	resp, body := f.do(t, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestListAndDetail(t *testing.T) {
	f := newFixture(t, &stubRunner{})
	f.store.Merge(sampleArticles())

	resp, body := f.do(t, http.MethodGet, "/api/articles?page=1&page_size=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page entity.ArticlePage
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrev)

	resp, body = f.do(t, http.MethodGet, "/api/articles?search=ai")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &page))
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "a1", page.Items[0].ID)

	resp, body = f.do(t, http.MethodGet, "/api/articles/a1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var article map[string]any
	require.NoError(t, json.Unmarshal(body, &article))
	assert.Equal(t, "AI 助手", article["title"])
	assert.Equal(t, []any{map[string]any{"type": "text", "value": "hello"}}, article["content"])

	resp, _ = f.do(t, http.MethodGet, "/api/articles/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListRejectsBadPageSize(t *testing.T) {
	f := newFixture(t, &stubRunner{})
	resp, body := f.do(t, http.MethodGet, "/api/articles?page_size=500")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "page_size")
}

func TestTriggerCrawl(t *testing.T) {
	runner := &stubRunner{articles: sampleArticles(), gate: make(chan struct{})}
	f := newFixture(t, runner)

	resp, body := f.do(t, http.MethodPost, "/api/articles/crawl?max_pages=2")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var accepted response.CrawlAcceptedResponse
	require.NoError(t, json.Unmarshal(body, &accepted))
	assert.Equal(t, 2, accepted.MaxPages)

	resp, _ = f.do(t, http.MethodPost, "/api/articles/crawl")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = f.do(t, http.MethodGet, "/api/articles/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status response.ServiceStatusResponse
	require.NoError(t, json.Unmarshal(body, &status))
	assert.True(t, status.CacheStatus.IsUpdating)

	close(runner.gate)
	f.svc.Wait()

	_, body = f.do(t, http.MethodGet, "/api/articles/status")
	require.NoError(t, json.Unmarshal(body, &status))
	assert.False(t, status.CacheStatus.IsUpdating)
	assert.Equal(t, 3, status.CacheStatus.TotalArticles)
	assert.Nil(t, status.CacheStatus.Error)
	assert.NotNil(t, status.CacheStatus.LastUpdate)
}

func TestTriggerCrawlReportsDefaultMaxPages(t *testing.T) {
	f := newFixture(t, &stubRunner{articles: sampleArticles()})

	resp, body := f.do(t, http.MethodPost, "/api/articles/crawl")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	f.svc.Wait()

	var accepted response.CrawlAcceptedResponse
	require.NoError(t, json.Unmarshal(body, &accepted))
	assert.Equal(t, 3, accepted.MaxPages)
	assert.Contains(t, accepted.Message, "3 pages")
}

func TestTriggerCrawlValidatesMaxPages(t *testing.T) {
	f := newFixture(t, &stubRunner{})

	for _, q := range []string{"max_pages=11", "max_pages=-1", "max_pages=abc"} {
		resp, _ := f.do(t, http.MethodPost, "/api/articles/crawl?"+q)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestClearCache(t *testing.T) {
	f := newFixture(t, &stubRunner{})
	f.store.Merge(sampleArticles())

	resp, _ := f.do(t, http.MethodPost, "/api/articles/cache/clear")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, f.store.Status().TotalArticles)
}

func TestFailuresWithoutRepository(t *testing.T) {
	f := newFixture(t, &stubRunner{})
	resp, body := f.do(t, http.MethodGet, "/api/articles/failures")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, &stubRunner{})
	f.do(t, http.MethodGet, "/api/health")

	resp, body := f.do(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/api/health",status="200"} 1`)
}
