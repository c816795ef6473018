package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/article-crawler/pkg/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "https://ost.51cto.com/postlist", cfg.Site.ListingURL)
	assert.Equal(t, 3, cfg.Crawl.MaxPages)
	assert.Equal(t, 15*time.Second, cfg.Crawl.PerRequestTimeout)
	assert.Equal(t, []string{"h1.article-title", "h1.post-title", ".article-header h1", "h1"}, cfg.Selectors.Title)
	assert.Len(t, cfg.Identity.UserAgents, len(config.DefaultUserAgents))
	assert.Empty(t, cfg.Postgres.URL)
}

func TestLoadSelectorOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crawler.yaml")
	body := `
selectors:
  title:
    - "h1.headline"
    - "h2"
  next:
    - "a.next-page"
crawl:
  max_pages: 5
  per_request_timeout: 20s
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"h1.headline", "h2"}, cfg.Selectors.Title)
	assert.Equal(t, []string{"a.next-page"}, cfg.Selectors.Next)
	assert.Equal(t, 5, cfg.Crawl.MaxPages)
	assert.Equal(t, 20*time.Second, cfg.Crawl.PerRequestTimeout)
	// untouched lists keep their defaults
	assert.Equal(t, []string{".article-content", ".post-content", ".content", "article"}, cfg.Selectors.Content)
}

func TestLoadEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CRAWLER_SERVER_PORT", "9090")
	t.Setenv("CRAWLER_CRAWL_RETRY_COUNT", "4")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Crawl.RetryCount)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSession(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	s := cfg.Session(7)
	assert.Equal(t, 7, s.MaxPages)
	assert.Equal(t, cfg.Site.ListingURL, s.ListingURL)
	assert.Equal(t, 2*time.Second, s.DelayRange.Min)
	assert.Equal(t, 4*time.Second, s.DelayRange.Max)
	assert.Equal(t, 2, s.RetryCount)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.Crawl.DelayMax = time.Millisecond
	assert.Error(t, cfg.Validate())
}
