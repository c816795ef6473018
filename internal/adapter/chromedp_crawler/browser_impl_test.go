package chromedp_crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/cdproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/article-crawler/internal/entity"
	"github.com/user/article-crawler/internal/proxy"
	"github.com/user/article-crawler/internal/repository"
)

func TestClickScriptEncodesSelectors(t *testing.T) {
	script, err := clickScript([]string{"button.btn-next", `a[title="下一页"]`})
	require.NoError(t, err)

	assert.Contains(t, script, `["button.btn-next","a[title=\"下一页\"]"]`)
	assert.Contains(t, script, "el.disabled")
}

func TestAllocatorOptionsAddIdentity(t *testing.T) {
	cfg := entity.CrawlSessionConfig{Headless: true}

	base := allocatorOptions(cfg, proxy.Identity{}, "")
	full := allocatorOptions(cfg, proxy.Identity{UserAgent: "ua", Proxy: "http://p:8000"}, "/usr/bin/chromium")
	assert.Len(t, full, len(base)+3)
}

func TestClassify(t *testing.T) {
	expired, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-expired.Done()

	err := classify(expired, errors.New("page load"))
	assert.ErrorIs(t, err, repository.ErrNavigationTimeout)

	live := context.Background()
	err = classify(live, &cdproto.Error{Code: -32000, Message: "No node with given id found"})
	assert.ErrorIs(t, err, repository.ErrStaleReference)

	plain := errors.New("boom")
	assert.Equal(t, plain, classify(live, plain))
}

func TestPauseHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pause(ctx, time.Hour, 2*time.Hour), context.Canceled)
	assert.NoError(t, pause(context.Background(), 0, 0))
}
