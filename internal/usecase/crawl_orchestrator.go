package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/user/article-crawler/internal/entity"
	"github.com/user/article-crawler/internal/navigator"
	"github.com/user/article-crawler/internal/repository"
	"github.com/user/article-crawler/pkg/metrics"
)

// ArticleParser extracts an article from rendered markup.
type ArticleParser interface {
	Parse(markup, pageURL string) (*entity.Article, error)
}

// CrawlRunner performs a complete crawl, retrying whole runs that collect nothing.
type CrawlRunner interface {
	RunWithRetry(ctx context.Context, cfg entity.CrawlSessionConfig, sink repository.BatchSink) ([]entity.Article, error)
}

// CrawlOrchestrator drives one browser session through the listing pages and their articles.
// Articles are fetched strictly one at a time.
type CrawlOrchestrator struct {
	launcher repository.BrowserLauncher
	parser   ArticleParser
	rules    navigator.Rules
	origin   *url.URL
	failures repository.FailedItemRepository
	metrics  *metrics.Metrics
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// OrchestratorOption configures a CrawlOrchestrator.
type OrchestratorOption func(*CrawlOrchestrator)

// WithFailedItems records per-item failures in repo.
func WithFailedItems(repo repository.FailedItemRepository) OrchestratorOption {
	return func(o *CrawlOrchestrator) { o.failures = repo }
}

// WithSleep replaces the pause used between run attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) OrchestratorOption {
	return func(o *CrawlOrchestrator) { o.sleep = sleep }
}

// NewCrawlOrchestrator creates a new crawl orchestrator.
func NewCrawlOrchestrator(
	launcher repository.BrowserLauncher,
	parser ArticleParser,
	rules navigator.Rules,
	origin *url.URL,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts ...OrchestratorOption,
) *CrawlOrchestrator {
	o := &CrawlOrchestrator{
		launcher: launcher,
		parser:   parser,
		rules:    rules,
		origin:   origin,
		metrics:  m,
		logger:   logger,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunWithRetry calls Run up to cfg.RetryCount+1 times and stops at the first attempt that
// collected at least one article. Attempt n is followed by a pause of n*cfg.RetryBackoffBase.
func (o *CrawlOrchestrator) RunWithRetry(ctx context.Context, cfg entity.CrawlSessionConfig, sink repository.BatchSink) ([]entity.Article, error) {
	attempts := cfg.RetryCount + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		articles, err := o.Run(ctx, cfg, sink)
		if len(articles) > 0 {
			if err != nil {
				o.logger.Warn("crawl ended early, keeping partial result",
					zap.Int("articles", len(articles)), zap.Error(err))
			}
			return articles, nil
		}
		lastErr = err
		o.logger.Warn("crawl attempt collected no articles",
			zap.Int("attempt", attempt), zap.Int("attempts", attempts), zap.Error(err))

		if attempt == attempts {
			break
		}
		if err := o.sleep(ctx, cfg.RetryBackoffBase*time.Duration(attempt)); err != nil {
			return nil, err
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w after %d attempts: %w", repository.ErrNoArticles, attempts, lastErr)
	}
	return nil, fmt.Errorf("%w after %d attempts", repository.ErrNoArticles, attempts)
}

// Run performs a single crawl attempt. Each page's articles are handed to sink before the
// navigator advances. The browser session is released on every exit path.
func (o *CrawlOrchestrator) Run(ctx context.Context, cfg entity.CrawlSessionConfig, sink repository.BatchSink) ([]entity.Article, error) {
	session, err := o.launcher.Acquire(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("acquire browser: %w", err)
	}
	defer session.Release()

	o.logger.Info("starting crawl", zap.String("listing_url", cfg.ListingURL), zap.Int("max_pages", cfg.MaxPages))

	nav := navigator.New(session, o.rules, o.origin, o.logger)
	if err := nav.Open(ctx, cfg.ListingURL); err != nil {
		return nil, err
	}

	var all []entity.Article
	for nav.State() == navigator.AtListing {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		page := nav.Page()
		batch := o.crawlPage(ctx, session, nav)
		o.metrics.PagesCrawled.Inc()

		if len(batch) > 0 {
			all = append(all, batch...)
			if err := sink.ConsumeBatch(ctx, batch); err != nil {
				o.logger.Error("batch sink failed", zap.Int("page", page), zap.Error(err))
			} else {
				o.logger.Info("page batch stored", zap.Int("page", page), zap.Int("articles", len(batch)))
			}
		}

		if page >= cfg.MaxPages {
			break
		}
		nav.Advance(ctx)
	}

	o.logger.Info("crawl finished",
		zap.Int("articles", len(all)), zap.Int("pages", nav.Page()), zap.Stringer("state", nav.State()))
	return all, nil
}

// crawlPage collects every visible item of the current listing page. Item failures are
// logged and skipped.
func (o *CrawlOrchestrator) crawlPage(ctx context.Context, session repository.BrowserSession, nav *navigator.Navigator) []entity.Article {
	if err := session.SimulateHumanPacing(ctx); err != nil {
		o.logger.Debug("pacing failed", zap.Error(err))
	}

	items, err := nav.CollectVisibleItems(ctx)
	if err != nil {
		o.logger.Warn("could not read listing page", zap.Int("page", nav.Page()), zap.Error(err))
		return nil
	}
	o.logger.Info("listing page loaded", zap.Int("page", nav.Page()), zap.Int("items", len(items)))

	var batch []entity.Article
	for i, itemURL := range items {
		if ctx.Err() != nil {
			break
		}
		o.logger.Debug("collecting article",
			zap.Int("index", i+1), zap.Int("items", len(items)), zap.String("url", itemURL))

		article, navigated, err := o.collectItem(ctx, session, itemURL)
		if err != nil {
			o.recordFailure(ctx, itemURL, err)
		} else {
			o.metrics.ArticlesParsed.Inc()
			batch = append(batch, *article)
			o.clearFailure(ctx, itemURL)
		}

		if navigated {
			err = nav.ReturnToListing(ctx)
		} else {
			err = nav.RecoverListing(ctx)
		}
		if err != nil {
			o.logger.Warn("lost the listing page, ending crawl", zap.Int("page", nav.Page()), zap.Error(err))
			break
		}
	}
	return batch
}

// collectItem loads and parses one article. navigated reports that the browser reached the
// article page; after a failed navigation the location is unknown and navigated is false.
func (o *CrawlOrchestrator) collectItem(ctx context.Context, session repository.BrowserSession, itemURL string) (*entity.Article, bool, error) {
	if err := session.Navigate(ctx, itemURL); err != nil {
		return nil, false, err
	}
	if err := session.SimulateHumanPacing(ctx); err != nil {
		o.logger.Debug("pacing failed", zap.String("url", itemURL), zap.Error(err))
	}
	markup, err := session.Snapshot(ctx)
	if err != nil {
		return nil, true, fmt.Errorf("snapshot article: %w", err)
	}
	article, err := o.parser.Parse(markup, itemURL)
	if err != nil {
		return nil, true, err
	}
	return article, true, nil
}

func (o *CrawlOrchestrator) recordFailure(ctx context.Context, itemURL string, err error) {
	kind := failureKind(err)
	o.metrics.ItemFailures.WithLabelValues(kind).Inc()
	o.logger.Warn("skipping article", zap.String("url", itemURL), zap.String("kind", kind), zap.Error(err))

	if o.failures == nil {
		return
	}
	item := &entity.FailedItem{
		URL:           itemURL,
		FailureKind:   kind,
		FailureReason: err.Error(),
		LastAttemptAt: time.Now(),
	}
	if err := o.failures.SaveOrUpdate(ctx, item); err != nil {
		o.logger.Error("failed to record failed article", zap.String("url", itemURL), zap.Error(err))
	}
}

func (o *CrawlOrchestrator) clearFailure(ctx context.Context, itemURL string) {
	if o.failures == nil {
		return
	}
	if err := o.failures.Delete(ctx, itemURL); err != nil {
		// Not critical, the record is just stale.
		o.logger.Warn("failed to clear failed article record", zap.String("url", itemURL), zap.Error(err))
	}
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, repository.ErrNavigationTimeout):
		return "timeout"
	case errors.Is(err, repository.ErrStaleReference):
		return "stale"
	case errors.Is(err, repository.ErrSelectorNotFound):
		return "no_title"
	}
	return "unknown"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
