package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/article-crawler/internal/entity"
	"github.com/user/article-crawler/internal/repository"
	"github.com/user/article-crawler/pkg/metrics"
)

// ErrInvalidMaxPages rejects a page bound outside 1..limit.
var ErrInvalidMaxPages = errors.New("max pages out of range")

// CrawlService defines the operations the API and the CLI run against the article cache.
type CrawlService interface {
	// Trigger starts a background crawl and returns the page bound it will use.
	// A maxPages of zero selects the configured default. It returns ErrCrawlInProgress
	// if a crawl is running.
	Trigger(ctx context.Context, maxPages int) (int, error)
	// RunNow crawls synchronously and returns the resulting cache status.
	RunNow(ctx context.Context, maxPages int) (entity.CacheStatus, error)
	Status() entity.CacheStatus
	List(q entity.ArticleQuery) entity.ArticlePage
	Detail(id string) (entity.Article, bool)
	// Clear empties the cache and purges the archive when one is configured.
	Clear(ctx context.Context) error
	Failures(ctx context.Context, limit int) ([]*entity.FailedItem, error)
	// Warm fills the cache from the archive.
	Warm(ctx context.Context) error
	// Wait blocks until background crawls have finished.
	Wait()
}

// ServiceConfig holds the crawl bounds and the session template.
type ServiceConfig struct {
	DefaultMaxPages int
	MaxPagesLimit   int
	LockTTL         time.Duration
	// Session builds the crawl settings for a run over maxPages listing pages.
	Session func(maxPages int) entity.CrawlSessionConfig
}

type crawlService struct {
	store    repository.ArticleStore
	runner   CrawlRunner
	archive  repository.ArticleArchive
	failures repository.FailedItemRepository
	lock     repository.RunLockRepository
	cfg      ServiceConfig
	owner    string
	metrics  *metrics.Metrics
	logger   *zap.Logger

	// baseCtx outlives the request that triggered a crawl.
	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewCrawlService creates a new crawl service. archive, failures and lock are optional.
func NewCrawlService(
	baseCtx context.Context,
	store repository.ArticleStore,
	runner CrawlRunner,
	archive repository.ArticleArchive,
	failures repository.FailedItemRepository,
	lock repository.RunLockRepository,
	cfg ServiceConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) CrawlService {
	host, _ := os.Hostname()
	return &crawlService{
		store:    store,
		runner:   runner,
		archive:  archive,
		failures: failures,
		lock:     lock,
		cfg:      cfg,
		owner:    fmt.Sprintf("%s-%d", host, os.Getpid()),
		metrics:  m,
		logger:   logger,
		baseCtx:  baseCtx,
	}
}

func (s *crawlService) Trigger(ctx context.Context, maxPages int) (int, error) {
	maxPages = s.pages(maxPages)
	if err := s.begin(ctx, maxPages); err != nil {
		return maxPages, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.run(s.baseCtx, maxPages)
	}()
	return maxPages, nil
}

func (s *crawlService) RunNow(ctx context.Context, maxPages int) (entity.CacheStatus, error) {
	maxPages = s.pages(maxPages)
	if err := s.begin(ctx, maxPages); err != nil {
		return s.store.Status(), err
	}
	err := s.run(ctx, maxPages)
	return s.store.Status(), err
}

func (s *crawlService) pages(n int) int {
	if n == 0 {
		return s.cfg.DefaultMaxPages
	}
	return n
}

// begin validates the bound and takes the run lock, then the store's updating flag.
func (s *crawlService) begin(ctx context.Context, maxPages int) error {
	if maxPages < 1 || maxPages > s.cfg.MaxPagesLimit {
		return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidMaxPages, maxPages, s.cfg.MaxPagesLimit)
	}

	if s.lock != nil {
		ok, err := s.lock.Acquire(ctx, s.owner, s.cfg.LockTTL)
		if err != nil {
			return fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			s.metrics.CrawlsTotal.WithLabelValues("rejected").Inc()
			return repository.ErrCrawlInProgress
		}
	}

	if !s.store.TryBeginUpdate() {
		s.releaseLock()
		s.metrics.CrawlsTotal.WithLabelValues("rejected").Inc()
		return repository.ErrCrawlInProgress
	}
	return nil
}

// run executes one crawl and always clears the updating flag, including on panic.
func (s *crawlService) run(ctx context.Context, maxPages int) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("crawl panicked: %v", r)
		}
		s.store.EndUpdate(err)
		s.releaseLock()

		s.metrics.CrawlDuration.Observe(time.Since(start).Seconds())
		status := "success"
		if err != nil {
			status = "failure"
			s.logger.Error("crawl failed", zap.Int("max_pages", maxPages), zap.Error(err))
		}
		s.metrics.CrawlsTotal.WithLabelValues(status).Inc()
	}()

	articles, err := s.runner.RunWithRetry(ctx, s.cfg.Session(maxPages), sinkFunc(s.consume))
	if err != nil {
		return err
	}
	s.logger.Info("crawl completed",
		zap.Int("articles", len(articles)),
		zap.Int("cached", s.store.Status().TotalArticles),
		zap.Duration("took", time.Since(start)))
	return nil
}

// consume makes a page batch visible in the cache before archiving it. Archive
// failures do not fail the crawl.
func (s *crawlService) consume(ctx context.Context, batch []entity.Article) error {
	added := s.store.Merge(batch)
	s.metrics.CachedArticles.Set(float64(s.store.Status().TotalArticles))
	s.logger.Debug("batch merged", zap.Int("received", len(batch)), zap.Int("added", added))

	if s.archive != nil {
		if err := s.archive.ConsumeBatch(ctx, batch); err != nil {
			s.logger.Error("failed to archive batch", zap.Int("articles", len(batch)), zap.Error(err))
		}
	}
	return nil
}

func (s *crawlService) releaseLock() {
	if s.lock == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.lock.Release(ctx, s.owner); err != nil {
		s.logger.Warn("failed to release run lock", zap.Error(err))
	}
}

func (s *crawlService) Status() entity.CacheStatus {
	return s.store.Status()
}

func (s *crawlService) List(q entity.ArticleQuery) entity.ArticlePage {
	return s.store.Query(q)
}

func (s *crawlService) Detail(id string) (entity.Article, bool) {
	return s.store.GetByID(id)
}

func (s *crawlService) Clear(ctx context.Context) error {
	s.store.Clear()
	s.metrics.CachedArticles.Set(0)
	if s.archive == nil {
		return nil
	}
	if err := s.archive.Purge(ctx); err != nil {
		return fmt.Errorf("purge archive: %w", err)
	}
	return nil
}

func (s *crawlService) Failures(ctx context.Context, limit int) ([]*entity.FailedItem, error) {
	if s.failures == nil {
		return []*entity.FailedItem{}, nil
	}
	return s.failures.FindRecent(ctx, limit)
}

func (s *crawlService) Warm(ctx context.Context) error {
	if s.archive == nil {
		return nil
	}
	articles, err := s.archive.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load archive: %w", err)
	}
	added := s.store.Merge(articles)
	s.metrics.CachedArticles.Set(float64(s.store.Status().TotalArticles))
	s.logger.Info("cache warmed from archive", zap.Int("articles", added))
	return nil
}

func (s *crawlService) Wait() {
	s.wg.Wait()
}

// sinkFunc adapts a function to repository.BatchSink.
type sinkFunc func(ctx context.Context, batch []entity.Article) error

func (f sinkFunc) ConsumeBatch(ctx context.Context, batch []entity.Article) error {
	return f(ctx, batch)
}
