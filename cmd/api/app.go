package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/user/article-crawler/internal/adapter/chromedp_crawler"
	"github.com/user/article-crawler/internal/adapter/memory"
	"github.com/user/article-crawler/internal/adapter/postgres"
	redis_adapter "github.com/user/article-crawler/internal/adapter/redis"
	"github.com/user/article-crawler/internal/navigator"
	"github.com/user/article-crawler/internal/parser"
	"github.com/user/article-crawler/internal/proxy"
	"github.com/user/article-crawler/internal/repository"
	"github.com/user/article-crawler/internal/usecase"
	"github.com/user/article-crawler/pkg/config"
	"github.com/user/article-crawler/pkg/metrics"
)

// app holds the wired components of one process.
type app struct {
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	service  usecase.CrawlService
	closers  []func()
}

// newApp wires storage, browser, parser and service. baseCtx bounds background crawls.
func newApp(ctx, baseCtx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	origin, err := url.Parse(cfg.Site.Origin)
	if err != nil {
		return nil, fmt.Errorf("parse site origin: %w", err)
	}
	articleParser, err := parser.New(parser.Rules{
		Title:                   cfg.Selectors.Title,
		Date:                    cfg.Selectors.Date,
		Content:                 cfg.Selectors.Content,
		Origin:                  cfg.Site.Origin,
		Category:                cfg.Site.Category,
		Source:                  cfg.Site.Source,
		EmptyContentPlaceholder: cfg.Site.EmptyContentPlaceholder,
	})
	if err != nil {
		return nil, err
	}

	var (
		archive  repository.ArticleArchive
		failures repository.FailedItemRepository
		lock     repository.RunLockRepository
	)
	if cfg.Postgres.URL != "" {
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		archive = postgres.NewArticleArchive(pool)
		failures = postgres.NewFailedItemRepo(pool)
		logger.Info("PostgreSQL archive enabled")
	}
	if cfg.Redis.Addr != "" {
		client, err := redis_adapter.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		lock = redis_adapter.NewRunLockRepo(client)
		logger.Info("Redis run lock enabled", zap.String("addr", cfg.Redis.Addr))
	}

	var opts []usecase.OrchestratorOption
	if failures != nil {
		opts = append(opts, usecase.WithFailedItems(failures))
	}
	launcher := chromedp_crawler.NewLauncher(
		proxy.NewManager(cfg.Identity.UserAgents, cfg.Identity.Proxies),
		cfg.Crawl.ChromePath,
		logger,
	)
	orchestrator := usecase.NewCrawlOrchestrator(
		launcher,
		articleParser,
		navigator.Rules{
			Container: cfg.Selectors.ListingContainer,
			Item:      cfg.Selectors.ListingItem,
			Next:      cfg.Selectors.Next,
		},
		origin,
		a.metrics,
		logger,
		opts...,
	)

	a.service = usecase.NewCrawlService(
		baseCtx,
		memory.NewArticleStore(),
		orchestrator,
		archive,
		failures,
		lock,
		usecase.ServiceConfig{
			DefaultMaxPages: cfg.Crawl.MaxPages,
			MaxPagesLimit:   cfg.Crawl.MaxPagesLimit,
			LockTTL:         cfg.Redis.LockTTL,
			Session:         cfg.Session,
		},
		a.metrics,
		logger,
	)
	return a, nil
}

// Close releases connections in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
