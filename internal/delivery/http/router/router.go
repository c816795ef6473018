package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/article-crawler/internal/delivery/http/handler"
	"github.com/user/article-crawler/internal/delivery/http/middleware"
	"github.com/user/article-crawler/pkg/metrics"
)

func New(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics(m))
	r.Use(chimw.Timeout(60 * time.Second))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/api/health", h.HandleHealthCheck)

	r.Route("/api/articles", func(r chi.Router) {
		r.Get("/", h.HandleListArticles)
		r.Post("/crawl", h.HandleTriggerCrawl)
		r.Get("/status", h.HandleStatus)
		r.Post("/cache/clear", h.HandleClearCache)
		r.Get("/failures", h.HandleListFailures)
		r.Get("/{id}", h.HandleGetArticle)
	})

	return r
}
