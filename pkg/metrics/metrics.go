package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	CrawlsTotal         *prometheus.CounterVec // status: success, failure, rejected
	CrawlDuration       prometheus.Histogram
	PagesCrawled        prometheus.Counter
	ArticlesParsed      prometheus.Counter
	ItemFailures        *prometheus.CounterVec
	CachedArticles      prometheus.Gauge
}

// New registers the metrics with reg. Pass prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		CrawlsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawls_total",
				Help: "Total number of crawl runs by outcome.",
			},
			[]string{"status"},
		),
		CrawlDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crawl_duration_seconds",
				Help:    "Duration of whole crawl runs including retries.",
				Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
			},
		),
		PagesCrawled: f.NewCounter(prometheus.CounterOpts{
			Name: "crawler_listing_pages_total",
			Help: "Listing pages visited.",
		}),
		ArticlesParsed: f.NewCounter(prometheus.CounterOpts{
			Name: "crawler_articles_parsed_total",
			Help: "Articles extracted from detail pages.",
		}),
		ItemFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_item_failures_total",
			Help: "Listing items skipped because they could not be collected.",
		}, []string{"kind"}),
		CachedArticles: f.NewGauge(prometheus.GaugeOpts{
			Name: "crawler_cached_articles",
			Help: "Articles currently held in the cache.",
		}),
	}
}
