package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/user/article-crawler/internal/entity"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig   `mapstructure:"server"`
	Site      SiteConfig     `mapstructure:"site"`
	Crawl     CrawlConfig    `mapstructure:"crawl"`
	Selectors SelectorConfig `mapstructure:"selectors"`
	Identity  IdentityConfig `mapstructure:"identity"`
	Postgres  PostgresConfig `mapstructure:"postgres"`
	Redis     RedisConfig    `mapstructure:"redis"`
}

type ServerConfig struct {
	Port      string `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// SiteConfig describes the crawled site.
type SiteConfig struct {
	ListingURL              string `mapstructure:"listing_url"`
	Origin                  string `mapstructure:"origin"`
	Category                string `mapstructure:"category"`
	Source                  string `mapstructure:"source"`
	EmptyContentPlaceholder string `mapstructure:"empty_content_placeholder"`
}

type CrawlConfig struct {
	MaxPages          int           `mapstructure:"max_pages"`
	MaxPagesLimit     int           `mapstructure:"max_pages_limit"`
	Headless          bool          `mapstructure:"headless"`
	PerRequestTimeout time.Duration `mapstructure:"per_request_timeout"`
	DelayMin          time.Duration `mapstructure:"delay_min"`
	DelayMax          time.Duration `mapstructure:"delay_max"`
	RetryCount        int           `mapstructure:"retry_count"`
	RetryBackoffBase  time.Duration `mapstructure:"retry_backoff_base"`
	ChromePath        string        `mapstructure:"chrome_path"`
}

// SelectorConfig holds the ordered candidate selectors. They track the markup of the
// target site and are meant to be overridden from the config file when it changes.
type SelectorConfig struct {
	ListingContainer string   `mapstructure:"listing_container"`
	ListingItem      string   `mapstructure:"listing_item"`
	Next             []string `mapstructure:"next"`
	Title            []string `mapstructure:"title"`
	Date             []string `mapstructure:"date"`
	Content          []string `mapstructure:"content"`
}

type IdentityConfig struct {
	UserAgents []string `mapstructure:"user_agents"`
	Proxies    []string `mapstructure:"proxies"`
}

// PostgresConfig enables the durable archive when URL is set.
type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig enables the cross-process run lock when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// DefaultUserAgents is the identity rotation pool used when none is configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")

	v.SetDefault("site.listing_url", "https://ost.51cto.com/postlist")
	v.SetDefault("site.origin", "https://ost.51cto.com")
	v.SetDefault("site.category", "开源技术")
	v.SetDefault("site.source", "51CTO开源社区")
	v.SetDefault("site.empty_content_placeholder", "暂无内容")

	v.SetDefault("crawl.max_pages", 3)
	v.SetDefault("crawl.max_pages_limit", 10)
	v.SetDefault("crawl.headless", true)
	v.SetDefault("crawl.per_request_timeout", 15*time.Second)
	v.SetDefault("crawl.delay_min", 2*time.Second)
	v.SetDefault("crawl.delay_max", 4*time.Second)
	v.SetDefault("crawl.retry_count", 2)
	v.SetDefault("crawl.retry_backoff_base", 30*time.Second)

	v.SetDefault("selectors.listing_container", "ul.infinite-list")
	v.SetDefault("selectors.listing_item", "ul.infinite-list li.infinite-list-item a")
	v.SetDefault("selectors.next", []string{
		"button.btn-next",
		".pagination .next",
		"a.next",
		".el-pagination button.btn-next",
	})
	v.SetDefault("selectors.title", []string{"h1.article-title", "h1.post-title", ".article-header h1", "h1"})
	v.SetDefault("selectors.date", []string{".post-meta time", ".article-meta time", "time", ".publish-time", ".date"})
	v.SetDefault("selectors.content", []string{".article-content", ".post-content", ".content", "article"})

	v.SetDefault("identity.user_agents", DefaultUserAgents)
	v.SetDefault("identity.proxies", []string{})

	v.SetDefault("redis.lock_ttl", 2*time.Hour)
}

// Load reads configuration from an optional file and from CRAWLER_* environment variables.
// An empty path looks for config.yaml in the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Configuration purely through defaults and environment is fine.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values a crawl cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.Site.ListingURL == "":
		return errors.New("config: site.listing_url is required")
	case c.Site.Origin == "":
		return errors.New("config: site.origin is required")
	case c.Selectors.ListingContainer == "" || c.Selectors.ListingItem == "":
		return errors.New("config: listing selectors are required")
	case len(c.Selectors.Title) == 0:
		return errors.New("config: at least one title selector is required")
	case c.Crawl.MaxPagesLimit < 1:
		return errors.New("config: crawl.max_pages_limit must be positive")
	case c.Crawl.DelayMax < c.Crawl.DelayMin:
		return errors.New("config: crawl.delay_max must not be below crawl.delay_min")
	}
	return nil
}

// Session builds the per-invocation crawl settings for maxPages pages.
func (c *Config) Session(maxPages int) entity.CrawlSessionConfig {
	return entity.CrawlSessionConfig{
		ListingURL:        c.Site.ListingURL,
		MaxPages:          maxPages,
		Headless:          c.Crawl.Headless,
		PerRequestTimeout: c.Crawl.PerRequestTimeout,
		DelayRange:        entity.DelayRange{Min: c.Crawl.DelayMin, Max: c.Crawl.DelayMax},
		RetryCount:        c.Crawl.RetryCount,
		RetryBackoffBase:  c.Crawl.RetryBackoffBase,
	}
}
