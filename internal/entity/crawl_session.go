package entity

import "time"

// DelayRange bounds a randomized pause.
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

// CrawlSessionConfig is built once per crawl invocation and never persisted.
type CrawlSessionConfig struct {
	ListingURL        string
	MaxPages          int
	Headless          bool
	PerRequestTimeout time.Duration
	DelayRange        DelayRange
	RetryCount        int
	RetryBackoffBase  time.Duration
}
