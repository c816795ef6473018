package entity

import "time"

// CacheStatus aggregates the state of the article cache and the last crawl attempt.
type CacheStatus struct {
	TotalArticles int
	LastUpdate    *time.Time
	IsUpdating    bool
	LastError     string
}
