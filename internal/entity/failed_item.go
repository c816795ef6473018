package entity

import "time"

// FailedItem records an article URL that could not be collected during a crawl.
type FailedItem struct {
	ID            int64
	URL           string
	FailureKind   string // "timeout", "stale", "no_title", "unknown"
	FailureReason string
	LastAttemptAt time.Time
	AttemptCount  int
}
