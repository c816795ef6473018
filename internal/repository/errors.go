package repository

import "errors"

var (
	// ErrDriverInit is returned when a browser instance cannot be started. It fails the whole run attempt.
	ErrDriverInit = errors.New("browser driver initialization failed")
	// ErrNavigationTimeout is returned when a page does not become ready within the per-request timeout.
	ErrNavigationTimeout = errors.New("navigation timed out")
	// ErrSelectorNotFound is returned when none of the candidate selectors matched.
	ErrSelectorNotFound = errors.New("no candidate selector matched")
	// ErrStaleReference is returned when a DOM node disappeared while it was being used.
	ErrStaleReference = errors.New("stale element reference")
	// ErrCrawlInProgress rejects a trigger while another crawl is running.
	ErrCrawlInProgress = errors.New("crawl already running")
	// ErrNoArticles is returned when every run attempt finished without collecting an article.
	ErrNoArticles = errors.New("no articles collected")
)
