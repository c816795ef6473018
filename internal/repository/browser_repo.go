package repository

import (
	"context"

	"github.com/user/article-crawler/internal/entity"
)

// BrowserLauncher starts automated browser sessions.
type BrowserLauncher interface {
	// Acquire opens one browser instance with fingerprint masking applied.
	// Errors wrap ErrDriverInit.
	Acquire(ctx context.Context, cfg entity.CrawlSessionConfig) (BrowserSession, error)
}

// BrowserSession drives a single browser instance. Release must be called exactly once.
type BrowserSession interface {
	// Navigate loads url and waits for the document body. Errors wrap ErrNavigationTimeout.
	Navigate(ctx context.Context, url string) error
	// Back returns to the previous history entry.
	Back(ctx context.Context) error
	// WaitFor waits until selector is present. Errors wrap ErrNavigationTimeout.
	WaitFor(ctx context.Context, selector string) error
	// ClickFirstEnabled clicks the first enabled element matching one of selectors, in order.
	// It reports false when no candidate matched an enabled element.
	ClickFirstEnabled(ctx context.Context, selectors []string) (bool, error)
	// SimulateHumanPacing scrolls and pauses to look less like automated traffic.
	SimulateHumanPacing(ctx context.Context) error
	// Snapshot returns the currently rendered markup.
	Snapshot(ctx context.Context) (string, error)
	Release()
}
