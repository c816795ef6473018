// Package navigator walks the paginated article listing of the crawled site.
package navigator

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/article-crawler/internal/repository"
	"github.com/user/article-crawler/pkg/utils"
)

// State is the position of the navigator in the listing.
type State int

const (
	// Idle is the state before Open.
	Idle State = iota
	AtListing
	LoadingNext
	// NoMorePages means no enabled "next" control exists. It is terminal but not an error.
	NoMorePages
	// Failed means the listing could not be (re)loaded. It is terminal; results so far are kept.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AtListing:
		return "at_listing"
	case LoadingNext:
		return "loading_next"
	case NoMorePages:
		return "no_more_pages"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Rules locate the listing on the page.
type Rules struct {
	Container string
	Item      string
	Next      []string
}

// Navigator drives a BrowserSession across listing pages.
type Navigator struct {
	session repository.BrowserSession
	rules   Rules
	origin  *url.URL
	logger  *zap.Logger

	state State
	page  int
}

func New(session repository.BrowserSession, rules Rules, origin *url.URL, logger *zap.Logger) *Navigator {
	return &Navigator{
		session: session,
		rules:   rules,
		origin:  origin,
		logger:  logger,
		state:   Idle,
	}
}

func (n *Navigator) State() State { return n.state }

// Page is the 1-based number of the current listing page.
func (n *Navigator) Page() int { return n.page }

// Open loads the first listing page. On failure the navigator is Failed and the error is returned.
func (n *Navigator) Open(ctx context.Context, listingURL string) error {
	if err := n.session.Navigate(ctx, listingURL); err != nil {
		n.state = Failed
		return fmt.Errorf("open listing %s: %w", listingURL, err)
	}
	if err := n.session.WaitFor(ctx, n.rules.Container); err != nil {
		n.state = Failed
		return fmt.Errorf("wait for listing container: %w", err)
	}
	n.state = AtListing
	n.page = 1
	return nil
}

// CollectVisibleItems returns the absolute URLs of the items on the current page,
// in document order and without duplicates.
func (n *Navigator) CollectVisibleItems(ctx context.Context) ([]string, error) {
	markup, err := n.session.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot listing: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var items []string
	seen := make(map[string]struct{})
	doc.Find(n.rules.Item).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		abs, err := utils.ToAbsoluteURL(n.origin, href)
		if err != nil || abs == "" {
			n.logger.Debug("skipping listing link", zap.String("href", href), zap.Error(err))
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		items = append(items, abs)
	})
	return items, nil
}

// ReturnToListing goes back from an item page and waits for the listing again.
// Failure is terminal for the crawl.
func (n *Navigator) ReturnToListing(ctx context.Context) error {
	if err := n.session.Back(ctx); err != nil {
		n.state = Failed
		return fmt.Errorf("navigate back to listing: %w", err)
	}
	return n.AwaitListing(ctx)
}

// RecoverListing is used after a navigation whose outcome is unknown. It stays put when
// the listing is still shown and goes back otherwise. Failure is terminal for the crawl.
func (n *Navigator) RecoverListing(ctx context.Context) error {
	if err := n.session.WaitFor(ctx, n.rules.Container); err == nil {
		return nil
	}
	n.logger.Debug("browser left the listing, going back", zap.Int("page", n.page))
	return n.ReturnToListing(ctx)
}

// AwaitListing waits for the listing container on the current page.
// Failure is terminal for the crawl.
func (n *Navigator) AwaitListing(ctx context.Context) error {
	if err := n.session.WaitFor(ctx, n.rules.Container); err != nil {
		n.state = Failed
		return fmt.Errorf("wait for listing container: %w", err)
	}
	return nil
}

// Advance clicks the first enabled "next" control and waits for the next page.
func (n *Navigator) Advance(ctx context.Context) State {
	if n.state != AtListing {
		return n.state
	}

	clicked, err := n.session.ClickFirstEnabled(ctx, n.rules.Next)
	if err != nil {
		n.logger.Warn("next page control failed", zap.Int("page", n.page), zap.Error(err))
		n.state = Failed
		return n.state
	}
	if !clicked {
		n.logger.Info("no more listing pages", zap.Int("page", n.page))
		n.state = NoMorePages
		return n.state
	}

	n.state = LoadingNext
	if err := n.session.WaitFor(ctx, n.rules.Container); err != nil {
		n.logger.Warn("next listing page did not load", zap.Int("page", n.page+1), zap.Error(err))
		n.state = Failed
		return n.state
	}
	n.page++
	n.state = AtListing
	return n.state
}
