// Package testutil holds scripted fakes shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/article-crawler/internal/entity"
	"github.com/user/article-crawler/internal/repository"
)

const listingLocation = "listing"

// Site is the scripted content a FakeSession serves.
type Site struct {
	ListingURL string
	// Listings are the markups of consecutive listing pages.
	Listings []string
	// Articles maps absolute article URLs to their markup.
	Articles map[string]string
	// EndlessListing keeps "next" enabled forever, repeating the last listing page.
	EndlessListing bool
	// NavigateErrs fails navigation to specific URLs without leaving the current page.
	NavigateErrs map[string]error
	// CommitErrs fails navigation to specific URLs after the browser already moved there,
	// like a page that never finishes loading.
	CommitErrs map[string]error
	// BackErr fails every Back call.
	BackErr error
	// FailNextLoad makes the listing container never appear after a "next" click.
	FailNextLoad bool
}

// FakeSession is an in-memory BrowserSession driven by a Site.
type FakeSession struct {
	site *Site

	mu       sync.Mutex
	location string
	listing  int
	history  []string
	waitFail bool

	Navigations []string
	Clicks      int
	Pacings     int
	Releases    int
}

func NewFakeSession(site *Site) *FakeSession {
	return &FakeSession{site: site}
}

func (s *FakeSession) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Navigations = append(s.Navigations, url)
	if err, ok := s.site.NavigateErrs[url]; ok {
		return err
	}
	if err, ok := s.site.CommitErrs[url]; ok {
		s.history = append(s.history, s.location)
		s.location = url
		return err
	}
	switch {
	case url == s.site.ListingURL:
		s.history = append(s.history, s.location)
		s.location = listingLocation
		s.listing = 0
	case s.site.Articles[url] != "":
		s.history = append(s.history, s.location)
		s.location = url
	default:
		return fmt.Errorf("%w: %s", repository.ErrNavigationTimeout, url)
	}
	return nil
}

func (s *FakeSession) Back(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.site.BackErr != nil {
		return s.site.BackErr
	}
	if len(s.history) == 0 {
		return nil
	}
	s.location = s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	return nil
}

func (s *FakeSession) WaitFor(_ context.Context, selector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.location != listingLocation || s.waitFail {
		return fmt.Errorf("%w: %s", repository.ErrNavigationTimeout, selector)
	}
	return nil
}

func (s *FakeSession) ClickFirstEnabled(_ context.Context, _ []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Clicks++
	if s.location != listingLocation {
		return false, nil
	}
	switch {
	case s.listing+1 < len(s.site.Listings):
		s.listing++
	case s.site.EndlessListing:
	default:
		return false, nil
	}
	if s.site.FailNextLoad {
		s.waitFail = true
	}
	return true, nil
}

func (s *FakeSession) SimulateHumanPacing(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Pacings++
	return nil
}

func (s *FakeSession) Snapshot(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.location == listingLocation {
		return s.site.Listings[s.listing], nil
	}
	return s.site.Articles[s.location], nil
}

func (s *FakeSession) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Releases++
}

// Stats returns a consistent copy of the counters.
func (s *FakeSession) Stats() (clicks, releases int, navigations []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Clicks, s.Releases, append([]string(nil), s.Navigations...)
}

// FakeLauncher hands out a new FakeSession per Acquire. AcquireErrs are returned,
// one per call, before any session is created.
type FakeLauncher struct {
	Site        *Site
	AcquireErrs []error
	// Gate, when set, blocks Acquire until it is closed.
	Gate chan struct{}

	mu       sync.Mutex
	calls    int
	Sessions []*FakeSession
}

func (l *FakeLauncher) Acquire(ctx context.Context, _ entity.CrawlSessionConfig) (repository.BrowserSession, error) {
	if l.Gate != nil {
		select {
		case <-l.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls <= len(l.AcquireErrs) && l.AcquireErrs[l.calls-1] != nil {
		return nil, l.AcquireErrs[l.calls-1]
	}
	s := NewFakeSession(l.Site)
	l.Sessions = append(l.Sessions, s)
	return s, nil
}

// Calls returns how many times Acquire was invoked.
func (l *FakeLauncher) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// Released returns the total Release count across sessions.
func (l *FakeLauncher) Released() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, s := range l.Sessions {
		_, r, _ := s.Stats()
		total += r
	}
	return total
}
