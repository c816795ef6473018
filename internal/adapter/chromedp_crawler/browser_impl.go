package chromedp_crawler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/article-crawler/internal/entity"
	"github.com/user/article-crawler/internal/proxy"
	"github.com/user/article-crawler/internal/repository"
)

// Launcher starts one headless Chrome per crawl session.
type Launcher struct {
	identities *proxy.Manager
	execPath   string
	logger     *zap.Logger
}

// NewLauncher creates a launcher. An empty execPath lets chromedp find Chrome.
func NewLauncher(identities *proxy.Manager, execPath string, logger *zap.Logger) *Launcher {
	return &Launcher{identities: identities, execPath: execPath, logger: logger}
}

// Acquire starts a browser with a rotated identity and the stealth script installed.
func (l *Launcher) Acquire(ctx context.Context, cfg entity.CrawlSessionConfig) (repository.BrowserSession, error) {
	id := l.identities.Next()
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(cfg, id, l.execPath)...)

	sugar := l.logger.Sugar()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	)

	// The first Run starts the browser and must use browserCtx itself.
	err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
		return err
	}))
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", repository.ErrDriverInit, err)
	}

	l.logger.Info("browser started", zap.String("user_agent", id.UserAgent), zap.Bool("proxy", id.Proxy != ""))
	return &session{
		ctx:     browserCtx,
		cancel:  func() { browserCancel(); allocCancel() },
		timeout: cfg.PerRequestTimeout,
		delay:   cfg.DelayRange,
		logger:  l.logger,
	}, nil
}

type session struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	delay   entity.DelayRange
	logger  *zap.Logger
	once    sync.Once
}

// run executes actions with the per-request timeout. Cancelling ctx aborts them.
func (s *session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return classify(runCtx, err)
	}
	return nil
}

func classify(runCtx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", repository.ErrNavigationTimeout, err)
	}
	var cdErr *cdproto.Error
	if errors.As(err, &cdErr) && strings.Contains(strings.ToLower(cdErr.Message), "node") {
		return fmt.Errorf("%w: %v", repository.ErrStaleReference, err)
	}
	return err
}

func (s *session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return pause(ctx, s.delay.Min, s.delay.Max)
}

func (s *session) Back(ctx context.Context) error {
	return s.run(ctx, chromedp.NavigateBack())
}

func (s *session) WaitFor(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *session) ClickFirstEnabled(ctx context.Context, selectors []string) (bool, error) {
	script, err := clickScript(selectors)
	if err != nil {
		return false, err
	}
	var clicked bool
	if err := s.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return false, err
	}
	if !clicked {
		return false, nil
	}
	return true, pause(ctx, s.delay.Min, s.delay.Max)
}

// SimulateHumanPacing scrolls down a random distance and sometimes back up a little.
func (s *session) SimulateHumanPacing(ctx context.Context) error {
	down := 300 + rand.IntN(501)
	if err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", down), nil)); err != nil {
		return err
	}
	if err := pause(ctx, 500*time.Millisecond, 1500*time.Millisecond); err != nil {
		return err
	}
	if rand.Float64() >= 0.3 {
		return nil
	}
	up := 100 + rand.IntN(201)
	if err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, -%d)", up), nil)); err != nil {
		return err
	}
	return pause(ctx, 300*time.Millisecond, 800*time.Millisecond)
}

func (s *session) Snapshot(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (s *session) Release() {
	s.once.Do(func() {
		if err := chromedp.Cancel(s.ctx); err != nil {
			s.logger.Debug("browser did not close cleanly", zap.Error(err))
		}
		s.cancel()
		s.logger.Info("browser released")
	})
}

// pause sleeps for a random duration in [lo, hi] or until ctx is done.
func pause(ctx context.Context, lo, hi time.Duration) error {
	d := lo
	if hi > lo {
		d += rand.N(hi - lo + 1)
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
