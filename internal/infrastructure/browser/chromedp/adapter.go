// Package chromedp drives Chrome through the DevTools protocol with chromedp.
// It implements the same session contract as the rod adapter.
package chromedp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"schoolbus-uitest/internal/application/port/output"
	"schoolbus-uitest/internal/domain/entity"
	"schoolbus-uitest/internal/infrastructure/browser"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

var (
	_ output.SessionFactory = (*Factory)(nil)
	_ output.BrowserSession = (*Session)(nil)
)

const (
	defaultTimeout    = 10 * time.Second
	screenshotQuality = 80
)

type BrowserConfig struct {
	Headless     bool
	NoSandbox    bool
	Timeout      time.Duration
	WindowWidth  int
	WindowHeight int
	ExecPath     string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:     false,
		NoSandbox:    true,
		Timeout:      defaultTimeout,
		WindowWidth:  1920,
		WindowHeight: 1080,
	}
}

type Factory struct {
	cfg    BrowserConfig
	logger output.LoggerPort
}

func NewFactory(cfg BrowserConfig, logger output.LoggerPort) *Factory {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.WindowWidth <= 0 || cfg.WindowHeight <= 0 {
		cfg.WindowWidth, cfg.WindowHeight = 1920, 1080
	}
	return &Factory{cfg: cfg, logger: logger.Named("chromedp")}
}

func (f *Factory) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.cfg.Headless),
		chromedp.WindowSize(f.cfg.WindowWidth, f.cfg.WindowHeight),
	)
	if f.cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if f.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(f.cfg.ExecPath))
	}
	return opts
}

// NewSession starts a fresh browser process. The browser lives until Close,
// independent of ctx, but startup is abandoned when ctx is done.
func (f *Factory) NewSession(ctx context.Context) (output.BrowserSession, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), f.allocatorOptions()...)

	logf := func(format string, args ...any) {
		f.logger.Debug(fmt.Sprintf(format, args...))
	}
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logf),
		chromedp.WithErrorf(logf),
	)

	stop := context.AfterFunc(ctx, browserCancel)
	err := chromedp.Run(browserCtx)
	stop()
	if err != nil {
		browserCancel()
		allocCancel()
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("%w: start browser: %w", entity.ErrSessionSetup, err)
	}

	f.logger.Debug("Browser launched", "headless", f.cfg.Headless)

	return &Session{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		timeout:     f.cfg.Timeout,
	}, nil
}

type Session struct {
	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
	closed      bool
}

// run executes actions on the browser, aborting when the caller's ctx is done.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func queryOptions(loc entity.Locator) (string, []chromedp.QueryOption) {
	selector, isXPath := loc.Query()
	if isXPath {
		return selector, []chromedp.QueryOption{chromedp.BySearch}
	}
	return selector, []chromedp.QueryOption{chromedp.ByQuery}
}

// waitFor blocks until loc is in the DOM or the element timeout passes.
func (s *Session) waitFor(ctx context.Context, loc entity.Locator) (string, []chromedp.QueryOption, error) {
	if err := loc.Validate(); err != nil {
		return "", nil, err
	}
	selector, opts := queryOptions(loc)
	if err := s.run(ctx, s.timeout, chromedp.WaitReady(selector, opts...)); err != nil {
		return "", nil, browser.LookupError(ctx, loc, err)
	}
	return selector, opts, nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := browser.ValidateURL(url); err != nil {
		return err
	}
	if err := s.run(ctx, 0, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (s *Session) Fill(ctx context.Context, loc entity.Locator, text string) error {
	selector, opts, err := s.waitFor(ctx, loc)
	if err != nil {
		return err
	}
	if err := s.run(ctx, s.timeout,
		chromedp.Clear(selector, opts...),
		chromedp.SendKeys(selector, text, opts...),
	); err != nil {
		return fmt.Errorf("input into %s: %w", loc, err)
	}
	return nil
}

func (s *Session) Click(ctx context.Context, loc entity.Locator) error {
	selector, opts, err := s.waitFor(ctx, loc)
	if err != nil {
		return err
	}
	if err := s.run(ctx, s.timeout, chromedp.Click(selector, append(opts, chromedp.NodeVisible)...)); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, 0, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("location: %w", err)
	}
	return url, nil
}

func (s *Session) ClearCookies(ctx context.Context) error {
	if err := s.run(ctx, 0, network.ClearBrowserCookies()); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	return nil
}

func (s *Session) Snapshot(ctx context.Context) (*entity.PageSnapshot, error) {
	snap := &entity.PageSnapshot{}

	err := s.run(ctx, 0,
		chromedp.Location(&snap.URL),
		chromedp.Title(&snap.Title),
		chromedp.ActionFunc(func(ctx context.Context) error {
			node, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return err
			}
			snap.HTML, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("capture page: %w", err)
	}

	var raw []byte
	if err := s.run(ctx, 0, chromedp.FullScreenshot(&raw, screenshotQuality)); err != nil {
		return snap, nil
	}
	if shot, err := browser.EncodeScreenshot(raw); err == nil {
		snap.Screenshot = shot
	}
	return snap, nil
}

// Close stops the browser process. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	err := chromedp.Cancel(s.ctx)
	s.cancel()
	s.allocCancel()
	return err
}
