package rod

import (
	"context"
	"fmt"
	"sync"
	"time"

	"schoolbus-uitest/internal/application/port/output"
	"schoolbus-uitest/internal/domain/entity"
	"schoolbus-uitest/internal/infrastructure/browser"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var (
	_ output.SessionFactory = (*Factory)(nil)
	_ output.BrowserSession = (*Session)(nil)
)

const (
	defaultTimeout      = 10 * time.Second
	defaultWindowWidth  = 1920
	defaultWindowHeight = 1080
)

type BrowserConfig struct {
	Headless   bool
	NoSandbox  bool
	SlowMotion time.Duration
	// Timeout bounds every element lookup.
	Timeout      time.Duration
	WindowWidth  int
	WindowHeight int
	// Bin is an explicit browser binary. Empty lets the launcher find or
	// download one.
	Bin string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:     false,
		NoSandbox:    true,
		Timeout:      defaultTimeout,
		WindowWidth:  defaultWindowWidth,
		WindowHeight: defaultWindowHeight,
	}
}

// Factory launches one browser process per session so no state leaks
// between scenarios.
type Factory struct {
	cfg    BrowserConfig
	logger output.LoggerPort
}

func NewFactory(cfg BrowserConfig, logger output.LoggerPort) *Factory {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.WindowWidth <= 0 || cfg.WindowHeight <= 0 {
		cfg.WindowWidth, cfg.WindowHeight = defaultWindowWidth, defaultWindowHeight
	}
	return &Factory{cfg: cfg, logger: logger.Named("rod")}
}

func (f *Factory) NewSession(ctx context.Context) (output.BrowserSession, error) {
	l := launcher.New().
		Headless(f.cfg.Headless).
		NoSandbox(f.cfg.NoSandbox).
		Delete("use-mock-keychain").
		Set("window-size", fmt.Sprintf("%d,%d", f.cfg.WindowWidth, f.cfg.WindowHeight))
	if f.cfg.Bin != "" {
		l = l.Bin(f.cfg.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launch browser: %w", entity.ErrSessionSetup, err)
	}

	b := rod.New().
		Context(ctx).
		ControlURL(controlURL).
		SlowMotion(f.cfg.SlowMotion).
		NoDefaultDevice()
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("%w: connect to browser: %w", entity.ErrSessionSetup, err)
	}
	// Detach from the setup context so the session outlives it.
	b = b.Context(context.Background())

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("%w: open page: %w", entity.ErrSessionSetup, err)
	}

	f.logger.Debug("Browser launched", "control_url", controlURL, "headless", f.cfg.Headless)

	return &Session{
		browser:  b,
		launcher: l,
		page:     page,
		timeout:  f.cfg.Timeout,
	}, nil
}

type Session struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
	closed   bool
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := browser.ValidateURL(url); err != nil {
		return err
	}

	page := s.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	return nil
}

// find waits up to the element timeout for loc to appear.
func (s *Session) find(ctx context.Context, loc entity.Locator) (*rod.Element, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	selector, isXPath := loc.Query()
	page := s.page.Context(ctx).Timeout(s.timeout)

	var (
		el  *rod.Element
		err error
	)
	if isXPath {
		el, err = page.ElementX(selector)
	} else {
		el, err = page.Element(selector)
	}
	if err != nil {
		return nil, browser.LookupError(ctx, loc, err)
	}
	return el.Context(ctx), nil
}

func (s *Session) Fill(ctx context.Context, loc entity.Locator, text string) error {
	el, err := s.find(ctx, loc)
	if err != nil {
		return err
	}

	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("input into %s: %w", loc, err)
	}
	return nil
}

func (s *Session) Click(ctx context.Context, loc entity.Locator) error {
	el, err := s.find(ctx, loc)
	if err != nil {
		return err
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.URL, nil
}

func (s *Session) ClearCookies(ctx context.Context) error {
	if err := (proto.NetworkClearBrowserCookies{}).Call(s.page.Context(ctx)); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	return nil
}

func (s *Session) Snapshot(ctx context.Context) (*entity.PageSnapshot, error) {
	page := s.page.Context(ctx)

	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("page info: %w", err)
	}

	snap := &entity.PageSnapshot{URL: info.URL, Title: info.Title}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to get HTML: %w", err)
	}
	snap.HTML = html

	raw, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return snap, nil
	}
	if shot, err := browser.EncodeScreenshot(raw); err == nil {
		snap.Screenshot = shot
	}
	return snap, nil
}

// Close shuts the browser down and removes its profile directory. It is
// safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	return err
}
