package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/napwatch/internal/config"
	"github.com/IshaanNene/napwatch/internal/types"
)

// BrowserLauncher starts headless Chromium sessions via Rod.
type BrowserLauncher struct {
	cfg        config.BrowserConfig
	navTimeout time.Duration
	logger     *slog.Logger
}

// NewBrowserLauncher creates a launcher for unattended, sandboxless Chromium.
func NewBrowserLauncher(cfg *config.Config, logger *slog.Logger) *BrowserLauncher {
	return &BrowserLauncher{
		cfg:        cfg.Browser,
		navTimeout: cfg.Site.NavigationTimeout,
		logger:     logger.With("component", "browser_launcher"),
	}
}

// Type returns the engine identifier.
func (bl *BrowserLauncher) Type() string { return "browser" }

// Launch starts a fresh Chromium process and opens a single page on it.
func (bl *BrowserLauncher) Launch(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &types.SessionError{Engine: bl.Type(), Err: err}
	}

	l := launcher.New().
		Headless(bl.cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled")

	if bl.cfg.NoSandbox {
		l = l.NoSandbox(true).Set("disable-setuid-sandbox")
	}
	if bl.cfg.Bin != "" {
		l = l.Bin(bl.cfg.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, &types.SessionError{Engine: bl.Type(), Err: fmt.Errorf("launch browser: %w", err)}
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, &types.SessionError{Engine: bl.Type(), Err: fmt.Errorf("connect browser: %w", err)}
	}

	page, err := bl.openPage(browser)
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, &types.SessionError{Engine: bl.Type(), Err: fmt.Errorf("open page: %w", err)}
	}

	bl.logger.Debug("browser launched",
		"headless", bl.cfg.Headless,
		"no_sandbox", bl.cfg.NoSandbox,
		"stealth", bl.cfg.Stealth,
	)

	return &browserSession{
		browser:    browser,
		page:       page,
		launcher:   l,
		navTimeout: bl.navTimeout,
		logger:     bl.logger,
	}, nil
}

// openPage creates the session page, applying stealth patches and the user agent.
func (bl *BrowserLauncher) openPage(browser *rod.Browser) (*rod.Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if bl.cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, err
	}

	if len(bl.cfg.UserAgents) > 0 {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: bl.cfg.UserAgents[0]})
		if err != nil {
			bl.logger.Warn("failed to set user agent", "error", err)
		}
	}
	return page, nil
}

// browserSession is a Session backed by one Chromium page.
type browserSession struct {
	browser    *rod.Browser
	page       *rod.Page
	launcher   *launcher.Launcher
	navTimeout time.Duration
	logger     *slog.Logger
}

func (s *browserSession) Navigate(ctx context.Context, url string) error {
	navCtx := ctx
	if s.navTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, s.navTimeout)
		defer cancel()
	}

	start := time.Now()
	p := s.page.Context(navCtx)
	if err := p.Navigate(url); err != nil {
		return &types.FetchError{URL: url, Err: err}
	}
	if err := p.WaitLoad(); err != nil {
		return &types.FetchError{URL: url, Err: fmt.Errorf("wait load: %w", err)}
	}

	s.logger.Debug("page loaded", "url", url, "duration", time.Since(start))
	return nil
}

func (s *browserSession) Elements(ctx context.Context, sel types.Selector) ([]Element, error) {
	p := s.page.Context(ctx)

	var (
		found rod.Elements
		err   error
	)
	if sel.IsXPath() {
		found, err = p.ElementsX(sel.Expr)
	} else {
		found, err = p.Elements(sel.Expr)
	}
	if err != nil {
		var notFound *rod.ElementNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]Element, len(found))
	for i, el := range found {
		out[i] = rodElement{el: el}
	}
	return out, nil
}

func (s *browserSession) URL() string {
	info, err := s.page.Info()
	if err != nil || info == nil {
		return ""
	}
	return info.URL
}

func (s *browserSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	return err
}

// rodElement adapts *rod.Element to Element.
type rodElement struct {
	el *rod.Element
}

func (e rodElement) Text() (string, error) {
	text, err := e.el.Text()
	if err != nil {
		return "", staleElementErr(err)
	}
	return strings.TrimSpace(text), nil
}

func (e rodElement) Attr(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", false, staleElementErr(err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// staleElementErr marks errors for a node that was detached or re-rendered
// after lookup as types.ErrElementNotFound. Other errors pass through.
func staleElementErr(err error) error {
	var (
		notFound    *rod.ElementNotFoundError
		objNotFound *rod.ObjectNotFoundError
	)
	switch {
	case errors.Is(err, cdp.ErrObjNotFound),
		errors.Is(err, cdp.ErrNotAttachedToActivePage),
		errors.Is(err, cdp.ErrNodeNotFoundAtPos),
		errors.As(err, &notFound),
		errors.As(err, &objNotFound):
		return fmt.Errorf("%w: %w", types.ErrElementNotFound, err)
	default:
		return err
	}
}
