// Package browser wraps playwright for the suite: launching an engine,
// opening pages against the site under test, and the action helpers page
// flows are written in.
package browser

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/site-e2e/internal/config"
	"github.com/kuitang/site-e2e/internal/obs"
)

// Session owns one playwright driver and one launched browser.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	engine  string
	timeout float64
	logger  *slog.Logger

	closeOnce sync.Once
}

// Launch starts playwright and the engine named in cfg.Browser.
func Launch(cfg *config.Config) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	var engine playwright.BrowserType
	switch cfg.Browser {
	case "", "chromium":
		engine = pw.Chromium
	case "firefox":
		engine = pw.Firefox
	case "webkit":
		engine = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("unknown browser %q", cfg.Browser)
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	}
	if cfg.SlowMo > 0 {
		opts.SlowMo = playwright.Float(float64(cfg.SlowMo.Milliseconds()))
	}
	b, err := engine.Launch(opts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch %s: %w", cfg.Browser, err)
	}

	s := &Session{
		pw:      pw,
		browser: b,
		engine:  engine.Name(),
		timeout: cfg.TimeoutMS(),
		logger:  obs.Pkg("browser"),
	}
	s.logger.Info("browser launched", "browser", s.engine, "headless", cfg.Headless, "version", b.Version())
	return s, nil
}

// Engine returns the launched engine name.
func (s *Session) Engine() string { return s.engine }

// Browser returns the launched browser.
func (s *Session) Browser() playwright.Browser { return s.browser }

// NewPage opens a fresh context and page with the configured default
// timeouts. Closing the returned context closes the page.
func (s *Session) NewPage() (playwright.BrowserContext, playwright.Page, error) {
	ctx, err := s.browser.NewContext()
	if err != nil {
		return nil, nil, fmt.Errorf("new browser context: %w", err)
	}
	ctx.SetDefaultTimeout(s.timeout)
	ctx.SetDefaultNavigationTimeout(s.timeout)

	page, err := ctx.NewPage()
	if err != nil {
		_ = ctx.Close()
		return nil, nil, fmt.Errorf("new page: %w", err)
	}
	return ctx, page, nil
}

// Close shuts the browser and the driver down. It is safe to call twice.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.browser != nil {
			err = s.browser.Close()
		}
		if s.pw != nil {
			if stopErr := s.pw.Stop(); err == nil {
				err = stopErr
			}
		}
	})
	return err
}
