package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/site-e2e/internal/errs"
	"github.com/kuitang/site-e2e/internal/obs"
	"github.com/kuitang/site-e2e/internal/ratelimit"
	"github.com/kuitang/site-e2e/internal/urlutil"
)

// ErrTabNotFound is returned by FocusTab when the requested tab does not
// exist or the context has only one tab.
var ErrTabNotFound = errs.New(errs.NotFound, "tab not found")

// DefaultScreenshotDir is where Screenshot writes when no directory is set.
const DefaultScreenshotDir = "reports/screenshots"

// timestampLayout is yyyymmddhhmmss.
const timestampLayout = "20060102150405"

// Actions wraps the playwright calls page flows are built from. Every
// action returns an error instead of panicking or silently continuing.
type Actions struct {
	page          playwright.Page
	logger        *slog.Logger
	limiter       *ratelimit.RateLimiter
	screenshotDir string
	timeout       float64
	now           func() time.Time
}

// Option configures Actions.
type Option func(*Actions)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Actions) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithLimiter paces NavigateTo per host.
func WithLimiter(limiter *ratelimit.RateLimiter) Option {
	return func(a *Actions) { a.limiter = limiter }
}

// WithScreenshotDir sets the screenshot directory.
func WithScreenshotDir(dir string) Option {
	return func(a *Actions) {
		if dir != "" {
			a.screenshotDir = dir
		}
	}
}

// WithTimeout sets the wait timeout in milliseconds used by WaitVisible.
func WithTimeout(ms float64) Option {
	return func(a *Actions) {
		if ms > 0 {
			a.timeout = ms
		}
	}
}

// WithClock overrides the clock used for screenshot names.
func WithClock(now func() time.Time) Option {
	return func(a *Actions) { a.now = now }
}

// NewActions wraps page.
func NewActions(page playwright.Page, opts ...Option) *Actions {
	a := &Actions{
		page:          page,
		logger:        obs.Pkg("browser"),
		screenshotDir: DefaultScreenshotDir,
		timeout:       60000,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Page returns the wrapped page.
func (a *Actions) Page() playwright.Page { return a.page }

// Logger returns the logger actions write to.
func (a *Actions) Logger() *slog.Logger { return a.logger }

// NavigateTo loads rawURL and waits for DOMContentLoaded.
func (a *Actions) NavigateTo(ctx context.Context, rawURL string) error {
	if a.limiter != nil {
		host, err := urlutil.Host(rawURL)
		if err != nil {
			return errs.Wrap(errs.InvalidArgument, fmt.Sprintf("invalid url %q", rawURL), err)
		}
		if err := a.limiter.Wait(ctx, host); err != nil {
			return fmt.Errorf("navigation throttle: %w", err)
		}
	}
	start := time.Now()
	if _, err := a.page.Goto(rawURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("navigate to %s: %w", rawURL, err)
	}
	a.logger.Info("navigated", "url", rawURL, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Click clicks the element.
func (a *Actions) Click(loc playwright.Locator) error {
	if err := loc.Click(); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

// Fill replaces the element's value with text.
func (a *Actions) Fill(loc playwright.Locator, text string) error {
	if err := loc.Fill(text); err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	return nil
}

// SelectOption selects the option whose value is value.
func (a *Actions) SelectOption(loc playwright.Locator, value string) error {
	if _, err := loc.SelectOption(playwright.SelectOptionValues{
		Values: playwright.StringSlice(value),
	}); err != nil {
		return fmt.Errorf("select option %q: %w", value, err)
	}
	return nil
}

// Text returns the element's text content.
func (a *Actions) Text(loc playwright.Locator) (string, error) {
	text, err := loc.TextContent()
	if err != nil {
		return "", fmt.Errorf("text content: %w", err)
	}
	return text, nil
}

// IsVisible reports whether the element is visible right now, without
// waiting.
func (a *Actions) IsVisible(loc playwright.Locator) (bool, error) {
	visible, err := loc.IsVisible()
	if err != nil {
		return false, fmt.Errorf("visibility check: %w", err)
	}
	return visible, nil
}

// WaitVisible waits until the first matching element is visible.
func (a *Actions) WaitVisible(loc playwright.Locator) error {
	if err := loc.First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(a.timeout),
	}); err != nil {
		return fmt.Errorf("wait for visible: %w", err)
	}
	return nil
}

// Attribute returns the named attribute, or "" when it is absent.
func (a *Actions) Attribute(loc playwright.Locator, name string) (string, error) {
	v, err := loc.GetAttribute(name)
	if err != nil {
		return "", fmt.Errorf("get attribute %q: %w", name, err)
	}
	return v, nil
}

// NewTab opens a new page in the same browser context.
func (a *Actions) NewTab() (playwright.Page, error) {
	page, err := a.page.Context().NewPage()
	if err != nil {
		return nil, fmt.Errorf("new tab: %w", err)
	}
	return page, nil
}

// OpenHrefInNewTab opens the element's href in a new tab. It returns a nil
// page and no error when the element has no href.
func (a *Actions) OpenHrefInNewTab(loc playwright.Locator) (playwright.Page, error) {
	href, err := a.Attribute(loc, "href")
	if err != nil {
		return nil, err
	}
	if href == "" {
		a.logger.Warn("element has no href; not opening a tab")
		return nil, nil
	}
	href = urlutil.ResolveHref(a.page.URL(), href)

	tab, err := a.NewTab()
	if err != nil {
		return nil, err
	}
	if _, err := tab.Goto(href, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return nil, fmt.Errorf("open %s in new tab: %w", href, err)
	}
	a.logger.Info("opened link in new tab", "url", href)
	return tab, nil
}

// FocusTab brings the index-th tab of the context to the front.
func (a *Actions) FocusTab(index int) (playwright.Page, error) {
	pages := a.page.Context().Pages()
	if len(pages) <= 1 || index < 0 || index >= len(pages) {
		a.logger.Warn("tab not found", "index", index, "tabs", len(pages))
		return nil, ErrTabNotFound
	}
	tab := pages[index]
	if err := tab.BringToFront(); err != nil {
		return nil, fmt.Errorf("focus tab %d: %w", index, err)
	}
	return tab, nil
}

// Screenshot saves a screenshot to <dir>/<label>_<yyyymmddhhmmss>_result.png
// and returns the path.
func (a *Actions) Screenshot(label string, fullPage bool) (string, error) {
	if label == "" {
		label = "screenshot"
	}
	path := filepath.Join(a.screenshotDir, ScreenshotName(label, a.now()))
	if err := Capture(a.page, path, fullPage); err != nil {
		return "", err
	}
	a.logger.Debug("screenshot saved", "path", path)
	return path, nil
}

// ScreenshotName is the file name Screenshot uses for label at t.
func ScreenshotName(label string, t time.Time) string {
	return fmt.Sprintf("%s_%s_result.png", label, t.Format(timestampLayout))
}

// Outcome is a finished test's result as it appears in result screenshot names.
type Outcome string

const (
	Passed  Outcome = "passed"
	Failed  Outcome = "failed"
	Skipped Outcome = "skipped"
)

// ResultScreenshotPath is where the end-of-test screenshot for testName goes:
// <dir>/<group>/<testName>_<yyyymmddhhmmss>_<outcome>.png, where group is the
// first two underscore-separated parts of testName.
func ResultScreenshotPath(dir, testName string, outcome Outcome, t time.Time) string {
	name := SanitizeName(testName)
	return filepath.Join(dir, ResultGroup(name), fmt.Sprintf("%s_%s_%s.png", name, t.Format(timestampLayout), outcome))
}

// Capture writes a PNG screenshot of page to path, creating parent directories.
func Capture(page playwright.Page, path string, fullPage bool) error {
	if page == nil {
		return errors.New("capture: nil page")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create screenshot dir: %w", err)
	}
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(fullPage),
	}); err != nil {
		return fmt.Errorf("screenshot %s: %w", path, err)
	}
	return nil
}
