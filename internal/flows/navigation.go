package flows

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/site-e2e/internal/browser"
	"github.com/kuitang/site-e2e/internal/errs"
	"github.com/kuitang/site-e2e/internal/pages"
)

// SitePage names a top navigation destination.
type SitePage string

const (
	Home     SitePage = "Home"
	About    SitePage = "About"
	Services SitePage = "Services"
	Contact  SitePage = "Contact"
)

// SitePages lists every destination in menu order.
var SitePages = []SitePage{Home, About, Services, Contact}

// ErrUnknownPage is returned for a destination the menu does not have.
var ErrUnknownPage = errs.New(errs.InvalidArgument, "unknown page")

// ParseSitePage matches name against SitePages, ignoring case and
// surrounding space.
func ParseSitePage(name string) (SitePage, error) {
	name = strings.TrimSpace(name)
	for _, p := range SitePages {
		if strings.EqualFold(name, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPage, name)
}

// ScreenshotLabel is the label used for the screenshot taken after arriving
// on p.
func (p SitePage) ScreenshotLabel() string {
	return "navigated_to_" + strings.ToLower(string(p))
}

// Navigation drives the top menu.
type Navigation struct {
	actions *browser.Actions
	nav     *pages.TopNav
	logger  *slog.Logger
}

// NewNavigation builds the top menu flow over actions.
func NewNavigation(actions *browser.Actions) *Navigation {
	return &Navigation{
		actions: actions,
		nav:     pages.NewTopNav(actions.Page()),
		logger:  actions.Logger().With("flow", "navigation"),
	}
}

// NavigateTo clicks the menu entry for page, waits for the destination's
// marker and takes a screenshot.
func (n *Navigation) NavigateTo(page SitePage) error {
	link, marker, err := n.target(page)
	if err != nil {
		return err
	}
	if err := n.actions.Click(link); err != nil {
		return fmt.Errorf("open %s: %w", page, err)
	}
	if marker != nil {
		if err := n.actions.WaitVisible(marker); err != nil {
			return fmt.Errorf("%s landing marker: %w", page, err)
		}
	}
	if _, err := n.actions.Screenshot(page.ScreenshotLabel(), true); err != nil {
		return err
	}
	n.logger.Info("navigated", "page", string(page))
	return nil
}

func (n *Navigation) target(page SitePage) (link, marker playwright.Locator, err error) {
	switch page {
	case Home:
		return n.nav.Home, n.nav.HomeMarker, nil
	case About:
		return n.nav.About, n.nav.AboutMarker, nil
	case Services:
		return n.nav.Services, n.nav.ServicesMarker, nil
	case Contact:
		return n.nav.Contact, nil, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownPage, string(page))
}
