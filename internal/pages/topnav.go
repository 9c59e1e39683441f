package pages

import "github.com/playwright-community/playwright-go"

// TopNav is the site-wide navigation bar and the marker text each
// destination shows once loaded.
type TopNav struct {
	Home     playwright.Locator
	About    playwright.Locator
	Services playwright.Locator
	Contact  playwright.Locator

	HomeMarker     playwright.Locator
	AboutMarker    playwright.Locator
	ServicesMarker playwright.Locator
}

// NewTopNav builds the navigation locators for page.
func NewTopNav(page playwright.Page) *TopNav {
	return &TopNav{
		Home: page.Locator("a:has-text('Home')"),
		// The About entry carries a badge, so its accessible name is "About 3".
		About:    page.GetByRole(*playwright.AriaRoleLink, playwright.PageGetByRoleOptions{Name: "About 3"}),
		Services: page.Locator("a:has-text('Services')"),
		Contact: page.Locator("nav#top-menu-nav").
			Locator("xpath=//ul[@id='top-menu']/li").
			GetByRole(*playwright.AriaRoleLink, playwright.LocatorGetByRoleOptions{Name: "Contact Us"}),

		HomeMarker:     page.Locator("text=Welcome to Home"),
		AboutMarker:    page.Locator("text=About Us"),
		ServicesMarker: page.Locator("text=Our Services"),
	}
}
