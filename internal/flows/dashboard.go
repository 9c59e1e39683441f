// Package flows composes page locators and browser actions into the user
// journeys the suite exercises.
package flows

import (
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/site-e2e/internal/browser"
	"github.com/kuitang/site-e2e/internal/pages"
)

// Dashboard drives the home page.
type Dashboard struct {
	actions *browser.Actions
	loc     *pages.Dashboard
	logger  *slog.Logger
}

// NewDashboard builds the home page flow over actions.
func NewDashboard(actions *browser.Actions) *Dashboard {
	return &Dashboard{
		actions: actions,
		loc:     pages.NewDashboard(actions.Page()),
		logger:  actions.Logger().With("flow", "dashboard"),
	}
}

// Locators exposes the page's locators to tests.
func (d *Dashboard) Locators() *pages.Dashboard { return d.loc }

// Verify waits for the home banner heading.
func (d *Dashboard) Verify() error {
	if err := d.actions.WaitVisible(d.loc.HomeBanner); err != nil {
		return fmt.Errorf("home banner %q: %w", pages.HomeBannerHeading, err)
	}
	d.logger.Info("dashboard verified")
	return nil
}

// VerifySections waits for every section heading on the home page.
func (d *Dashboard) VerifySections() error {
	sections := []struct {
		name string
		loc  playwright.Locator
	}{
		{pages.OurServicesHeading, d.loc.OurServices},
		{pages.WhyStratpointHeader, d.loc.WhyStratpoint},
		{pages.LetsConnectHeading, d.loc.LetsConnect},
	}
	for _, s := range sections {
		if err := d.actions.WaitVisible(s.loc); err != nil {
			return fmt.Errorf("section %q: %w", s.name, err)
		}
	}
	return nil
}

// FillForm fills every contact field, picks the service, ticks the privacy
// consent and takes a screenshot. It does not submit.
func (d *Dashboard) FillForm(form ContactForm) error {
	fields := []struct {
		name  string
		loc   playwright.Locator
		value string
	}{
		{"name", d.loc.Name, form.Name},
		{"email", d.loc.EmailAddress, form.Email},
		{"contact number", d.loc.ContactNumber, form.ContactNumber},
		{"company", d.loc.CompanyName, form.Company},
		{"job title", d.loc.JobTitle, form.JobTitle},
	}
	for _, f := range fields {
		if err := d.actions.Fill(f.loc, f.value); err != nil {
			return fmt.Errorf("%s field: %w", f.name, err)
		}
	}
	if err := d.actions.SelectOption(d.loc.Service, form.Service); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	if err := d.actions.Fill(d.loc.Message, form.Message); err != nil {
		return fmt.Errorf("message field: %w", err)
	}
	if err := d.actions.Click(d.loc.PrivacyConsent); err != nil {
		return fmt.Errorf("privacy consent: %w", err)
	}
	if _, err := d.actions.Screenshot("form_filled", true); err != nil {
		return err
	}
	d.logger.Info("contact form filled", "form", form)
	return nil
}

// SubmitGetInTouch clicks the GET IN TOUCH button.
func (d *Dashboard) SubmitGetInTouch() error {
	if err := d.actions.Click(d.loc.GetInTouch); err != nil {
		return fmt.Errorf("get in touch: %w", err)
	}
	d.logger.Info("contact form submitted")
	return nil
}

// OpenPrivacyPolicy opens the privacy policy link in a new tab, brings that
// tab to the front, then returns focus to the first tab. It returns the
// policy tab, or nil when the link has no href.
func (d *Dashboard) OpenPrivacyPolicy() (playwright.Page, error) {
	tab, err := d.actions.OpenHrefInNewTab(d.loc.PrivacyPolicy)
	if err != nil {
		return nil, err
	}
	if tab == nil {
		return nil, nil
	}
	if _, err := d.actions.FocusTab(1); err != nil {
		return nil, err
	}
	if _, err := d.actions.FocusTab(0); err != nil {
		return nil, err
	}
	return tab, nil
}
