// Package pages holds the locators for the marketing site, one struct per
// page region. Locators are lazy: building them never touches the browser.
package pages

import "github.com/playwright-community/playwright-go"

// Heading names on the home page.
const (
	HomeBannerHeading   = "Fast forward to the future"
	OurServicesHeading  = "OUR SERVICES"
	WhyStratpointHeader = "WHY STRATPOINT?"
	LetsConnectHeading  = "Let's connect"
)

// Dashboard is the home page: banner, section headings and the contact form.
type Dashboard struct {
	HomeBanner    playwright.Locator
	OurServices   playwright.Locator
	WhyStratpoint playwright.Locator
	LetsConnect   playwright.Locator

	Name           playwright.Locator
	EmailAddress   playwright.Locator
	ContactNumber  playwright.Locator
	CompanyName    playwright.Locator
	JobTitle       playwright.Locator
	Service        playwright.Locator
	Message        playwright.Locator
	PrivacyConsent playwright.Locator
	GetInTouch     playwright.Locator
	PrivacyPolicy  playwright.Locator
}

// NewDashboard builds the dashboard locators for page.
func NewDashboard(page playwright.Page) *Dashboard {
	return &Dashboard{
		HomeBanner:    heading(page, HomeBannerHeading),
		OurServices:   heading(page, OurServicesHeading),
		WhyStratpoint: heading(page, WhyStratpointHeader),
		LetsConnect:   heading(page, LetsConnectHeading),

		Name: page.GetByRole(*playwright.AriaRoleTextbox, playwright.PageGetByRoleOptions{
			Name:  "Name",
			Exact: playwright.Bool(true),
		}),
		EmailAddress:  textbox(page, "Email Address"),
		ContactNumber: textbox(page, "Contact Number"),
		CompanyName:   textbox(page, "Company Name"),
		JobTitle:      textbox(page, "Job Title"),
		Service: page.GetByRole(*playwright.AriaRoleCombobox, playwright.PageGetByRoleOptions{
			Name: "service",
		}),
		Message: page.Locator("[placeholder='Message']"),
		PrivacyConsent: page.GetByRole(*playwright.AriaRoleCheckbox, playwright.PageGetByRoleOptions{
			Name: "We value your privacy and we",
		}),
		GetInTouch: page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
			Name: "GET IN TOUCH",
		}),
		PrivacyPolicy: page.GetByRole(*playwright.AriaRoleLink, playwright.PageGetByRoleOptions{
			Name: "Privacy Policy",
		}),
	}
}

func heading(page playwright.Page, name string) playwright.Locator {
	return page.GetByRole(*playwright.AriaRoleHeading, playwright.PageGetByRoleOptions{
		Name:  name,
		Exact: playwright.Bool(true),
	})
}

func textbox(page playwright.Page, name string) playwright.Locator {
	return page.GetByRole(*playwright.AriaRoleTextbox, playwright.PageGetByRoleOptions{Name: name})
}
