package flows

import (
	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/site-e2e/internal/browser"
)

// Manager hands tests the flows for one page, all sharing the same actions
// and logger.
type Manager struct {
	actions    *browser.Actions
	dashboard  *Dashboard
	navigation *Navigation
}

// NewManager builds the flows for page.
func NewManager(page playwright.Page, opts ...browser.Option) *Manager {
	actions := browser.NewActions(page, opts...)
	return &Manager{
		actions:    actions,
		dashboard:  NewDashboard(actions),
		navigation: NewNavigation(actions),
	}
}

// Actions returns the shared action wrappers.
func (m *Manager) Actions() *browser.Actions { return m.actions }

// Dashboard returns the home page flow.
func (m *Manager) Dashboard() *Dashboard { return m.dashboard }

// Navigation returns the top menu flow.
func (m *Manager) Navigation() *Navigation { return m.navigation }
