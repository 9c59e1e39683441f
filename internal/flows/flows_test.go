package flows

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kuitang/site-e2e/internal/errs"
	"github.com/kuitang/site-e2e/internal/obs"
)

func TestParseSitePage(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]SitePage{
		"Home":       Home,
		"about":      About,
		" SERVICES ": Services,
		"contact":    Contact,
	} {
		got, err := ParseSitePage(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
	}

	_, err := ParseSitePage("Careers")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnknownPage))
	require.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
	require.Contains(t, err.Error(), "Careers")
}

func TestSitePage_ScreenshotLabel(t *testing.T) {
	t.Parallel()
	require.Equal(t, "navigated_to_about", About.ScreenshotLabel())
	require.Equal(t, "navigated_to_contact", Contact.ScreenshotLabel())
}

func TestNavigation_UnknownPageFailsBeforeTouchingBrowser(t *testing.T) {
	t.Parallel()
	n := &Navigation{}
	err := n.NavigateTo("Careers")
	require.ErrorIs(t, err, ErrUnknownPage)
}

func TestContactForm_LogValueRedacts(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := obs.New(&buf)
	logger.Info("contact form filled", "form", ContactForm{
		Name:          "John Doe",
		Email:         "johndoe@gmail.com",
		ContactNumber: "09187777776",
		Company:       "doers.org",
		JobTitle:      "quality assurance",
		Service:       "Cloud",
		Message:       "ultra long message",
	})

	out := buf.String()
	require.NotContains(t, out, "johndoe@gmail.com")
	require.NotContains(t, out, "09187777776")
	require.Contains(t, out, "gmail.com")
	require.Contains(t, out, `"service":"Cloud"`)
}

func testParseSitePage_RoundTripsCanonicalNames(t *rapid.T) {
	p := rapid.SampledFrom(SitePages).Draw(t, "page")
	upper := rapid.Bool().Draw(t, "upper")
	name := string(p)
	if upper {
		name = strings.ToUpper(name)
	}
	got, err := ParseSitePage(name)
	if err != nil {
		t.Fatalf("parse %q: %v", name, err)
	}
	if got != p {
		t.Fatalf("parse %q = %q, want %q", name, got, p)
	}
}

func TestParseSitePage_RoundTripsCanonicalNames(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testParseSitePage_RoundTripsCanonicalNames)
}
