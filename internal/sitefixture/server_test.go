package sitefixture

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kuitang/site-e2e/internal/obs"
	"github.com/kuitang/site-e2e/internal/ratelimit"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	opts = append([]Option{WithLogger(obs.Discard())}, opts...)
	s, err := New(opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func get(t *testing.T, rawURL string) (int, string) {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func validForm() url.Values {
	return url.Values{
		"name":            {"John Doe"},
		"email":           {"johndoe@gmail.com"},
		"contact_number":  {"09187777776"},
		"company":         {"doers.org"},
		"job_title":       {"quality assurance"},
		"service":         {"Cloud"},
		"message":         {"ultra long message"},
		"privacy_consent": {"yes"},
	}
}

func TestHome_HasEveryLocatorTarget(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	status, body := get(t, ts.URL+"/")
	require.Equal(t, http.StatusOK, status)
	for _, want := range []string{
		`<nav id="top-menu-nav">`,
		`<ul id="top-menu">`,
		`About <span class="badge">3</span>`,
		`>Contact Us</a>`,
		`<h1>Fast forward to the future</h1>`,
		`Welcome to Home`,
		`<h2>OUR SERVICES</h2>`,
		`<h2>WHY STRATPOINT?</h2>`,
		`<h2>Let's connect</h2>`,
		`<label for="name">Name</label>`,
		`Email Address`,
		`Contact Number`,
		`Company Name`,
		`Job Title`,
		`aria-label="service"`,
		`<option value="Cloud">Cloud</option>`,
		`placeholder="Message"`,
		`type="checkbox"`,
		`We value your privacy and we`,
		`<a href="/privacy">Privacy Policy</a>`,
		`<button type="submit">GET IN TOUCH</button>`,
	} {
		require.Contains(t, body, want)
	}
}

func TestContentPages_RenderSanitizedMarkdown(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	for path, heading := range map[string]string{
		"/about":    "About Us",
		"/services": "Our Services",
		"/privacy":  "Privacy Policy",
	} {
		status, body := get(t, ts.URL+path)
		require.Equal(t, http.StatusOK, status, path)
		require.Contains(t, body, heading+"</h1>", path)
		require.NotContains(t, body, "<script", path)
	}

	status, _ := get(t, ts.URL+"/careers")
	require.Equal(t, http.StatusNotFound, status)
}

func TestRenderMarkdown_StripsScripts(t *testing.T) {
	t.Parallel()
	out := string(renderMarkdown([]byte("# Hi\n\n<script>alert(1)</script>\n\n[x](javascript:alert(1))")))
	require.Contains(t, out, "Hi</h1>")
	require.NotContains(t, out, "<script")
	require.NotContains(t, out, "javascript:")
}

func TestSubmit_AcceptsValidForm(t *testing.T) {
	t.Parallel()
	s, ts := newTestServer(t)

	resp, err := http.PostForm(ts.URL+"/contact", validForm())
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "Thanks John Doe")

	subs := s.Submissions()
	require.Len(t, subs, 1)
	require.Equal(t, "johndoe@gmail.com", subs[0].Email)
	require.Equal(t, "Cloud", subs[0].Service)
}

func TestSubmit_RejectsIncompleteForms(t *testing.T) {
	t.Parallel()
	s, ts := newTestServer(t)

	cases := map[string]func(url.Values){
		"no name":       func(v url.Values) { v.Del("name") },
		"bad email":     func(v url.Values) { v.Set("email", "johndoe") },
		"no service":    func(v url.Values) { v.Set("service", "") },
		"other service": func(v url.Values) { v.Set("service", "Catering") },
		"no consent":    func(v url.Values) { v.Del("privacy_consent") },
	}
	for name, mutate := range cases {
		form := validForm()
		mutate(form)
		resp, err := http.PostForm(ts.URL+"/contact", form)
		require.NoError(t, err, name)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
		require.Contains(t, string(body), `role="alert"`, name)
	}
	require.Empty(t, s.Submissions())
}

func TestSubmit_RateLimited(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t, WithFormLimit(ratelimit.Config{RemoteRPS: 0.001, RemoteBurst: 2}))

	var statuses []int
	for range 3 {
		resp, err := http.PostForm(ts.URL+"/contact", validForm())
		require.NoError(t, err)
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestSubmission_LogValueRedacts(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	sub := Submission{Name: "Jane Doe", Email: "jane@example.com", ContactNumber: "09181234567", Service: "Data"}
	obs.New(&buf).Info("contact form accepted", "form", sub)

	require.NotContains(t, buf.String(), "jane@example.com")
	require.NotContains(t, buf.String(), "09181234567")
	require.Contains(t, buf.String(), "***@example.com")
	require.Contains(t, buf.String(), `"service":"Data"`)
}

func TestExport_WritesEveryPage(t *testing.T) {
	t.Parallel()
	s, err := New(WithLogger(obs.Discard()))
	require.NoError(t, err)
	defer s.Close()

	dir := t.TempDir()
	paths, err := s.Export(dir)
	require.NoError(t, err)
	require.Len(t, paths, 5)

	index, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(index), "Fast forward to the future")

	privacy, err := os.ReadFile(filepath.Join(dir, "privacy.html"))
	require.NoError(t, err)
	require.Contains(t, string(privacy), "Privacy Policy</h1>")
}
