// Package browser holds the Playwright tests for the marketing site. Every
// test gets its page and flows through SetupSuite(t).NewManager(t).
//
// With no base URL configured the suite starts the local site fixture and
// runs against that; set BASE_URL (or the urls file) to target a live site.
package browser

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kuitang/site-e2e/internal/artifacts"
	sitebrowser "github.com/kuitang/site-e2e/internal/browser"
	"github.com/kuitang/site-e2e/internal/config"
	"github.com/kuitang/site-e2e/internal/datafile"
	"github.com/kuitang/site-e2e/internal/flows"
	"github.com/kuitang/site-e2e/internal/obs"
	"github.com/kuitang/site-e2e/internal/ratelimit"
	"github.com/kuitang/site-e2e/internal/sitefixture"
)

var suiteMu sync.Mutex
var sharedSuite *SuiteEnv

// SuiteEnv is shared by every test in the package.
type SuiteEnv struct {
	Config    *config.Config
	BaseURL   string
	Site      *sitefixture.Server // nil against a live site
	Artifacts *artifacts.Store    // nil when uploads are off
	Limiter   *ratelimit.RateLimiter
	RunID     string

	server *httptest.Server

	sessionMu  sync.Mutex
	session    *sitebrowser.Session
	sessionErr error
}

// SetupSuite returns the shared suite environment, creating it on first use.
func SetupSuite(t *testing.T) *SuiteEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	suiteMu.Lock()
	defer suiteMu.Unlock()
	if sharedSuite != nil {
		return sharedSuite
	}

	cfg, err := config.Load(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	obs.SetLevel(cfg.LogLevel)
	if testing.Verbose() {
		cfg.PrintStartupSummary()
	}

	env := &SuiteEnv{
		Config: cfg,
		RunID:  obs.NewRunID(),
		Limiter: ratelimit.NewRateLimiter(ratelimit.Config{
			RemoteRPS:   cfg.NavRPS,
			RemoteBurst: cfg.NavBurst,
			LocalRPS:    ratelimit.DefaultConfig.LocalRPS,
			LocalBurst:  ratelimit.DefaultConfig.LocalBurst,
		}),
	}

	if cfg.UsesLiveSite() {
		env.BaseURL = cfg.BaseURL
	} else {
		site, err := sitefixture.New()
		if err != nil {
			t.Fatalf("start site fixture: %v", err)
		}
		env.Site = site
		env.server = httptest.NewServer(site.Handler())
		env.BaseURL = env.server.URL
	}

	store, err := artifacts.FromSuiteConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("artifact store: %v", err)
	}
	env.Artifacts = store

	sharedSuite = env
	t.Logf("browser %s", env)
	return env
}

func cleanupSharedSuite() {
	suiteMu.Lock()
	defer suiteMu.Unlock()
	if sharedSuite == nil {
		return
	}
	if sharedSuite.session != nil {
		_ = sharedSuite.session.Close()
	}
	if sharedSuite.server != nil {
		sharedSuite.server.Close()
	}
	if sharedSuite.Site != nil {
		sharedSuite.Site.Close()
	}
	sharedSuite.Limiter.Stop()
	sharedSuite = nil
}

func TestMain(m *testing.M) {
	obs.Init()
	code := m.Run()
	cleanupSharedSuite()
	os.Exit(code)
}

// InitBrowser launches the configured browser once. Skips the test if
// Playwright or the browser is not installed.
func (env *SuiteEnv) InitBrowser(t *testing.T) *sitebrowser.Session {
	t.Helper()

	env.sessionMu.Lock()
	defer env.sessionMu.Unlock()

	if env.session == nil && env.sessionErr == nil {
		env.session, env.sessionErr = sitebrowser.Launch(env.Config)
	}
	if env.sessionErr != nil {
		t.Skip("Playwright not available:", env.sessionErr)
	}
	return env.session
}

// NewManager opens a fresh context and page on the base URL and returns the
// flows for it. On cleanup it saves a result screenshot named after the
// test's outcome and uploads it when artifacts are enabled.
func (env *SuiteEnv) NewManager(t *testing.T) *flows.Manager {
	t.Helper()
	session := env.InitBrowser(t)

	browserCtx, page, err := session.NewPage()
	if err != nil {
		t.Fatalf("could not create page: %v", err)
	}
	t.Cleanup(func() { _ = browserCtx.Close() })

	ctx := obs.WithCorrelation(context.Background(), obs.Correlation{
		RunID:    env.RunID,
		TestName: t.Name(),
		Browser:  session.Engine(),
	})
	logger := obs.From(ctx)

	screenshotDir := filepath.Join(env.Config.ScreenshotDir, sitebrowser.ResultGroup(sitebrowser.SanitizeName(t.Name())))
	mgr := flows.NewManager(page,
		sitebrowser.WithLogger(logger),
		sitebrowser.WithLimiter(env.Limiter),
		sitebrowser.WithScreenshotDir(screenshotDir),
		sitebrowser.WithTimeout(env.Config.TimeoutMS()),
	)
	t.Cleanup(func() { env.captureResult(t, mgr) })

	if err := mgr.Actions().NavigateTo(ctx, env.BaseURL); err != nil {
		t.Fatalf("open %s: %v", env.BaseURL, err)
	}
	return mgr
}

func (env *SuiteEnv) captureResult(t *testing.T, mgr *flows.Manager) {
	outcome := sitebrowser.Passed
	switch {
	case t.Failed():
		outcome = sitebrowser.Failed
	case t.Skipped():
		outcome = sitebrowser.Skipped
	}
	path := sitebrowser.ResultScreenshotPath(env.Config.ScreenshotDir, t.Name(), outcome, time.Now())
	if err := sitebrowser.Capture(mgr.Actions().Page(), path, true); err != nil {
		t.Logf("result screenshot: %v", err)
		return
	}
	t.Logf("result screenshot: %s", path)

	if env.Artifacts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	key, err := env.Artifacts.UploadFile(ctx, path, filepath.Join(env.RunID, filepath.Base(path)))
	if err != nil {
		t.Logf("upload result screenshot: %v", err)
		return
	}
	t.Logf("uploaded result screenshot to s3://%s/%s", env.Artifacts.BucketName(), key)
}

// LoadContacts reads the named contact forms from testdata/contacts.json.
func LoadContacts(t *testing.T) map[string]flows.ContactForm {
	t.Helper()
	var contacts map[string]flows.ContactForm
	if err := datafile.ReadJSON(filepath.Join("testdata", "contacts.json"), &contacts); err != nil {
		t.Fatalf("load contacts: %v", err)
	}
	return contacts
}

// Contact returns one named contact form.
func Contact(t *testing.T, name string) flows.ContactForm {
	t.Helper()
	form, ok := LoadContacts(t)[name]
	if !ok {
		t.Fatalf("no contact %q in testdata/contacts.json", name)
	}
	return form
}

// RecordRun appends this test's outcome to the run log under the reports dir.
func (env *SuiteEnv) RecordRun(t *testing.T, details map[string]any) {
	t.Helper()
	entry := map[string]any{"run_id": env.RunID, "base_url": env.BaseURL}
	for k, v := range details {
		entry[k] = v
	}
	path := filepath.Join(env.Config.ReportsDir, "runs.json")
	if err := datafile.AppendJSON(path, map[string]any{t.Name(): entry}); err != nil {
		t.Logf("record run: %v", err)
	}
}

func (env *SuiteEnv) String() string {
	return fmt.Sprintf("suite %s against %s", env.RunID, env.BaseURL)
}
