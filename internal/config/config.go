// Package config provides centralized configuration for the site-e2e suite
// and its command-line tools.
//
// Values are layered: built-in defaults, then an optional TOML file
// (--config or E2E_CONFIG), then environment variables, then CLI flags.
// An empty BaseURL means "no live site": browser tests start the local
// site fixture instead.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/kuitang/site-e2e/internal/datafile"
)

const (
	defaultURLsFile      = "main/envi/urls.json"
	defaultScreenshotDir = "reports/screenshots"
	defaultReportsDir    = "reports"
	defaultSampleReport  = "main/resources/sample_report.pdf"
	defaultRegion        = "auto"
)

// Supported browser engines.
var Browsers = []string{"chromium", "firefox", "webkit"}

// Supported PDF parsing backends.
var PDFBackends = []string{"ledongthuc", "pdfcpu"}

// Config holds all suite configuration.
type Config struct {
	// Site under test
	BaseURL  string `toml:"base_url"`
	URLsFile string `toml:"urls_file"`

	// Browser
	Browser  string        `toml:"browser"`
	Headless bool          `toml:"headless"`
	Timeout  time.Duration `toml:"-"`
	SlowMo   time.Duration `toml:"-"`

	// Navigation throttle, applied only against a live site
	NavRPS   float64 `toml:"nav_rps"`
	NavBurst int     `toml:"nav_burst"`

	// Output
	ScreenshotDir string `toml:"screenshot_dir"`
	ReportsDir    string `toml:"reports_dir"`
	LogLevel      string `toml:"log_level"`

	// Documents
	PDFBackend   string `toml:"pdf_backend"`
	SampleReport string `toml:"sample_report"`

	// Artifact storage (uses AWS_ env vars like any S3-compatible store)
	ArtifactsBucket    string `toml:"artifacts_bucket"`
	ArtifactsPrefix    string `toml:"artifacts_prefix"`
	AWSEndpointS3      string `toml:"aws_endpoint_url_s3"`
	AWSRegion          string `toml:"aws_region"`
	AWSAccessKeyID     string `toml:"-"`
	AWSSecretAccessKey string `toml:"-"`

	// Durations are strings in TOML so "60s" reads naturally.
	TimeoutText string `toml:"timeout"`
	SlowMoText  string `toml:"slow_mo"`
}

// Flags holds CLI overrides. Zero values mean "not set".
type Flags struct {
	ConfigFile string
	BaseURL    string
	Browser    string
	Headed     bool
	PDFBackend string
	LogLevel   string
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		URLsFile:      defaultURLsFile,
		Browser:       "chromium",
		Headless:      true,
		Timeout:       60 * time.Second,
		NavRPS:        2,
		NavBurst:      4,
		ScreenshotDir: defaultScreenshotDir,
		ReportsDir:    defaultReportsDir,
		LogLevel:      "info",
		PDFBackend:    "ledongthuc",
		SampleReport:  defaultSampleReport,
		AWSRegion:     defaultRegion,
	}
}

// RegisterFlags registers the shared flags on fs and returns the struct they fill.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigFile, "config", "", "Path to a TOML config file (overrides E2E_CONFIG)")
	fs.StringVar(&f.BaseURL, "base-url", "", "Site under test (overrides BASE_URL and the urls file)")
	fs.StringVar(&f.Browser, "browser", "", "Browser engine: chromium, firefox or webkit")
	fs.BoolVar(&f.Headed, "headed", false, "Run the browser with a visible window")
	fs.StringVar(&f.PDFBackend, "pdf-backend", "", "PDF backend: ledongthuc or pdfcpu")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	return f
}

// Load builds the configuration from defaults, file, environment and flags.
// flags may be nil.
func Load(flags *Flags) (*Config, error) {
	cfg := Default()

	configFile := strings.TrimSpace(os.Getenv("E2E_CONFIG"))
	if flags != nil && flags.ConfigFile != "" {
		configFile = flags.ConfigFile
	}
	if configFile != "" {
		if err := cfg.loadFile(configFile); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if flags != nil {
		cfg.applyFlags(flags)
	}

	if cfg.BaseURL == "" && cfg.URLsFile != "" {
		urls, err := datafile.LoadURLs(cfg.URLsFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read urls file %s: %w", cfg.URLsFile, err)
		}
		cfg.BaseURL = urls.BaseURL()
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	if c.TimeoutText != "" {
		d, err := time.ParseDuration(c.TimeoutText)
		if err != nil {
			return fmt.Errorf("config file %s: timeout: %w", path, err)
		}
		c.Timeout = d
	}
	if c.SlowMoText != "" {
		d, err := time.ParseDuration(c.SlowMoText)
		if err != nil {
			return fmt.Errorf("config file %s: slow_mo: %w", path, err)
		}
		c.SlowMo = d
	}
	return nil
}

func (c *Config) applyEnv() {
	c.BaseURL = getEnvOrDefault("BASE_URL", c.BaseURL)
	c.URLsFile = getEnvOrDefault("URLS_FILE", c.URLsFile)
	c.Browser = strings.ToLower(getEnvOrDefault("BROWSER", c.Browser))
	c.Headless = parseBoolOrDefault("HEADLESS", c.Headless)
	c.Timeout = parseDurationOrDefault("BROWSER_TIMEOUT", c.Timeout)
	c.SlowMo = parseDurationOrDefault("BROWSER_SLOW_MO", c.SlowMo)
	c.NavRPS = parseFloat64OrDefault("NAV_RPS", c.NavRPS)
	c.NavBurst = parseIntOrDefault("NAV_BURST", c.NavBurst)
	c.ScreenshotDir = getEnvOrDefault("SCREENSHOT_DIR", c.ScreenshotDir)
	c.ReportsDir = getEnvOrDefault("REPORTS_DIR", c.ReportsDir)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.PDFBackend = strings.ToLower(getEnvOrDefault("PDF_BACKEND", c.PDFBackend))
	c.SampleReport = getEnvOrDefault("SAMPLE_REPORT", c.SampleReport)

	c.ArtifactsBucket = strings.TrimSpace(getEnvOrDefault("ARTIFACTS_BUCKET", c.ArtifactsBucket))
	c.ArtifactsPrefix = strings.TrimSpace(getEnvOrDefault("ARTIFACTS_PREFIX", c.ArtifactsPrefix))
	c.AWSEndpointS3 = strings.TrimSpace(getEnvOrDefault("AWS_ENDPOINT_URL_S3", c.AWSEndpointS3))
	c.AWSRegion = getEnvOrDefault("AWS_REGION", c.AWSRegion)
	c.AWSAccessKeyID = strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
	c.AWSSecretAccessKey = strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY"))
}

func (c *Config) applyFlags(f *Flags) {
	if f.BaseURL != "" {
		c.BaseURL = f.BaseURL
	}
	if f.Browser != "" {
		c.Browser = strings.ToLower(f.Browser)
	}
	if f.Headed {
		c.Headless = false
	}
	if f.PDFBackend != "" {
		c.PDFBackend = strings.ToLower(f.PDFBackend)
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
}

// Validate checks that all configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if !contains(Browsers, c.Browser) {
		errs = append(errs, fmt.Sprintf("BROWSER must be one of %s, got %q", strings.Join(Browsers, ", "), c.Browser))
	}
	if !contains(PDFBackends, c.PDFBackend) {
		errs = append(errs, fmt.Sprintf("PDF_BACKEND must be one of %s, got %q", strings.Join(PDFBackends, ", "), c.PDFBackend))
	}
	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		errs = append(errs, "BASE_URL must start with http:// or https://")
	}
	if c.Timeout <= 0 {
		errs = append(errs, "BROWSER_TIMEOUT must be positive")
	}
	if c.SlowMo < 0 {
		errs = append(errs, "BROWSER_SLOW_MO must not be negative")
	}
	if c.NavRPS <= 0 {
		errs = append(errs, "NAV_RPS must be positive")
	}
	if c.NavBurst <= 0 {
		errs = append(errs, "NAV_BURST must be positive")
	}
	if c.ScreenshotDir == "" {
		errs = append(errs, "SCREENSHOT_DIR must not be empty")
	}

	// Artifacts: endpoint and credentials only matter once a bucket is named
	if c.ArtifactsBucket != "" {
		if c.AWSAccessKeyID == "" {
			errs = append(errs, "AWS_ACCESS_KEY_ID is required when ARTIFACTS_BUCKET is set")
		}
		if c.AWSSecretAccessKey == "" {
			errs = append(errs, "AWS_SECRET_ACCESS_KEY is required when ARTIFACTS_BUCKET is set")
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// UsesLiveSite reports whether tests run against a real deployment.
func (c *Config) UsesLiveSite() bool {
	return c.BaseURL != ""
}

// ArtifactsEnabled reports whether screenshots and documents are uploaded.
func (c *Config) ArtifactsEnabled() bool {
	return c.ArtifactsBucket != ""
}

// TimeoutMS returns Timeout in the float milliseconds playwright expects.
func (c *Config) TimeoutMS() float64 {
	return float64(c.Timeout.Milliseconds())
}

// PrintStartupSummary prints a human-readable summary of the configuration to stderr.
func (c *Config) PrintStartupSummary() {
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "site-e2e configuration")
	if c.UsesLiveSite() {
		fmt.Fprintf(os.Stderr, "  Site:      %s\n", c.BaseURL)
	} else {
		fmt.Fprintln(os.Stderr, "  Site:      local fixture")
	}
	fmt.Fprintf(os.Stderr, "  Browser:   %s (headless=%t, timeout=%s)\n", c.Browser, c.Headless, c.Timeout)
	fmt.Fprintf(os.Stderr, "  PDF:       %s\n", c.PDFBackend)
	if c.ArtifactsEnabled() {
		fmt.Fprintf(os.Stderr, "  Artifacts: s3://%s/%s\n", c.ArtifactsBucket, c.ArtifactsPrefix)
	} else {
		fmt.Fprintln(os.Stderr, "  Artifacts: local only")
	}
	fmt.Fprintln(os.Stderr, "")
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// MustLoad loads configuration and panics if validation fails.
// Use this in main() when you want the tool to fail fast on bad config.
func MustLoad(flags *Flags) *Config {
	cfg, err := Load(flags)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			panic(fmt.Sprintf("Configuration validation failed:\n  - %s", strings.Join(validationErr.Errors, "\n  - ")))
		}
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	return cfg
}
