// Package sitefixture serves a local replica of the marketing site so the
// browser suite can run without a live deployment. Every locator in
// internal/pages resolves against these pages.
package sitefixture

import (
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kuitang/site-e2e/internal/logutil"
	"github.com/kuitang/site-e2e/internal/obs"
	"github.com/kuitang/site-e2e/internal/ratelimit"
)

// SiteName is shown in page titles and the footer.
const SiteName = "Stratpoint"

// Services are the options of the contact form's service picker.
var Services = []string{"Cloud", "Data", "Digital", "Managed Services"}

// contentPages maps routes to markdown pages.
var contentPages = []struct {
	Path  string
	Slug  string
	Title string
}{
	{"/about", "about", "About Us"},
	{"/services", "services", "Our Services"},
	{"/privacy", "privacy", "Privacy Policy"},
}

// FormLimit paces contact form submissions per client.
var FormLimit = ratelimit.Config{
	RemoteRPS:   5,
	RemoteBurst: 10,
}

// PageData is passed to every template.
type PageData struct {
	Title    string
	SiteName string
	Year     int
	Content  template.HTML
	Services []string
	Error    string

	// Set on the thank-you page.
	Name    string
	Service string
}

// Submission is one accepted contact form.
type Submission struct {
	Name          string
	Email         string
	ContactNumber string
	Company       string
	JobTitle      string
	Service       string
	Message       string
	ReceivedAt    time.Time
}

// LogValue keeps personal fields redacted in logs.
func (s Submission) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", s.Name),
		slog.String("email", logutil.RedactFormValue("email", s.Email)),
		slog.String("contact_number", logutil.RedactFormValue("contact_number", s.ContactNumber)),
		slog.String("service", s.Service),
		slog.String("message", logutil.TruncateForLog(s.Message, 40)),
	)
}

// Server is the fixture site.
type Server struct {
	renderer *Renderer
	limiter  *ratelimit.RateLimiter
	logger   *slog.Logger
	now      func() time.Time

	mu          sync.Mutex
	submissions []Submission
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFormLimit overrides FormLimit.
func WithFormLimit(cfg ratelimit.Config) Option {
	return func(s *Server) {
		s.limiter.Stop()
		s.limiter = ratelimit.NewRateLimiter(cfg)
	}
}

// New builds the fixture site.
func New(opts ...Option) (*Server, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	s := &Server{
		renderer: renderer,
		limiter:  ratelimit.NewRateLimiter(FormLimit),
		logger:   obs.Pkg("sitefixture"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close stops the form limiter.
func (s *Server) Close() {
	s.limiter.Stop()
}

// Renderer returns the page renderer.
func (s *Server) Renderer() *Renderer { return s.renderer }

// Handler returns the site with request IDs and access logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /contact", s.handleContact)
	for _, p := range contentPages {
		mux.HandleFunc("GET "+p.Path, s.handleContent(p.Slug, p.Title))
	}
	limit := ratelimit.Middleware(s.limiter, ratelimit.ClientKey)
	mux.Handle("POST /contact", limit(http.HandlerFunc(s.handleSubmit)))

	return obs.RequestContextMiddleware(obs.AccessLogMiddleware("sitefixture", mux))
}

// Submissions returns the accepted forms in arrival order.
func (s *Server) Submissions() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.submissions)
}

func (s *Server) pageData(title string) PageData {
	return PageData{
		Title:    title,
		SiteName: SiteName,
		Year:     s.now().Year(),
		Services: Services,
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.renderer.Render(w, name, data); err != nil {
		obs.From(r.Context()).Error("render failed", "template", name, "error", err)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "home.html", s.pageData("Home"))
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "contact.html", s.pageData("Contact Us"))
}

func (s *Server) handleContent(slug, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := s.renderer.Content(slug)
		if err != nil {
			http.Error(w, "Page not found", http.StatusNotFound)
			return
		}
		data := s.pageData(title)
		data.Content = content
		s.render(w, r, http.StatusOK, "page.html", data)
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	sub := Submission{
		Name:          strings.TrimSpace(r.PostFormValue("name")),
		Email:         strings.TrimSpace(r.PostFormValue("email")),
		ContactNumber: strings.TrimSpace(r.PostFormValue("contact_number")),
		Company:       strings.TrimSpace(r.PostFormValue("company")),
		JobTitle:      strings.TrimSpace(r.PostFormValue("job_title")),
		Service:       r.PostFormValue("service"),
		Message:       r.PostFormValue("message"),
		ReceivedAt:    s.now(),
	}

	if problem := validate(sub, r.PostFormValue("privacy_consent") != ""); problem != "" {
		obs.From(r.Context()).Warn("contact form rejected", "reason", problem, "form", sub)
		data := s.pageData("Contact Us")
		data.Error = problem
		s.render(w, r, http.StatusBadRequest, "contact.html", data)
		return
	}

	s.mu.Lock()
	s.submissions = append(s.submissions, sub)
	s.mu.Unlock()
	obs.From(r.Context()).Info("contact form accepted", "form", sub)

	data := s.pageData("Thank you")
	data.Name = sub.Name
	data.Service = sub.Service
	s.render(w, r, http.StatusOK, "thanks.html", data)
}

func validate(sub Submission, consent bool) string {
	switch {
	case sub.Name == "":
		return "Please enter your name."
	case !strings.Contains(sub.Email, "@"):
		return "Please enter a valid email address."
	case !slices.Contains(Services, sub.Service):
		return "Please choose a service."
	case !consent:
		return "Please accept the privacy notice."
	}
	return ""
}
