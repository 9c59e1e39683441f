package sitefixture

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"sync"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed content/*.md
var contentFS embed.FS

// Renderer executes the site's page templates. Markdown content pages are
// rendered once and cached.
type Renderer struct {
	pages map[string]*template.Template

	cacheMu sync.RWMutex
	cache   map[string]template.HTML
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		pages: make(map[string]*template.Template),
		cache: make(map[string]template.HTML),
	}
	for _, name := range []string{"home.html", "contact.html", "page.html", "thanks.html"} {
		tmpl, err := template.ParseFS(templatesFS,
			"templates/layout.html",
			"templates/contact_form.html",
			"templates/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render executes the named page template inside the layout.
func (r *Renderer) Render(w io.Writer, name string, data PageData) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	// Render into a buffer so a template error never leaves half a page.
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("execute template %q: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Content returns the sanitized HTML for the markdown page slug.
func (r *Renderer) Content(slug string) (template.HTML, error) {
	r.cacheMu.RLock()
	content, ok := r.cache[slug]
	r.cacheMu.RUnlock()
	if ok {
		return content, nil
	}

	md, err := contentFS.ReadFile("content/" + slug + ".md")
	if err != nil {
		return "", err
	}
	content = template.HTML(renderMarkdown(md))

	r.cacheMu.Lock()
	r.cache[slug] = content
	r.cacheMu.Unlock()
	return content, nil
}

// renderMarkdown converts markdown to sanitized HTML.
func renderMarkdown(md []byte) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse(md)

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	htmlContent := markdown.Render(doc, renderer)

	policy := bluemonday.UGCPolicy()
	policy.AllowElements("pre", "code")
	policy.AllowAttrs("class").OnElements("code", "pre")
	return policy.SanitizeBytes(htmlContent)
}
