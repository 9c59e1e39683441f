package sitefixture

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// Export writes every GET page as a static HTML file under dir and returns
// the written paths. The home page becomes index.html; other pages use
// their slug. The static copy can be served by any file server, but the
// contact form only works against the live fixture.
func (s *Server) Export(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	type page struct {
		file string
		tmpl string
		data PageData
	}
	pages := []page{
		{"index.html", "home.html", s.pageData("Home")},
		{"contact.html", "contact.html", s.pageData("Contact Us")},
	}
	for _, p := range contentPages {
		content, err := s.renderer.Content(p.Slug)
		if err != nil {
			return nil, fmt.Errorf("read %s content: %w", p.Slug, err)
		}
		data := s.pageData(p.Title)
		data.Content = content
		pages = append(pages, page{p.Slug + ".html", "page.html", data})
	}

	var written []string
	for _, p := range pages {
		var buf bytes.Buffer
		if err := s.renderer.Render(&buf, p.tmpl, p.data); err != nil {
			return written, err
		}
		out := filepath.Join(dir, p.file)
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", out, err)
		}
		s.logger.Info("page exported", "path", out)
		written = append(written, out)
	}
	return written, nil
}
