// Package pdfassert extracts text from PDF documents and asserts on it.
//
// Every Checker operation opens the document, does its read-only work and
// releases the file before returning. Nothing is cached between calls, so a
// Checker is safe to share across goroutines and test cases.
package pdfassert

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/kuitang/site-e2e/internal/errs"
	"github.com/kuitang/site-e2e/internal/obs"
)

// Checker runs extraction and assertions against PDF files on disk.
type Checker struct {
	logger  *slog.Logger
	backend Backend
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the logger used for assertion outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBackend sets the parsing backend.
func WithBackend(backend Backend) Option {
	return func(c *Checker) {
		if backend != nil {
			c.backend = backend
		}
	}
}

// New creates a Checker. Without options it logs through obs.Pkg("pdfassert")
// and parses with LedongthucBackend.
func New(opts ...Option) *Checker {
	c := &Checker{
		logger:  obs.Pkg("pdfassert"),
		backend: LedongthucBackend{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("backend", c.backend.Name())
	return c
}

// Backend returns the parsing backend in use.
func (c *Checker) Backend() Backend { return c.backend }

// withDocument opens path, parses it and hands the document to fn. The file
// is closed on every exit path, including a panic inside the backend.
func (c *Checker) withDocument(path string, fn func(doc Document, size int64) error) (err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errs.Wrap(errs.NotFound, fmt.Sprintf("PDF file not found: %s", path), err)
		}
		return errs.Wrap(errs.UnreadableDocument, fmt.Sprintf("Unable to read PDF file: %v", err), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errs.Wrap(errs.UnreadableDocument, fmt.Sprintf("Unable to read PDF file: %v", err), err)
	}
	if info.IsDir() {
		return errs.New(errs.UnreadableDocument, fmt.Sprintf("Unable to read PDF file: %s is a directory", path))
	}

	defer func() {
		if r := recover(); r != nil {
			cause := fmt.Errorf("%s backend panic: %v", c.backend.Name(), r)
			err = errs.Wrap(errs.UnreadableDocument, fmt.Sprintf("Unable to read PDF file: %v", cause), cause)
		}
	}()

	doc, err := c.backend.Open(f, info.Size())
	if err != nil {
		return errs.Wrap(errs.UnreadableDocument, fmt.Sprintf("Unable to read PDF file: %v", err), err)
	}
	return fn(doc, info.Size())
}

func pageText(doc Document, page int) (string, error) {
	text, err := doc.PageText(page)
	if err != nil {
		return "", errs.Wrap(errs.UnreadableDocument, fmt.Sprintf("Unable to read PDF file: %v", err), err)
	}
	return text, nil
}

// ExtractText returns every page's text, each followed by a newline, with
// the result trimmed of surrounding whitespace.
func (c *Checker) ExtractText(path string) (string, error) {
	var out string
	err := c.withDocument(path, func(doc Document, _ int64) error {
		var sb strings.Builder
		for i := 1; i <= doc.NumPages(); i++ {
			text, err := pageText(doc, i)
			if err != nil {
				return err
			}
			sb.WriteString(text)
			sb.WriteByte('\n')
		}
		out = strings.TrimSpace(sb.String())
		return nil
	})
	if err != nil {
		c.logger.Error("extract text failed", "path", path, "error", err)
		return "", err
	}
	return out, nil
}

// PageCount returns the number of pages in the document.
func (c *Checker) PageCount(path string) (int, error) {
	var n int
	err := c.withDocument(path, func(doc Document, _ int64) error {
		n = doc.NumPages()
		return nil
	})
	if err != nil {
		c.logger.Error("page count failed", "path", path, "error", err)
		return 0, err
	}
	return n, nil
}

// PageText returns the trimmed text of a single 1-based page.
func (c *Checker) PageText(path string, page int) (string, error) {
	var out string
	err := c.withDocument(path, func(doc Document, _ int64) error {
		if page < 1 || page > doc.NumPages() {
			return &PageIndexError{Requested: page, PageCount: doc.NumPages()}
		}
		text, err := pageText(doc, page)
		if err != nil {
			return err
		}
		out = strings.TrimSpace(text)
		return nil
	})
	if err != nil {
		c.logger.Error("extract page text failed", "path", path, "page", page, "error", err)
		return "", err
	}
	return out, nil
}

// Metadata is the document information dictionary plus two computed fields.
type Metadata struct {
	Properties map[string]string
	PageCount  int
	FileSize   int64
}

// Map flattens the record into page_count, file_size and every property.
func (m *Metadata) Map() map[string]any {
	out := make(map[string]any, len(m.Properties)+2)
	for k, v := range m.Properties {
		out[k] = v
	}
	out["page_count"] = m.PageCount
	out["file_size"] = m.FileSize
	return out
}

// Metadata reads the document information dictionary. A document without
// one yields empty Properties.
func (c *Checker) Metadata(path string) (*Metadata, error) {
	var meta *Metadata
	err := c.withDocument(path, func(doc Document, size int64) error {
		info, err := doc.Info()
		if err != nil {
			return errs.Wrap(errs.UnreadableDocument, fmt.Sprintf("Unable to read PDF file: %v", err), err)
		}
		props := make(map[string]string, len(info))
		for k, v := range info {
			props[strings.TrimPrefix(k, "/")] = v
		}
		meta = &Metadata{
			Properties: props,
			PageCount:  doc.NumPages(),
			FileSize:   size,
		}
		return nil
	})
	if err != nil {
		c.logger.Error("read metadata failed", "path", path, "error", err)
		return nil, err
	}
	return meta, nil
}
