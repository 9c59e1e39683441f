package pdfassert

import (
	"fmt"
	"io"
	"strings"
)

// Source is what a backend reads a document from. *os.File satisfies it.
type Source interface {
	io.ReaderAt
	io.ReadSeeker
}

// Document is a parsed, read-only view of one PDF. It lives for the duration
// of a single Checker call and is never shared.
type Document interface {
	// NumPages is computed once when the document is opened.
	NumPages() int
	// PageText returns the raw extracted text of a 1-based page.
	PageText(page int) (string, error)
	// Info returns the document information dictionary. Keys may carry a
	// leading "/" depending on the backend. A document without one returns
	// an empty map.
	Info() (map[string]string, error)
}

// Backend parses PDF bytes into a Document.
type Backend interface {
	Name() string
	Open(src Source, size int64) (Document, error)
}

// BackendByName returns the backend registered under name.
func BackendByName(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ledongthuc":
		return LedongthucBackend{}, nil
	case "pdfcpu":
		return PdfcpuBackend{}, nil
	default:
		return nil, fmt.Errorf("unknown pdf backend %q", name)
	}
}
