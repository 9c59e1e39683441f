package pdfassert

import (
	"github.com/ledongthuc/pdf"
)

// LedongthucBackend extracts text with github.com/ledongthuc/pdf, which
// decodes fonts and encodings. It is the default backend.
type LedongthucBackend struct{}

// Name implements Backend.
func (LedongthucBackend) Name() string { return "ledongthuc" }

// Open implements Backend.
func (LedongthucBackend) Open(src Source, size int64) (Document, error) {
	r, err := pdf.NewReader(src, size)
	if err != nil {
		return nil, err
	}
	return &ledongthucDocument{r: r, pages: r.NumPage()}, nil
}

type ledongthucDocument struct {
	r     *pdf.Reader
	pages int
}

func (d *ledongthucDocument) NumPages() int { return d.pages }

func (d *ledongthucDocument) PageText(page int) (string, error) {
	p := d.r.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

func (d *ledongthucDocument) Info() (map[string]string, error) {
	props := make(map[string]string)
	info := d.r.Trailer().Key("Info")
	if info.Kind() != pdf.Dict {
		return props, nil
	}
	for _, key := range info.Keys() {
		v := info.Key(key)
		switch v.Kind() {
		case pdf.Null:
			continue
		case pdf.String:
			props[key] = v.Text()
		case pdf.Name:
			props[key] = v.Name()
		default:
			props[key] = v.String()
		}
	}
	return props, nil
}
