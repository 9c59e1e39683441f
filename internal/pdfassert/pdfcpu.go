package pdfassert

import (
	"io"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PdfcpuBackend validates the file with pdfcpu and pulls text straight from
// the decoded page content streams. It ignores font encodings, so it suits
// documents set in the standard 14 fonts; it is stricter than the default
// backend about malformed structure.
type PdfcpuBackend struct{}

// Name implements Backend.
func (PdfcpuBackend) Name() string { return "pdfcpu" }

// Open implements Backend.
func (PdfcpuBackend) Open(src Source, size int64) (Document, error) {
	ctx, err := api.ReadValidateAndOptimize(src, model.NewDefaultConfiguration())
	if err != nil {
		return nil, err
	}
	return &pdfcpuDocument{ctx: ctx, pages: ctx.PageCount}, nil
}

type pdfcpuDocument struct {
	ctx   *model.Context
	pages int
}

func (d *pdfcpuDocument) NumPages() int { return d.pages }

func (d *pdfcpuDocument) PageText(page int) (string, error) {
	r, err := pdfcpu.ExtractPageContent(d.ctx, page)
	if err != nil {
		return "", err
	}
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return scanContentText(data), nil
}

func (d *pdfcpuDocument) Info() (map[string]string, error) {
	props := make(map[string]string)
	fields := map[string]string{
		"Title":        d.ctx.Title,
		"Author":       d.ctx.Author,
		"Subject":      d.ctx.Subject,
		"Creator":      d.ctx.Creator,
		"Producer":     d.ctx.Producer,
		"CreationDate": d.ctx.CreationDate,
		"ModDate":      d.ctx.ModDate,
	}
	for k, v := range fields {
		if v != "" {
			props[k] = v
		}
	}
	for k, v := range d.ctx.Properties {
		props[k] = v
	}
	return props, nil
}

// scanContentText walks a decoded content stream and collects the operands
// of the text-showing operators. T*, ' and " start a new line, as does a
// Td/TD with a vertical offset. Strong negative kerning inside TJ becomes a
// space.
func scanContentText(data []byte) string {
	var (
		out      strings.Builder
		operands []contentToken
	)
	newline := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteByte('\n')
		}
	}

	lx := &contentLexer{data: data}
	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		if tok.kind != tokOperator {
			operands = append(operands, tok)
			continue
		}

		switch tok.text {
		case "Tj":
			writeStrings(&out, operands, false)
		case "'", "\"":
			newline()
			writeStrings(&out, operands[len(operands)-min(len(operands), 1):], false)
		case "TJ":
			writeStrings(&out, operands, true)
		case "T*":
			newline()
		case "Td", "TD":
			if len(operands) >= 2 && operands[len(operands)-1].num != 0 {
				newline()
			}
		case "ET":
			newline()
		}
		operands = operands[:0]
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func writeStrings(out *strings.Builder, operands []contentToken, kerning bool) {
	for _, op := range operands {
		switch op.kind {
		case tokString:
			out.WriteString(op.text)
		case tokNumber:
			if kerning && op.num < -200 {
				out.WriteByte(' ')
			}
		}
	}
}

type tokenKind int

const (
	tokOperator tokenKind = iota
	tokString
	tokNumber
	tokOther
)

type contentToken struct {
	kind tokenKind
	text string
	num  float64
}

// contentLexer is a minimal PDF content-stream tokenizer. Array brackets are
// dropped so TJ operands arrive as a flat run of strings and numbers.
type contentLexer struct {
	data []byte
	pos  int
}

func (lx *contentLexer) next() (contentToken, bool) {
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		switch {
		case isPDFSpace(c):
			lx.pos++
		case c == '%':
			for lx.pos < len(lx.data) && lx.data[lx.pos] != '\n' && lx.data[lx.pos] != '\r' {
				lx.pos++
			}
		case c == '[' || c == ']':
			lx.pos++
		case c == '(':
			return contentToken{kind: tokString, text: lx.literal()}, true
		case c == '<':
			if lx.pos+1 < len(lx.data) && lx.data[lx.pos+1] == '<' {
				lx.pos += 2
				return contentToken{kind: tokOther, text: "<<"}, true
			}
			return contentToken{kind: tokString, text: lx.hex()}, true
		case c == '>':
			lx.pos++
			if lx.pos < len(lx.data) && lx.data[lx.pos] == '>' {
				lx.pos++
			}
			return contentToken{kind: tokOther, text: ">>"}, true
		case c == '/':
			start := lx.pos
			lx.pos++
			for lx.pos < len(lx.data) && isRegular(lx.data[lx.pos]) {
				lx.pos++
			}
			return contentToken{kind: tokOther, text: string(lx.data[start:lx.pos])}, true
		default:
			start := lx.pos
			for lx.pos < len(lx.data) && isRegular(lx.data[lx.pos]) {
				lx.pos++
			}
			if lx.pos == start {
				// Stray delimiter such as ')' or '{'.
				lx.pos++
				continue
			}
			word := string(lx.data[start:lx.pos])
			if n, err := strconv.ParseFloat(word, 64); err == nil {
				return contentToken{kind: tokNumber, text: word, num: n}, true
			}
			if word == "BI" {
				lx.skipInlineImage()
				continue
			}
			return contentToken{kind: tokOperator, text: word}, true
		}
	}
	return contentToken{}, false
}

func (lx *contentLexer) literal() string {
	var sb strings.Builder
	depth := 0
	lx.pos++ // opening paren
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		lx.pos++
		switch c {
		case '(':
			depth++
			sb.WriteByte(c)
		case ')':
			if depth == 0 {
				return sb.String()
			}
			depth--
			sb.WriteByte(c)
		case '\\':
			if lx.pos >= len(lx.data) {
				return sb.String()
			}
			e := lx.data[lx.pos]
			lx.pos++
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case '\r':
				if lx.pos < len(lx.data) && lx.data[lx.pos] == '\n' {
					lx.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for i := 0; i < 2 && lx.pos < len(lx.data) && lx.data[lx.pos] >= '0' && lx.data[lx.pos] <= '7'; i++ {
						val = val*8 + int(lx.data[lx.pos]-'0')
						lx.pos++
					}
					sb.WriteRune(rune(byte(val)))
				} else {
					sb.WriteByte(e)
				}
			}
		default:
			if c >= 0x80 {
				sb.WriteRune(rune(c))
			} else {
				sb.WriteByte(c)
			}
		}
	}
	return sb.String()
}

func (lx *contentLexer) hex() string {
	lx.pos++ // '<'
	var digits []byte
	for lx.pos < len(lx.data) && lx.data[lx.pos] != '>' {
		c := lx.data[lx.pos]
		if isHexDigit(c) {
			digits = append(digits, c)
		}
		lx.pos++
	}
	lx.pos++ // '>'
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	var sb strings.Builder
	for i := 0; i+1 < len(digits); i += 2 {
		v, _ := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if v >= 0x80 {
			sb.WriteRune(rune(v))
		} else if v != 0 {
			sb.WriteByte(byte(v))
		}
	}
	return sb.String()
}

func (lx *contentLexer) skipInlineImage() {
	end := strings.Index(string(lx.data[lx.pos:]), "EI")
	if end < 0 {
		lx.pos = len(lx.data)
		return
	}
	lx.pos += end + 2
}

func isPDFSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isRegular(c byte) bool {
	if isPDFSpace(c) {
		return false
	}
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return false
	}
	return true
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
