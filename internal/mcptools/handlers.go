package mcptools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kuitang/site-e2e/internal/errs"
	"github.com/kuitang/site-e2e/internal/pdfassert"
)

// Handler implements MCP tool call handling over a pdfassert.Checker.
type Handler struct {
	checker *pdfassert.Checker
	root    string
	logger  *slog.Logger
}

// NewHandler creates a handler. When root is non-empty, tool paths are
// resolved inside it and may not escape it.
func NewHandler(checker *pdfassert.Checker, root string, logger *slog.Logger) *Handler {
	return &Handler{checker: checker, root: root, logger: logger}
}

type toolErrorPayload struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

type pathArgs struct {
	Path string `json:"path"`
}

type pageArgs struct {
	Path string `json:"path"`
	Page int    `json:"page"`
}

type textArgs struct {
	Path          string `json:"path"`
	Page          int    `json:"page,omitempty"`
	Text          string `json:"text"`
	CaseSensitive *bool  `json:"case_sensitive,omitempty"`
}

func (a textArgs) matchOptions() []pdfassert.MatchOption {
	if a.CaseSensitive != nil && !*a.CaseSensitive {
		return []pdfassert.MatchOption{pdfassert.CaseInsensitive()}
	}
	return nil
}

type regexArgs struct {
	Path    string   `json:"path"`
	Pattern string   `json:"pattern"`
	Flags   []string `json:"flags,omitempty"`
}

type pageCountArgs struct {
	Path     string `json:"path"`
	Expected int    `json:"expected"`
}

type searchArgs struct {
	textArgs
	ContextChars *int `json:"context_chars,omitempty"`
}

// createToolHandler returns a tool handler function for the given tool name.
func (h *Handler) createToolHandler(name string) func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		result, err := h.HandleToolCall(ctx, name, args)
		return result, nil, err
	}
}

// HandleToolCall routes a tool call. Domain failures, including failed
// assertions, come back as error results rather than Go errors.
func (h *Handler) HandleToolCall(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	var (
		value any
		err   error
	)
	switch name {
	case "pdf_extract_text":
		value, err = h.extractText(args)
	case "pdf_page_count":
		value, err = h.pageCount(args)
	case "pdf_page_text":
		value, err = h.pageText(args)
	case "pdf_assert_text":
		value, err = h.assertText(args, true)
	case "pdf_assert_no_text":
		value, err = h.assertText(args, false)
	case "pdf_assert_regex":
		value, err = h.assertRegex(args)
	case "pdf_assert_page_count":
		value, err = h.assertPageCount(args)
	case "pdf_assert_text_on_page":
		value, err = h.assertTextOnPage(args)
	case "pdf_metadata":
		value, err = h.metadata(args)
	case "pdf_search":
		value, err = h.search(args)
	default:
		err = errs.New(errs.NotFound, fmt.Sprintf("unknown tool: %s", name))
	}
	if err != nil {
		h.logger.InfoContext(ctx, "tool call failed", "tool", name, "code", errs.CodeOf(err), "error", err)
		return newToolResultError(err), nil
	}
	return newToolResultText(marshalToolJSON(value)), nil
}

// decodeToolArgs converts the generic argument map into dst, rejecting
// unknown fields and mistyped values.
func decodeToolArgs(args map[string]any, dst any) error {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return errs.Wrap(errs.InvalidArgument, "invalid arguments", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errs.Wrap(errs.InvalidArgument, "invalid arguments: "+err.Error(), err)
	}
	return nil
}

func (h *Handler) resolvePath(path string) (string, error) {
	if path == "" {
		return "", errs.New(errs.InvalidArgument, "path is required")
	}
	if h.root == "" {
		return path, nil
	}
	rel := filepath.Clean(path)
	if filepath.IsAbs(rel) {
		var err error
		if rel, err = filepath.Rel(h.root, rel); err != nil {
			return "", errs.Wrap(errs.InvalidArgument, "path is outside the document root", err)
		}
	}
	if !filepath.IsLocal(rel) {
		return "", errs.New(errs.InvalidArgument, "path is outside the document root")
	}
	return filepath.Join(h.root, rel), nil
}

func (h *Handler) decodePath(args map[string]any) (string, error) {
	var a pathArgs
	if err := decodeToolArgs(args, &a); err != nil {
		return "", err
	}
	return h.resolvePath(a.Path)
}

func (h *Handler) extractText(args map[string]any) (any, error) {
	path, err := h.decodePath(args)
	if err != nil {
		return nil, err
	}
	text, err := h.checker.ExtractText(path)
	if err != nil {
		return nil, err
	}
	return map[string]any{"text": text}, nil
}

func (h *Handler) pageCount(args map[string]any) (any, error) {
	path, err := h.decodePath(args)
	if err != nil {
		return nil, err
	}
	n, err := h.checker.PageCount(path)
	if err != nil {
		return nil, err
	}
	return map[string]any{"page_count": n}, nil
}

func (h *Handler) pageText(args map[string]any) (any, error) {
	var a pageArgs
	if err := decodeToolArgs(args, &a); err != nil {
		return nil, err
	}
	path, err := h.resolvePath(a.Path)
	if err != nil {
		return nil, err
	}
	text, err := h.checker.PageText(path, a.Page)
	if err != nil {
		return nil, err
	}
	return map[string]any{"page": a.Page, "text": text}, nil
}

func (h *Handler) assertText(args map[string]any, present bool) (any, error) {
	var a textArgs
	if err := decodeToolArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Page != 0 {
		return nil, errs.New(errs.InvalidArgument, "page is not accepted here; use pdf_assert_text_on_page")
	}
	path, err := h.resolvePath(a.Path)
	if err != nil {
		return nil, err
	}
	if present {
		_, err = h.checker.AssertTextExists(path, a.Text, a.matchOptions()...)
	} else {
		_, err = h.checker.AssertTextNotExists(path, a.Text, a.matchOptions()...)
	}
	if err != nil {
		return nil, err
	}
	return map[string]any{"passed": true}, nil
}

func (h *Handler) assertRegex(args map[string]any) (any, error) {
	var a regexArgs
	if err := decodeToolArgs(args, &a); err != nil {
		return nil, err
	}
	path, err := h.resolvePath(a.Path)
	if err != nil {
		return nil, err
	}
	flags, err := parseRegexFlags(a.Flags)
	if err != nil {
		return nil, err
	}
	matches, err := h.checker.AssertRegexPattern(path, a.Pattern, flags)
	if err != nil {
		return nil, err
	}
	return map[string]any{"passed": true, "matches": matches}, nil
}

func parseRegexFlags(names []string) (pdfassert.RegexFlag, error) {
	var flags pdfassert.RegexFlag
	for _, name := range names {
		switch name {
		case "ignore_case":
			flags |= pdfassert.IgnoreCase
		case "multiline":
			flags |= pdfassert.Multiline
		case "dotall":
			flags |= pdfassert.DotAll
		default:
			return 0, errs.New(errs.InvalidArgument, fmt.Sprintf("unknown regex flag %q", name))
		}
	}
	return flags, nil
}

func (h *Handler) assertPageCount(args map[string]any) (any, error) {
	var a pageCountArgs
	if err := decodeToolArgs(args, &a); err != nil {
		return nil, err
	}
	path, err := h.resolvePath(a.Path)
	if err != nil {
		return nil, err
	}
	if _, err := h.checker.AssertPageCount(path, a.Expected); err != nil {
		return nil, err
	}
	return map[string]any{"passed": true, "page_count": a.Expected}, nil
}

func (h *Handler) assertTextOnPage(args map[string]any) (any, error) {
	var a textArgs
	if err := decodeToolArgs(args, &a); err != nil {
		return nil, err
	}
	path, err := h.resolvePath(a.Path)
	if err != nil {
		return nil, err
	}
	if _, err := h.checker.AssertTextOnPage(path, a.Page, a.Text, a.matchOptions()...); err != nil {
		return nil, err
	}
	return map[string]any{"passed": true}, nil
}

func (h *Handler) metadata(args map[string]any) (any, error) {
	path, err := h.decodePath(args)
	if err != nil {
		return nil, err
	}
	meta, err := h.checker.Metadata(path)
	if err != nil {
		return nil, err
	}
	return meta.Map(), nil
}

func (h *Handler) search(args map[string]any) (any, error) {
	var a searchArgs
	if err := decodeToolArgs(args, &a); err != nil {
		return nil, err
	}
	path, err := h.resolvePath(a.Path)
	if err != nil {
		return nil, err
	}
	radius := pdfassert.DefaultContextChars
	if a.ContextChars != nil {
		radius = *a.ContextChars
	}
	matches, err := h.checker.SearchWithContext(path, a.Text, radius, a.matchOptions()...)
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": len(matches), "matches": matches}, nil
}

// newToolResultText creates a successful tool result with text content.
func newToolResultText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// newToolResultError creates an error result carrying a JSON {code, message}.
func newToolResultError(err error) *mcp.CallToolResult {
	payload := toolErrorPayload{Code: errs.CodeOf(err), Message: err.Error()}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: marshalToolJSON(payload)},
		},
		IsError: true,
	}
}

func marshalToolJSON(value any) string {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response","detail":%q}`, err.Error())
	}
	return string(data)
}
