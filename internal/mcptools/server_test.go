package mcptools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/site-e2e/internal/errs"
	"github.com/kuitang/site-e2e/internal/obs"
	"github.com/kuitang/site-e2e/internal/pdfassert"
	"github.com/kuitang/site-e2e/internal/pdfassert/pdftest"
)

var testImpl = &mcp.Implementation{Name: "pdfassert-test", Version: "0.1.0"}

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	dir := t.TempDir()
	_, err := pdftest.Write(dir, "report.pdf", pdftest.SampleReport(), pdftest.SampleReportInfo())
	require.NoError(t, err)

	srv := NewServer(pdfassert.New(pdfassert.WithLogger(obs.Discard())), WithRoot(dir), WithLogger(obs.Discard()))
	serverT, clientT := mcp.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = srv.MCPServer().Run(ctx, serverT) }()

	client := mcp.NewClient(testImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		session.Close()
		cancel()
	})
	return session
}

func TestServer_ListsEveryTool(t *testing.T) {
	t.Parallel()
	session := mcpSession(t)

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"pdf_extract_text", "pdf_page_count", "pdf_page_text",
		"pdf_assert_text", "pdf_assert_no_text", "pdf_assert_regex",
		"pdf_assert_page_count", "pdf_assert_text_on_page",
		"pdf_metadata", "pdf_search",
	}, names)
}

func TestServer_CallToolOverSession(t *testing.T) {
	t.Parallel()
	session := mcpSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "pdf_assert_text_on_page",
		Arguments: map[string]any{"path": "report.pdf", "page": 2, "text": "Summary"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, toolResultText(t, result))

	result, err = session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "pdf_assert_page_count",
		Arguments: map[string]any{"path": "report.pdf", "expected": 10},
	})
	require.NoError(t, err)
	payload := parseToolErrorPayload(t, result)
	require.Equal(t, errs.AssertionFailed, payload.Code)
	require.Contains(t, payload.Message, "Expected: 10, Actual: 11")
}

func TestServeHTTP_ToolsListOverHTTP(t *testing.T) {
	t.Parallel()
	srv := NewServer(pdfassert.New(pdfassert.WithLogger(obs.Discard())), WithLogger(obs.Discard()))
	ts := httptest.NewServer(srv)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json, text/event-stream")
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Result.Tools, len(ToolDefinitions()))
}

func TestServeHTTP_RecoversPanicWith500(t *testing.T) {
	t.Parallel()
	server := &Server{
		logger: obs.Discard(),
		httpHandler: http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("simulated panic")
		}),
	}

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	require.Contains(t, resp.Body.String(), "Internal server error")
}

func TestServeHTTP_NoWriteFromDelegateReturns500(t *testing.T) {
	t.Parallel()
	server := &Server{
		logger:      obs.Discard(),
		httpHandler: http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}),
	}

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	require.Contains(t, resp.Body.String(), "MCP handler returned without writing response")
}

func TestServeHTTP_RequestBodyTooLargeReturns413(t *testing.T) {
	t.Parallel()
	server := &Server{
		logger: obs.Discard(),
		httpHandler: http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("delegate should not be called when request is oversized")
		}),
	}

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(strings.Repeat("a", maxBodyBytes+1)))
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}

func TestServeHTTP_GETReturns405WithAllowHeader(t *testing.T) {
	t.Parallel()
	server := &Server{
		logger: obs.Discard(),
		httpHandler: http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("delegate should not be called for GET")
		}),
	}

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)

	require.Equal(t, http.StatusMethodNotAllowed, resp.Code)
	allow := resp.Header().Get("Allow")
	require.Contains(t, allow, "POST")
	require.Contains(t, allow, "DELETE")
}
