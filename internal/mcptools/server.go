// Package mcptools exposes the PDF assertion operations as MCP tools, over
// stdio or the streamable HTTP transport.
package mcptools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kuitang/site-e2e/internal/obs"
	"github.com/kuitang/site-e2e/internal/pdfassert"
)

// Version is reported in the MCP implementation info.
const Version = "1.0.0"

// maxBodyBytes caps a single HTTP request body.
const maxBodyBytes = 1 << 20

// Server wraps the MCP server with PDF tool handling.
type Server struct {
	mcpServer   *mcp.Server
	handler     *Handler
	httpHandler http.Handler
	logger      *slog.Logger
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	root   string
	logger *slog.Logger
}

// WithRoot confines tool paths to dir.
func WithRoot(dir string) Option {
	return func(o *serverOptions) { o.root = dir }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serverOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewServer registers every PDF tool over checker.
func NewServer(checker *pdfassert.Checker, opts ...Option) *Server {
	o := serverOptions{logger: obs.Pkg("mcptools")}
	for _, opt := range opts {
		opt(&o)
	}
	handler := NewHandler(checker, o.root, o.logger)

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "pdfassert",
			Version: Version,
		},
		nil,
	)
	for _, tool := range ToolDefinitions() {
		mcp.AddTool(mcpServer, tool, handler.createToolHandler(tool.Name))
	}

	httpHandler := mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return mcpServer },
		&mcp.StreamableHTTPOptions{
			JSONResponse: true,
			Stateless:    true,
		},
	)

	return &Server{
		mcpServer:   mcpServer,
		handler:     handler,
		httpHandler: httpHandler,
		logger:      o.logger,
	}
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server { return s.mcpServer }

// RunStdio serves the tools over stdin/stdout until ctx is done or the
// client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// ServeHTTP implements http.Handler for the streamable HTTP transport. The
// server is stateless, so GET (server-initiated streams) is not offered.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Mcp-Session-Id, Last-Event-ID")
	w.Header().Set("Access-Control-Allow-Methods", "POST, DELETE, OPTIONS")

	switch r.Method {
	case http.MethodOptions:
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost, http.MethodDelete:
	default:
		w.Header().Set("Allow", "POST, DELETE, OPTIONS")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.ContentLength > maxBodyBytes {
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	logger := obs.From(r.Context())
	wrapped, rec := obs.NewResponseRecorder(w)
	defer func() {
		if p := recover(); p != nil {
			logger.Error("mcp handler panic", "panic", fmt.Sprint(p), "method", r.Method)
			if !rec.WroteHeader() {
				http.Error(wrapped, "Internal server error", http.StatusInternalServerError)
			}
			return
		}
		if !rec.WroteHeader() {
			logger.Error("mcp handler wrote no response", "method", r.Method)
			http.Error(wrapped, "MCP handler returned without writing response", http.StatusInternalServerError)
			return
		}
		if rec.StatusCode() >= http.StatusBadRequest {
			logger.Warn("mcp request failed", "method", r.Method, "status", rec.StatusCode())
		}
	}()

	s.httpHandler.ServeHTTP(wrapped, r)
}

// ListenAndServe serves the tools at addr under /mcp until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", s)
	srv := &http.Server{
		Addr:              addr,
		Handler:           obs.RequestContextMiddleware(obs.AccessLogMiddleware("mcptools", mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving MCP over HTTP", "addr", addr, "path", "/mcp")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
