package obs

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ResponseRecorder remembers the status and body size of a response as it
// passes through to the wrapped writer.
type ResponseRecorder struct {
	http.ResponseWriter
	status  int
	written int64
	started bool
}

// flushingRecorder is handed out instead of the bare recorder when the
// underlying writer can flush.
type flushingRecorder struct {
	*ResponseRecorder
	flusher http.Flusher
}

func (f flushingRecorder) Flush() { f.flusher.Flush() }

func (r *ResponseRecorder) WriteHeader(code int) {
	if r.started {
		return
	}
	r.status, r.started = code, true
	r.ResponseWriter.WriteHeader(code)
}

func (r *ResponseRecorder) Write(p []byte) (int, error) {
	if !r.started {
		r.status, r.started = http.StatusOK, true
	}
	n, err := r.ResponseWriter.Write(p)
	r.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the original writer.
func (r *ResponseRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// StatusCode is the status sent so far, 200 before anything was written.
func (r *ResponseRecorder) StatusCode() int { return r.status }

// RespBytes counts body bytes written.
func (r *ResponseRecorder) RespBytes() int64 { return r.written }

// WroteHeader reports whether the handler has started the response.
func (r *ResponseRecorder) WroteHeader() bool { return r.started }

// NewResponseRecorder wraps w. The returned writer still implements
// http.Flusher when w does.
func NewResponseRecorder(w http.ResponseWriter) (http.ResponseWriter, *ResponseRecorder) {
	rec := &ResponseRecorder{ResponseWriter: w, status: http.StatusOK}
	if f, ok := w.(http.Flusher); ok {
		return flushingRecorder{ResponseRecorder: rec, flusher: f}, rec
	}
	return rec, rec
}

// RequestContextMiddleware puts request correlation into the context. A
// browser test can send X-Run-Id and X-Test-Name so fixture and MCP log
// lines line up with the test that caused them.
func RequestContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := func(name string) string { return strings.TrimSpace(r.Header.Get(name)) }

		requestID := header("X-Request-Id")
		if requestID == "" {
			requestID = newRequestID()
		}
		w.Header().Set("X-Request-Id", requestID)

		ctx := WithCorrelation(r.Context(), Correlation{
			RequestID:    requestID,
			RunID:        header("X-Run-Id"),
			TestName:     header("X-Test-Name"),
			MCPSessionID: header("Mcp-Session-Id"),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccessLogMiddleware logs one http_access event per request: debug for
// normal traffic, warn for server errors.
func AccessLogMiddleware(pkg string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped, rec := NewResponseRecorder(w)
		next.ServeHTTP(wrapped, r)

		level := slog.LevelDebug
		if rec.StatusCode() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		From(r.Context()).With("pkg", pkg).Log(r.Context(), level, "http_access",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.StatusCode(),
			"dur_ms", float64(time.Since(start).Microseconds())/1000.0,
			"req_bytes", max(r.ContentLength, 0),
			"resp_bytes", rec.RespBytes(),
		)
	})
}
