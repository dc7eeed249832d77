package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/family-health-keeper/backend/internal/respond"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type ctxKey string

const requestInfoKey ctxKey = "request_info"

// requestInfo is filled in by the route wrapper so the outer logging
// middleware can report which route served the request.
type requestInfo struct {
	id    string
	tag   string
	route string
}

// RequestIDFromContext returns the id assigned by Logging.
func RequestIDFromContext(ctx context.Context) string {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		return info.id
	}
	return ""
}

func infoFromContext(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey).(*requestInfo)
	return info
}

// statusRecorder captures the status code written by the handler and the
// first error returned while writing the body.
type statusRecorder struct {
	http.ResponseWriter
	status   int
	writeErr error
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	if err != nil && r.writeErr == nil {
		r.writeErr = err
	}
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// HTTPMetricsRecorder receives one observation per request.
type HTTPMetricsRecorder interface {
	RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, durationMs float64)
}

// Logging assigns a request id and logs one line per request. The line
// is written from a deferred call so a panicking handler is still logged,
// with status 500, before the panic continues to Recovery.
func Logging(logger zerolog.Logger, metrics HTTPMetricsRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			info := &requestInfo{id: id}
			rec := &statusRecorder{ResponseWriter: w}

			defer func() {
				rv := recover()
				status := rec.Status()
				if rv != nil && rec.status == 0 {
					status = http.StatusInternalServerError
				}
				latency := time.Since(start)

				evt := logger.Info()
				switch {
				case status >= 500:
					evt = logger.Error()
				case status >= 400:
					evt = logger.Warn()
				}
				if rec.writeErr != nil {
					evt = evt.AnErr("write_error", rec.writeErr)
				}
				evt.
					Str("request_id", id).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("route", info.route).
					Str("tag", info.tag).
					Int("status", status).
					Dur("latency", latency).
					Str("remote_ip", clientIP(r)).
					Bool("panic", rv != nil).
					Msg("request")

				if metrics != nil {
					route := info.route
					if route == "" {
						route = "unmatched"
					}
					metrics.RecordHTTPRequest(r.Context(), r.Method, route, status, float64(latency.Milliseconds()))
				}

				if rv != nil {
					panic(rv)
				}
			}()

			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestInfoKey, info)))
		})
	}
}

// Recovery turns a panic into a 500 and logs the stack.
func Recovery(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rv := recover(); rv != nil {
					if rv == http.ErrAbortHandler {
						panic(rv)
					}
					var stack [4096]byte
					n := runtime.Stack(stack[:], false)

					logger.Error().
						Str("request_id", w.Header().Get(RequestIDHeader)).
						Str("panic", fmt.Sprintf("%v", rv)).
						Str("stack", string(stack[:n])).
						Msg("panic recovered")

					respond.Error(w, http.StatusInternalServerError, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// TrustedHost rejects requests whose Host header matches none of the
// allowed patterns. "*" allows everything and "*.example.com" allows any
// subdomain of example.com.
func TrustedHost(allowed []string) func(http.Handler) http.Handler {
	allowAll := len(allowed) == 0
	for _, h := range allowed {
		if h == "*" {
			allowAll = true
		}
	}

	return func(next http.Handler) http.Handler {
		if allowAll {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hostAllowed(stripPort(r.Host), allowed) {
				respond.Error(w, http.StatusBadRequest, "Invalid host header")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hostAllowed(host string, allowed []string) bool {
	host = strings.ToLower(host)
	for _, pattern := range allowed {
		pattern = strings.ToLower(pattern)
		if pattern == host {
			return true
		}
		if strings.HasPrefix(pattern, "*.") && strings.HasSuffix(host, pattern[1:]) {
			return true
		}
	}
	return false
}

func stripPort(hostport string) string {
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.Trim(host, "[]")
	}
	return hostport
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
