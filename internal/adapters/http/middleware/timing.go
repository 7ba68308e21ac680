package middleware

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"adventofgah/internal/adapters/http/perf"
)

// DefaultSlowRequestMs is used when ADVENT_SLOW_REQUEST_MS is unset or invalid.
const DefaultSlowRequestMs = 200

// SlowRequestThresholdFromEnv reads ADVENT_SLOW_REQUEST_MS.
func SlowRequestThresholdFromEnv() time.Duration {
	if v := os.Getenv("ADVENT_SLOW_REQUEST_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return DefaultSlowRequestMs * time.Millisecond
}

var requestIDCounter uint64

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// Hijack supports websocket upgrades behind the timing wrapper.
func (sw *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := sw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	sw.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

var statusWriterPool = sync.Pool{
	New: func() any {
		return &statusWriter{}
	},
}

// untimed paths are static assets and long-lived streams.
func untimed(path string) bool {
	return strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/ws/")
}

// Timing returns middleware that logs request duration and feeds collector.
// Normal requests log at DEBUG; requests above threshold log at WARN.
func Timing(collector *perf.Collector, threshold time.Duration) func(http.Handler) http.Handler {
	if threshold <= 0 {
		threshold = DefaultSlowRequestMs * time.Millisecond
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if untimed(path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			reqID := atomic.AddUint64(&requestIDCounter, 1)

			sw := statusWriterPool.Get().(*statusWriter)
			sw.ResponseWriter = w
			sw.status = http.StatusOK
			defer func() {
				elapsed := time.Since(start)
				ms := float64(elapsed.Microseconds()) / 1000.0

				if elapsed >= threshold {
					slog.Warn("slow_request", "request_id", reqID, "method", r.Method, "path", path, "status", sw.status, "duration_ms", ms)
				} else {
					slog.Debug("request", "request_id", reqID, "method", r.Method, "path", path, "status", sw.status, "duration_ms", ms)
				}

				if collector != nil {
					collector.Record(perf.Entry{
						Kind:       perf.KindRequest,
						Path:       r.Method + " " + routeLabel(path),
						StatusCode: sw.status,
						Failed:     sw.status >= http.StatusInternalServerError,
						DurationMs: ms,
						Timestamp:  start,
					})
				}

				sw.ResponseWriter = nil
				statusWriterPool.Put(sw)
			}()

			next.ServeHTTP(sw, r)
		})
	}
}

// routeLabel folds per-day paths so the perf table groups them.
func routeLabel(path string) string {
	rest, ok := strings.CutPrefix(path, "/days/")
	if !ok {
		return path
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return "/days/{day}" + rest[i:]
	}
	return "/days/{day}"
}
