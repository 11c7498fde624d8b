// Package trace assigns request IDs and logs request completion.
package trace

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	flog "financy/internal/log"
)

type contextKey string

// RequestIDKey is the context key holding the request ID.
const RequestIDKey contextKey = "request_id"

// HeaderRequestID echoes the request ID back to the client.
const HeaderRequestID = "X-Request-ID"

type Middleware struct {
	clientIP func(*http.Request) string
	now      func() time.Time

	total      atomic.Int64
	failed     atomic.Int64
	durationUs atomic.Int64
}

// Metrics is a snapshot of request counters.
type Metrics struct {
	TotalRequests  int64
	ServerErrors   int64
	AverageLatency time.Duration
}

func NewMiddleware(clientIP func(*http.Request) string) *Middleware {
	return &Middleware{clientIP: clientIP, now: time.Now}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := m.now()

		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = NewRequestID()
		}
		ctx := WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		w.Header().Set(HeaderRequestID, requestID)

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		elapsed := m.now().Sub(start)
		m.total.Add(1)
		m.durationUs.Add(elapsed.Microseconds())
		if rw.status >= 500 {
			m.failed.Add(1)
		}

		level := slog.LevelInfo
		switch {
		case rw.status >= 500:
			level = slog.LevelError
		case rw.status >= 400:
			level = slog.LevelWarn
		}
		clientIP := ""
		if m.clientIP != nil {
			clientIP = m.clientIP(r)
		}
		slog.Log(ctx, level, "HTTP request completed",
			flog.FieldRequestID, requestID,
			flog.FieldMethod, r.Method,
			flog.FieldPath, r.URL.Path,
			flog.FieldStatusCode, rw.status,
			flog.FieldDuration, elapsed.Milliseconds(),
			flog.FieldClientIP, clientIP)
	})
}

// Metrics returns the counters collected so far.
func (m *Middleware) Metrics() Metrics {
	total := m.total.Load()
	out := Metrics{TotalRequests: total, ServerErrors: m.failed.Load()}
	if total > 0 {
		out.AverageLatency = time.Duration(m.durationUs.Load()/total) * time.Microsecond
	}
	return out
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func NewRequestID() string {
	return uuid.NewString()
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID returns the ID stored by the middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
