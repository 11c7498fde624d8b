package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the store and the templates.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"templates": "ok", "store": "ok"}
	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	switch {
	case s.deps.Store == nil:
		checks["store"] = "not_configured"
	default:
		if err := s.deps.Store.Ping(ctx); err != nil {
			checks["store"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	tm := s.tracer.Metrics()
	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
	}
	gauge := func(name, help string, v float64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %g\n\n", name, help, name, name, v)
	}

	counter("http_requests_total", "Total number of HTTP requests", tm.TotalRequests)
	counter("http_server_errors_total", "Total number of 5xx responses", tm.ServerErrors)
	gauge("http_request_duration_avg_seconds", "Average request duration", tm.AverageLatency.Seconds())
	counter("rate_limited_requests_total", "Requests rejected by the rate limiter", s.limiter.Limited())
	gauge("rate_limiter_active_clients", "Clients tracked by the rate limiter", float64(s.limiter.ActiveClients()))
	if s.deps.CacheStats != nil {
		cs := s.deps.CacheStats()
		counter("cache_hits_total", "Transaction cache hits", cs.Hits)
		counter("cache_misses_total", "Transaction cache misses", cs.Misses)
		gauge("cache_entries", "Entries in the transaction cache", float64(cs.Size))
	}
	gauge("uptime_seconds", "Seconds since the server started", time.Since(s.started).Seconds())
}
