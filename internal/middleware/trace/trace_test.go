package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestHandlerAssignsRequestID(t *testing.T) {
	var seen string
	h := NewMiddleware(nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("request id = %q: %v", seen, err)
	}
	if got := rr.Header().Get(HeaderRequestID); got != seen {
		t.Fatalf("header id = %q, want %q", got, seen)
	}
}

func TestHandlerKeepsIncomingRequestID(t *testing.T) {
	var seen string
	h := NewMiddleware(nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc" {
		t.Fatalf("request id = %q", seen)
	}
}

func TestMetricsCountServerErrors(t *testing.T) {
	m := NewMiddleware(func(*http.Request) string { return "1.2.3.4" })
	codes := []int{200, 404, 500, 503}
	for _, code := range codes {
		code := code
		h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	got := m.Metrics()
	if got.TotalRequests != 4 || got.ServerErrors != 2 {
		t.Fatalf("metrics = %+v", got)
	}
}
