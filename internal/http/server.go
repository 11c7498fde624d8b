// Package http serves the JSON API and the dashboard page.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"financy/internal/cache"
	"financy/internal/middleware/ratelimit"
	"financy/internal/middleware/security"
	"financy/internal/middleware/trace"
	"financy/internal/services"
	appweb "financy/web"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps wires the server to the application services.
type Deps struct {
	Transactions  *services.TransactionService
	Goals         *services.GoalService
	Notifications *services.NotificationService
	Store         Pinger

	// UserID scopes goals and notifications.
	UserID string

	RateLimitPerMinute int
	TrustedProxies     []string

	// CacheStats is optional and feeds /metrics.
	CacheStats func() cache.Stats
}

type Server struct {
	http.Server
	deps      Deps
	templates *template.Template
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	started   time.Time

	stopBackground context.CancelFunc
	shutdownOnce   sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Transactions == nil || deps.Goals == nil || deps.Notifications == nil {
		return nil, errors.New("http server: services are required")
	}
	if deps.UserID == "" {
		return nil, errors.New("http server: user id is required")
	}

	clientIP, err := security.NewClientIP(deps.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("http server: %w", err)
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		deps:      deps,
		templates: t,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		tracer:    trace.NewMiddleware(clientIP.Resolve),
		started:   time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Handler)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		})
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.Get("/", s.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(clientIP.Resolve, func(w http.ResponseWriter, r *http.Request) {
			slog.WarnContext(r.Context(), "Rate limit exceeded", "client_ip", clientIP.Resolve(r), "path", r.URL.Path)
			writeMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
		}))

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/categories", s.handleCategories)
		r.Get("/methods", s.handleMethods)

		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleCreateTransaction)

		r.Get("/goals", s.handleListGoals)
		r.Post("/goals", s.handleCreateGoal)
		r.Patch("/goals/{id}", s.handleUpdateGoal)
		r.Delete("/goals/{id}", s.handleCompleteGoal)

		r.Get("/notifications", s.handleListNotifications)
		r.Get("/notifications/unread-count", s.handleUnreadCount)
		r.Patch("/notifications/{id}", s.handleSetNotificationRead)
		r.Post("/notifications/mark-all-read", s.handleMarkAllRead)
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.stopBackground = cancel
	go s.limiter.Run(ctx, 5*time.Minute)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown stops background routines and drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stopBackground()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
