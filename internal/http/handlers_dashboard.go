package http

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"financy/internal/core"
	"financy/internal/dashboard"
)

var templateFuncs = template.FuncMap{
	"usd": core.FormatUSD,
	"pct": dashboard.PctLabel,
}

type statCard struct {
	Label string
	Value float64
	Badge dashboard.Badge
}

type dashboardView struct {
	MonthLabel string
	Cards      []statCard
	Slices     []dashboard.Slice
	Recent     []core.Transaction
}

func newDashboardView(sum dashboard.Summary) dashboardView {
	return dashboardView{
		MonthLabel: sum.MonthLabel,
		Cards: []statCard{
			{Label: "Total balance", Value: sum.Current.Balance, Badge: sum.Badges.Balance},
			{Label: "Income", Value: sum.Current.Income, Badge: sum.Badges.Income},
			{Label: "Expenses", Value: sum.Current.Expenses, Badge: sum.Badges.Expenses},
		},
		Slices: sum.Slices,
		Recent: sum.Recent,
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sum, err := s.deps.Transactions.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sum.Slices == nil {
		sum.Slices = []dashboard.Slice{}
	}
	if sum.Recent == nil {
		sum.Recent = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, sum)
}

// handleIndex renders the dashboard page. Only the root path is served here.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sum, err := s.deps.Transactions.Summary(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard summary failed", "error", err)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", newDashboardView(sum)); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", "dashboard.html")
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
