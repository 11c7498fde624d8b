package http

import (
	"log/slog"
	"net/http"

	"financy/internal/core"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Categories)
}

func (s *Server) handleMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Methods)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.deps.Transactions.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.WarnContext(r.Context(), "Invalid transaction body", "error", err)
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, verr := req.transaction()
	if len(verr.Fields) > 0 {
		t.Normalize()
		verr.Merge("", t.Validate())
		writeError(w, r, &verr)
		return
	}

	saved, err := s.deps.Transactions.Create(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "Transaction created",
		"transaction_id", saved.ID,
		"amount", saved.Amount,
		"category", saved.Category)
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.deps.Goals.List(r.Context(), s.deps.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if goals == nil {
		goals = []core.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	g, err := req.goal()
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.deps.Goals.Create(r.Context(), s.deps.UserID, g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	patch, err := req.patch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.deps.Goals.Update(r.Context(), s.deps.UserID, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleCompleteGoal deletes the goal and records a completion notification.
func (s *Server) handleCompleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.deps.Goals.Complete(r.Context(), s.deps.UserID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.Notifications.List(r.Context(), s.deps.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if out == nil {
		out = []core.Notification{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	count, badge, err := s.deps.Notifications.UnreadCount(r.Context(), s.deps.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count, "badge": badge})
}

// handleSetNotificationRead treats a missing or unreadable body as read=true.
func (s *Server) handleSetNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	read := true
	var req notificationPatchRequest
	if err := decodeJSON(w, r, &req); err == nil && req.Read != nil {
		read = *req.Read
	}
	if err := s.deps.Notifications.SetRead(r.Context(), s.deps.UserID, id, read); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Notifications.MarkAllRead(r.Context(), s.deps.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "updated": n})
}
