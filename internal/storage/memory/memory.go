// Package memory is an in-process Store used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"financy/internal/core"
	"financy/internal/storage"
)

type userNotification struct {
	userID string
	core.Notification
}

type userGoal struct {
	userID string
	core.Goal
}

type Store struct {
	mu            sync.Mutex
	now           func() time.Time
	nextID        int64
	transactions  []core.Transaction
	syncStatus    map[int64]string
	goals         []userGoal
	notifications []userNotification
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now, syncStatus: make(map[int64]string)}
}

// WithClock replaces the time source, for deterministic ordering in tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.transactions = append(s.transactions, t)
	s.syncStatus[t.ID] = storage.SyncPending
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, storage.ErrNotFound
}

func (s *Store) ListTransactions(context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	out := append([]core.Transaction{}, s.transactions...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) PendingSync(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Transaction{}
	for _, t := range s.transactions {
		if s.syncStatus[t.ID] != storage.SyncPending {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, id int64) error {
	return s.setSyncStatus(id, storage.SyncSynced)
}

func (s *Store) MarkSyncError(_ context.Context, id int64) error {
	return s.setSyncStatus(id, storage.SyncError)
}

func (s *Store) setSyncStatus(id int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.syncStatus[id]; !ok {
		return storage.ErrNotFound
	}
	s.syncStatus[id] = status
	return nil
}

func (s *Store) SyncStatus(_ context.Context, id int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.syncStatus[id]
	if !ok {
		return "", storage.ErrNotFound
	}
	return status, nil
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	s.mu.Lock()
	out := []core.Goal{}
	for _, g := range s.goals {
		if g.userID == userID {
			out = append(out, g.Goal)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.DueDate == nil) != (b.DueDate == nil) {
			return b.DueDate == nil
		}
		if a.DueDate != nil && !a.DueDate.Equal(b.DueDate.Time) {
			return a.DueDate.Before(b.DueDate.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out, nil
}

func (s *Store) CreateGoal(_ context.Context, userID string, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.id()
	g.CreatedAt = s.now().UTC()
	s.goals = append(s.goals, userGoal{userID: userID, Goal: g})
	return g, nil
}

func (s *Store) GetGoal(_ context.Context, userID string, id int64) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.goalIndex(userID, id); i >= 0 {
		return s.goals[i].Goal, nil
	}
	return core.Goal{}, storage.ErrNotFound
}

func (s *Store) UpdateGoal(_ context.Context, userID string, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(userID, g.ID)
	if i < 0 {
		return core.Goal{}, storage.ErrNotFound
	}
	g.CreatedAt = s.goals[i].CreatedAt
	s.goals[i].Goal = g
	return g, nil
}

func (s *Store) CompleteGoal(_ context.Context, userID string, id int64) (core.Goal, core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(userID, id)
	if i < 0 {
		return core.Goal{}, core.Notification{}, storage.ErrNotFound
	}
	g := s.goals[i].Goal
	s.goals = append(s.goals[:i], s.goals[i+1:]...)
	n := s.addNotification(userID, g.CompletionNotification())
	return g, n, nil
}

func (s *Store) goalIndex(userID string, id int64) int {
	for i, g := range s.goals {
		if g.ID == id && g.userID == userID {
			return i
		}
	}
	return -1
}

func (s *Store) addNotification(userID string, n core.Notification) core.Notification {
	n.ID = s.id()
	n.CreatedAt = s.now().UTC()
	s.notifications = append(s.notifications, userNotification{userID: userID, Notification: n})
	return n
}

func (s *Store) CreateNotification(_ context.Context, userID string, n core.Notification) (core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addNotification(userID, n), nil
}

func (s *Store) ListNotifications(_ context.Context, userID string, limit int) ([]core.Notification, error) {
	if limit <= 0 || limit > storage.NotificationLimit {
		limit = storage.NotificationLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Notification{}
	for i := len(s.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if s.notifications[i].userID == userID {
			out = append(out, s.notifications[i].Notification)
		}
	}
	return out, nil
}

func (s *Store) CountUnread(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, v := range s.notifications {
		if v.userID == userID && !v.Read {
			n++
		}
	}
	return n, nil
}

func (s *Store) SetNotificationRead(_ context.Context, userID string, id int64, read bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id && s.notifications[i].userID == userID {
			s.notifications[i].Read = read
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.notifications {
		if s.notifications[i].userID == userID && !s.notifications[i].Read {
			s.notifications[i].Read = true
			n++
		}
	}
	return n, nil
}
