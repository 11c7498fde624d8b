// Package storage persists transactions, goals and notifications.
package storage

import (
	"context"
	"errors"

	"financy/internal/core"
)

// ErrNotFound is returned when a row does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

// NotificationLimit caps how many notifications a listing returns.
const NotificationLimit = 100

type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	// ListTransactions returns every transaction ordered by date then id, newest first.
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
}

type GoalStore interface {
	// ListGoals orders by due date with undated goals last, then newest first.
	ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
	CreateGoal(ctx context.Context, userID string, g core.Goal) (core.Goal, error)
	GetGoal(ctx context.Context, userID string, id int64) (core.Goal, error)
	UpdateGoal(ctx context.Context, userID string, g core.Goal) (core.Goal, error)
	// CompleteGoal deletes the goal and records its completion notification
	// atomically.
	CompleteGoal(ctx context.Context, userID string, id int64) (core.Goal, core.Notification, error)
}

type NotificationStore interface {
	ListNotifications(ctx context.Context, userID string, limit int) ([]core.Notification, error)
	CreateNotification(ctx context.Context, userID string, n core.Notification) (core.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	SetNotificationRead(ctx context.Context, userID string, id int64, read bool) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
}

// Ledger sync states stored per transaction.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// SyncStore tracks which transactions still have to reach the ledger sheet.
type SyncStore interface {
	PendingSync(ctx context.Context, limit int) ([]core.Transaction, error)
	// SyncStatus returns ErrNotFound for unknown ids.
	SyncStatus(ctx context.Context, id int64) (string, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// Store is the full persistence surface used by the application.
type Store interface {
	TransactionStore
	GoalStore
	NotificationStore
	SyncStore
	Ping(ctx context.Context) error
	Close() error
}
