package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"financy/internal/core"

	_ "modernc.org/sqlite"
)

// timestampLayout has a fixed width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) timestamp() string {
	return r.now().UTC().Format(timestampLayout)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Transactions

const transactionColumns = `id, description, method, date, amount, positive, category`

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t        core.Transaction
		date     string
		positive int64
	)
	if err := s.Scan(&t.ID, &t.Description, &t.Method, &date, &t.Amount, &positive, &t.Category); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", t.ID, err)
	}
	t.Date = d
	t.Positive = positive != 0
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (description, method, date, amount, positive, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Description, t.Method, t.Date.String(), t.Amount, boolToInt(t.Positive), t.Category, r.timestamp())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	t.ID = id

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"description", t.Description,
		"amount", t.Amount,
		"date", t.Date.String())
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC, id DESC`)
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Sync state

func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE sync_status = 'pending' ORDER BY id LIMIT ?`, limit)
}

func (r *SQLiteRepository) SyncStatus(ctx context.Context, id int64) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM transactions WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get sync status %d: %w", id, err)
	}
	return status, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.setSyncStatus(ctx, id, SyncSynced); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.setSyncStatus(ctx, id, SyncError); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ?, synced_at = ? WHERE id = ?`, status, r.timestamp(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Goals

const goalColumns = `id, name, target_amount, current_amount, due_date, created_at`

func scanGoal(s rowScanner) (core.Goal, error) {
	var (
		g         core.Goal
		due       sql.NullString
		createdAt string
	)
	if err := s.Scan(&g.ID, &g.Title, &g.TargetAmount, &g.CurrentAmount, &due, &createdAt); err != nil {
		return core.Goal{}, err
	}
	if due.Valid && due.String != "" {
		d, err := core.ParseDate(due.String)
		if err != nil {
			return core.Goal{}, fmt.Errorf("goal %d: %w", g.ID, err)
		}
		g.DueDate = &d
	}
	ts, err := time.Parse(timestampLayout, createdAt)
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal %d created_at: %w", g.ID, err)
	}
	g.CreatedAt = ts
	return g, nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ?
		 ORDER BY due_date IS NULL, due_date ASC, created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	out := []core.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, userID string, g core.Goal) (core.Goal, error) {
	g.CreatedAt = r.now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, name, target_amount, current_amount, due_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, g.Title, g.TargetAmount, g.CurrentAmount, nullableDate(g.DueDate), g.CreatedAt.Format(timestampLayout))
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	if g.ID, err = res.LastInsertId(); err != nil {
		return core.Goal{}, fmt.Errorf("goal id: %w", err)
	}
	slog.InfoContext(ctx, "Goal saved to SQLite", "id", g.ID, "title", g.Title, "user_id", userID)
	return g, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID string, id int64) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal %d: %w", id, err)
	}
	return g, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, userID string, g core.Goal) (core.Goal, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET name = ?, target_amount = ?, current_amount = ?, due_date = ?
		 WHERE id = ? AND user_id = ?`,
		g.Title, g.TargetAmount, g.CurrentAmount, nullableDate(g.DueDate), g.ID, userID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal %d: %w", g.ID, err)
	}
	if err := requireRow(res); err != nil {
		return core.Goal{}, err
	}
	return r.GetGoal(ctx, userID, g.ID)
}

func (r *SQLiteRepository) CompleteGoal(ctx context.Context, userID string, id int64) (core.Goal, core.Notification, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Goal{}, core.Notification{}, fmt.Errorf("begin complete goal: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, core.Notification{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, core.Notification{}, fmt.Errorf("load goal %d: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return core.Goal{}, core.Notification{}, fmt.Errorf("delete goal %d: %w", id, err)
	}

	n, err := insertNotification(ctx, tx, userID, g.CompletionNotification(), r.now().UTC())
	if err != nil {
		return core.Goal{}, core.Notification{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Goal{}, core.Notification{}, fmt.Errorf("commit complete goal: %w", err)
	}

	slog.InfoContext(ctx, "Goal completed", "id", id, "user_id", userID, "notification_id", n.ID)
	return g, n, nil
}

// Notifications

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertNotification(ctx context.Context, db execer, userID string, n core.Notification, at time.Time) (core.Notification, error) {
	var href any
	if n.Href != "" {
		href = n.Href
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, title, body, href, read, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, n.Title, n.Body, href, boolToInt(n.Read), at.Format(timestampLayout))
	if err != nil {
		return core.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	if n.ID, err = res.LastInsertId(); err != nil {
		return core.Notification{}, fmt.Errorf("notification id: %w", err)
	}
	n.CreatedAt = at
	return n, nil
}

func (r *SQLiteRepository) CreateNotification(ctx context.Context, userID string, n core.Notification) (core.Notification, error) {
	return insertNotification(ctx, r.db, userID, n, r.now().UTC())
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID string, limit int) ([]core.Notification, error) {
	if limit <= 0 || limit > NotificationLimit {
		limit = NotificationLimit
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, body, href, read, created_at FROM notifications
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	out := []core.Notification{}
	for rows.Next() {
		var (
			n         core.Notification
			href      sql.NullString
			read      int64
			createdAt string
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &href, &read, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Href = href.String
		n.Read = read != 0
		if n.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
			return nil, fmt.Errorf("notification %d created_at: %w", n.ID, err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) SetNotificationRead(ctx context.Context, userID string, id int64, read bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = ? WHERE id = ? AND user_id = ?`, boolToInt(read), id, userID)
	if err != nil {
		return fmt.Errorf("update notification %d: %w", id, err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableDate(d *core.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}
