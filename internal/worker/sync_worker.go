// Package worker mirrors stored transactions to the ledger sheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"financy/internal/amqp"
	"financy/internal/core"
	"financy/internal/sheets"
	"financy/internal/storage"
)

// Store is the persistence the worker needs.
type Store interface {
	storage.SyncStore
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
}

// SyncWorker copies pending transactions from SQLite into Google Sheets.
type SyncWorker struct {
	store     Store
	ledger    sheets.LedgerWriter
	batchSize int

	// mu serializes the status check and append so the queue consumer and
	// the periodic sweep never mirror the same row twice.
	mu sync.Mutex
}

func NewSyncWorker(store Store, ledger sheets.LedgerWriter, batchSize int) *SyncWorker {
	if batchSize < 1 {
		batchSize = 1
	}
	return &SyncWorker{store: store, ledger: ledger, batchSize: batchSize}
}

// HandleMessage processes one queue message.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.Message) error {
	if msg.Type != amqp.MessageTransactionCreated {
		slog.WarnContext(ctx, "Ignoring unknown message type", "type", msg.Type, "message_id", msg.ID)
		return nil
	}

	t, err := w.store.GetTransaction(ctx, msg.TransactionID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction vanished before sync", "transaction_id", msg.TransactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	_, err = w.sync(ctx, t)
	return err
}

// ProcessPending syncs up to one batch of rows the queue may have missed.
func (w *SyncWorker) ProcessPending(ctx context.Context) (synced, failed int, err error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck drains a larger backlog once when the worker boots.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced, "errors", failed)
	return nil
}

// Run sweeps pending rows every interval until ctx is done.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, _, err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.store.PendingSync(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))
	for _, t := range pending {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}
		appended, err := w.sync(ctx, t)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "transaction_id", t.ID, "error", err)
			failed++
			continue
		}
		if appended {
			synced++
		}
	}
	return synced, failed, nil
}

// sync appends t to the ledger unless it is already there. Rows in the
// error state are retried.
func (w *SyncWorker) sync(ctx context.Context, t core.Transaction) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	status, err := w.store.SyncStatus(ctx, t.ID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction vanished before sync", "transaction_id", t.ID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get sync status: %w", err)
	}
	if status == storage.SyncSynced {
		slog.DebugContext(ctx, "Transaction already in ledger", "transaction_id", t.ID)
		return false, nil
	}

	ref, err := w.ledger.AppendTransaction(ctx, t)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, t.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "transaction_id", t.ID, "error", markErr)
		}
		return false, fmt.Errorf("append to ledger: %w", err)
	}

	// The row is in the sheet; a failed status update only means it may be
	// appended again by a later sweep.
	if err := w.store.MarkSynced(ctx, t.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "transaction_id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "Transaction synced to ledger",
		"transaction_id", t.ID,
		"sheets_ref", ref,
		"amount", t.Amount)
	return true, nil
}
