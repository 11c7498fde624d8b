// Package services holds the application use cases that sit between the
// HTTP handlers and storage.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"financy/internal/cache"
	"financy/internal/core"
	"financy/internal/dashboard"
	flog "financy/internal/log"
	"financy/internal/storage"
)

const transactionsCacheKey = "transactions"

// Publisher announces stored transactions to the ledger sync queue.
type Publisher interface {
	PublishTransactionCreated(ctx context.Context, transactionID int64) error
}

// TransactionService stores transactions and serves the dashboard from a
// cached copy of the full list.
type TransactionService struct {
	store     storage.TransactionStore
	publisher Publisher
	cache     cache.Cache[[]core.Transaction]
	now       func() time.Time
	loc       *time.Location

	// generation counts creates. A list read that overlaps a create is
	// returned but not cached.
	cacheMu    sync.Mutex
	generation uint64
}

type TransactionOption func(*TransactionService)

// WithPublisher enables best-effort sync announcements.
func WithPublisher(p Publisher) TransactionOption {
	return func(s *TransactionService) { s.publisher = p }
}

func WithTransactionCache(c cache.Cache[[]core.Transaction]) TransactionOption {
	return func(s *TransactionService) { s.cache = c }
}

// WithClock sets the time source and the zone used to decide the current month.
func WithClock(now func() time.Time, loc *time.Location) TransactionOption {
	return func(s *TransactionService) {
		s.now = now
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewTransactionService(store storage.TransactionStore, opts ...TransactionOption) *TransactionService {
	s := &TransactionService{store: store, now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every transaction, newest first.
func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	if s.cache != nil {
		if txs, ok := s.cache.Get(transactionsCacheKey); ok {
			return txs, nil
		}
	}
	gen := s.currentGeneration()
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if s.cache != nil {
		s.cacheMu.Lock()
		if s.generation == gen {
			s.cache.Set(transactionsCacheKey, txs)
		}
		s.cacheMu.Unlock()
	}
	return txs, nil
}

// Create validates and stores t, then announces it for ledger sync. The
// announcement never fails the request.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidate()

	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping sync message", flog.FieldTransactionID, saved.ID)
		return saved, nil
	}
	if err := s.publisher.PublishTransactionCreated(ctx, saved.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", flog.FieldTransactionID, saved.ID, flog.FieldError, err)
	}
	return saved, nil
}

func (s *TransactionService) currentGeneration() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.generation
}

func (s *TransactionService) invalidate() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.generation++
	if s.cache != nil {
		s.cache.Delete(transactionsCacheKey)
	}
}

// Summary builds the dashboard overview for the current month.
func (s *TransactionService) Summary(ctx context.Context) (dashboard.Summary, error) {
	txs, err := s.List(ctx)
	if err != nil {
		return dashboard.Summary{}, err
	}
	return dashboard.Build(txs, s.now().In(s.loc)), nil
}
