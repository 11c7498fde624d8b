package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"financy/internal/amqp"
	"financy/internal/storage"
	"financy/internal/storage/memory"
)

// Result is an opened backend. Publisher is nil when AMQP is not
// configured or unreachable.
type Result struct {
	Store     storage.Store
	Publisher *amqp.Client
}

// Close releases the publisher and the store.
func (r *Result) Close() error {
	var errs []error
	if r.Publisher != nil {
		errs = append(errs, r.Publisher.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	return errors.Join(errs...)
}

type Factory interface {
	Open(ctx context.Context, cfg Config) (*Result, error)
}

type DefaultFactory struct {
	logger    *slog.Logger
	newClient func(url, exchange, queue string) (*amqp.Client, error)
}

func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, newClient: amqp.NewClient}
}

func (f *DefaultFactory) Open(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var res Result
	switch cfg.Type {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res.Store = repo
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case Memory:
		res.Store = memory.New()
		f.logger.InfoContext(ctx, "Initialized memory backend")
	}

	if cfg.AMQPURL != "" {
		client, err := f.newClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			res.Publisher = client
			f.logger.InfoContext(ctx, "Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}
	return &res, nil
}
