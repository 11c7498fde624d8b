package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"financy/internal/cache"
	"financy/internal/cli"
	"financy/internal/config"
	"financy/internal/core"
	apphttp "financy/internal/http"
	flog "financy/internal/log"
	"financy/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(flog.ComponentHTTP, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	res := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	}()

	txCache := cache.NewLRUCache[[]core.Transaction](16, cfg.CacheTTL)
	caches := cache.NewManager()
	caches.Register(txCache)
	caches.Start(ctx, time.Minute)
	defer caches.Stop()

	txOpts := []services.TransactionOption{
		services.WithTransactionCache(txCache),
		services.WithClock(time.Now, cfg.Location()),
	}
	if res.Publisher != nil {
		txOpts = append(txOpts, services.WithPublisher(res.Publisher))
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions:       services.NewTransactionService(res.Store, txOpts...),
		Goals:              services.NewGoalService(res.Store),
		Notifications:      services.NewNotificationService(res.Store),
		Store:              res.Store,
		UserID:             cfg.DefaultUserID,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		CacheStats:         txCache.Stats,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", "error", err)
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting financy server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", res.Publisher != nil,
		"timezone", cfg.Location().String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
