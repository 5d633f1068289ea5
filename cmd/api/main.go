package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"shiprates/internal/catalog"
	"shiprates/internal/config"
	"shiprates/internal/db"
	"shiprates/internal/metrics"
	"shiprates/internal/observability"
	"shiprates/internal/server"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err = db.NewPool(connectCtx, cfg.DatabaseURL)
		if err == nil {
			// Verify connectivity proactively
			err = pool.Ping(connectCtx)
		}
		cancel()
		if err != nil {
			logger.Fatal("database unavailable", zap.Error(err))
		}
		defer pool.Close()
	}

	source, err := buildSource(ctx, cfg, pool, logger)
	if err != nil {
		logger.Fatal("failed to load shipping configuration", zap.Error(err))
	}

	opts := server.Options{
		Source:  source,
		Metrics: metrics.New("shiprates"),
		Logger:  logger,
	}
	if pool != nil {
		opts.Quotes = db.NewQuoteRepo(pool)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewWithOptions(opts),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening",
			zap.String("addr", srv.Addr),
			zap.String("catalog_source", cfg.CatalogSource),
			zap.Bool("quote_storage", opts.Quotes != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("api stopped")
}

func buildSource(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger) (catalog.Source, error) {
	switch cfg.CatalogSource {
	case config.SourceBuiltin:
		policy, err := cfg.Policy()
		if err != nil {
			return nil, err
		}
		snap := catalog.DefaultSnapshot()
		snap.Policy = policy
		live, err := catalog.NewLive(snap)
		if err != nil {
			return nil, err
		}
		return live, nil

	case config.SourceFile:
		snap, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		live, err := catalog.NewLive(snap)
		if err != nil {
			return nil, err
		}
		go reloadOnHangup(ctx, live, cfg.CatalogFile, logger)
		return live, nil

	case config.SourcePostgres:
		if pool == nil {
			return nil, errors.New("postgres catalog requires a database pool")
		}
		settings := catalog.DefaultBreakerSettings("shipping-settings")
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}
		return catalog.NewGuarded(db.NewSettingsSource(pool), settings), nil
	}
	return nil, fmt.Errorf("unknown catalog source %q", cfg.CatalogSource)
}

// reloadOnHangup re-reads the catalog file on SIGHUP. A file that fails to
// load or validate leaves the previous snapshot in place.
func reloadOnHangup(ctx context.Context, live *catalog.Live, path string, logger *zap.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			snap, err := catalog.LoadFile(path)
			if err == nil {
				err = live.Update(snap)
			}
			if err != nil {
				logger.Error("catalog reload rejected", zap.String("path", path), zap.Error(err))
				continue
			}
			logger.Info("catalog reloaded", zap.String("path", path))
		}
	}
}
