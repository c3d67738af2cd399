package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/napolitain/solver-mutations/internal/loader"
	"github.com/napolitain/solver-mutations/internal/logging"
	"github.com/napolitain/solver-mutations/internal/market"
	"github.com/napolitain/solver-mutations/internal/ranking"
	"github.com/napolitain/solver-mutations/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := loadServerConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// buildServer wires tables, price feed and HTTP layer; the returned cleanup closes them
func buildServer(ctx context.Context, cfg ServerConfig, logger *slog.Logger) (*server.Server, *market.CachedSource, func(), error) {
	tables, err := loader.Load(cfg.DataDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load tables: %w", err)
	}
	logger.Info("tables loaded", "mutations", len(tables.Mutations), "crops", len(tables.Crops), "data", cfg.DataDir)

	ranker := ranking.NewRanker(tables, ranking.WithLogger(logger))

	bazaar := market.NewBazaarClient(tables.ProductIDs,
		market.WithURL(cfg.BazaarURL),
		market.WithBazaarLogger(logger))
	opts := []market.CachedOption{market.WithLogger(logger)}
	if cfg.SnapshotPath != "" {
		opts = append(opts, market.WithSnapshot(market.NewSnapshot(cfg.SnapshotPath)))
	}

	var store *market.RedisStore
	if cfg.RedisAddr != "" {
		store = market.NewRedisStore(cfg.RedisAddr, "")
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := store.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, using in-process cache only", "addr", cfg.RedisAddr, "error", err)
			_ = store.Close()
			store = nil
		} else {
			opts = append(opts, market.WithStore(store))
		}
	}
	prices := market.NewCachedSource(bazaar, opts...)

	scfg := server.DefaultConfig()
	scfg.RateLimit = cfg.RateLimit
	scfg.Burst = cfg.Burst
	scfg.AllowedOrigins = cfg.CORSOrigins
	srv := server.New(ranker, prices, scfg, logger)

	cleanup := func() {
		_ = srv.Close()
		if store != nil {
			_ = store.Close()
		}
	}
	return srv, prices, cleanup, nil
}

func run(ctx context.Context, cfg ServerConfig, logger *slog.Logger) error {
	srv, prices, cleanup, err := buildServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	go srv.RunPoller(ctx, prices, cfg.PollInterval)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API starting", "addr", cfg.Addr, "rate_limit", cfg.RateLimit, "poll_interval", cfg.PollInterval)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
