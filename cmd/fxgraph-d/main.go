package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/api"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/blob"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/catalog"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/engine"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/logging"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/provider"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/session"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
	redisstore "github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "fxgraph-d: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fxgraph-d: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	logger.Info("system_started",
		zap.String("component", "fxgraph-d"),
		zap.String("store", cfg.StoreBackend),
		zap.String("service_url", cfg.ServiceURL))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("daemon_failed", zap.Error(err))
	}
	logger.Info("shutdown_complete")
}

func run(cfg Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("failed_to_close_store", zap.Error(err))
		} else {
			logger.Info("store_closed")
		}
	}()

	sess, err := session.Restore(ctx, st, logger)
	if err != nil {
		return err
	}

	svc := provider.NewClient(cfg.ServiceURL,
		provider.WithTimeout(cfg.RequestTimeout),
		provider.WithRetries(cfg.Retries, nil),
		provider.WithLogger(logger))

	opts := []engine.Option{engine.WithLogger(logger)}
	if cfg.ArchiveDir != "" {
		opts = append(opts, engine.WithBlobStore(blob.NewLocalBlobStore(cfg.ArchiveDir)))
		logger.Info("archive_enabled", zap.String("dir", cfg.ArchiveDir))
	}
	eng := engine.New(st, svc, sess, opts...)

	cat, err := catalog.Default()
	if err != nil {
		return err
	}

	apiOpts := []api.Option{
		api.WithLogger(logger),
		api.WithRequestTimeout(cfg.RequestTimeout),
	}
	if len(cfg.CORSOrigins) > 0 {
		apiOpts = append(apiOpts, api.WithCORSOrigins(cfg.CORSOrigins))
	}
	srv := api.NewServer(eng, cat, cfg.Addr, apiOpts...)

	go engine.NewArchiveWorker(eng, cfg.Archive).Run(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown_initiated")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func openStore(ctx context.Context, cfg Config, logger *zap.Logger) (store.SnapshotStore, error) {
	switch cfg.StoreBackend {
	case backendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("store_initialized", zap.String("backend", backendRedis), zap.String("addr", cfg.RedisAddr))
		return redisstore.NewSnapshotStore(client, logger), nil
	default:
		st, err := store.NewStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to init store: %w", err)
		}
		logger.Info("store_initialized", zap.String("backend", backendSQLite), zap.String("path", cfg.DBPath))
		return st, nil
	}
}
