package cmd

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Tiliavir/punch/internal/config"
	"github.com/Tiliavir/punch/internal/ledger"
	"github.com/Tiliavir/punch/internal/observability"
	"github.com/Tiliavir/punch/internal/storage"
)

// app bundles what every command needs.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *observability.Metrics
	ledger  *ledger.Ledger
	closer  io.Closer
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, closer, err := storage.Open(storage.Options{
		Backend: cfg.Backend,
		DataDir: cfg.DataDir,
		Key:     cfg.StorageKey,
	})
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics()
	l, err := ledger.Open(store,
		ledger.WithLocation(loc),
		ledger.WithLogger(logger),
		ledger.WithMetrics(metrics),
	)
	if err != nil {
		closer.Close()
		return nil, err
	}

	logger.Debug("configuration loaded",
		zap.String("data_dir", cfg.DataDir),
		zap.String("backend", cfg.Backend),
		zap.String("storage_key", cfg.StorageKey),
		zap.String("timezone", loc.String()),
	)
	return &app{cfg: cfg, logger: logger, metrics: metrics, ledger: l, closer: closer}, nil
}

// mustOpenApp opens the app or exits with the storage error code.
func mustOpenApp() *app {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return a
}

func (a *app) Close() {
	if err := a.closer.Close(); err != nil {
		a.logger.Warn("closing storage", zap.Error(err))
	}
	_ = a.logger.Sync()
}
