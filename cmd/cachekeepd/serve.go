package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/sagarc03/cachekeep"
	"github.com/sagarc03/cachekeep/maintenance"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduled maintenance loop until interrupted",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Error("failed to close metadata store", "err", err)
		}
	}()

	// Init validates the cache directory up front; serve itself only
	// drives maintenance, not ingest, so the returned manager is discarded.
	if _, err := cachekeep.InitWithConfig(store, cfg.Storage.Dir, cachekeep.StorageConfig{
		EvictionPolicy: evictionPolicy(),
	}); err != nil {
		return err
	}

	runner := maintenance.New(store, cfg.Storage.Dir, maintenance.Opts{
		FindCorrupted:   cfg.Maintenance.FindCorrupted,
		RemoveCorrupted: cfg.Maintenance.RemoveCorrupted,
		CleanExpired:    cfg.Maintenance.CleanExpired,
		PruneDangling:   cfg.Maintenance.PruneDangling,
	}, slog.Default())

	slog.Info("starting maintenance loop", "interval", cfg.Maintenance.Interval)
	runner.RunForever(ctx, cfg.Maintenance.Interval)
	slog.Info("maintenance loop stopped")
	return nil
}
