package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/napwatch/internal/api"
	"github.com/IshaanNene/napwatch/internal/engine"
)

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and HTTP API",
		Long:  "Refresh the dataset on an interval and serve it, the dashboard and manual refresh over HTTP.",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (0 = use config)")
	cmd.Flags().StringVarP(&interval, "interval", "i", "", "refresh interval, e.g. 30m")

	return cmd
}

// runServe executes the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}()

	sched := engine.NewScheduler(a.pipeline, cfg.Schedule, logger, engine.WithMetrics(a.metrics))
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	server := api.NewServer(cfg, sched, a.store, a.metrics, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("napwatch serving",
		"port", cfg.Server.Port,
		"landing", cfg.Site.LandingURL,
		"interval", cfg.Schedule.Interval,
	)

	select {
	case <-ctx.Done():
		logger.Info("received signal, shutting down...")
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", "error", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler stop", "error", err)
	}

	fmt.Fprintln(os.Stderr, "napwatch stopped")
	return nil
}
