package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"

	"github.com/dgallion1/specgest/internal/api"
	"github.com/dgallion1/specgest/internal/extract"
	"github.com/dgallion1/specgest/internal/metrics"
	"github.com/dgallion1/specgest/internal/pipeline"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the extraction HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg, os.Stdout)

	ex, err := newExtractor(cfg, log)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	stats := extract.NewStats(cfg.Extract.StatsWindow)

	orch := pipeline.NewOrchestrator(cfg, ex, m, stats, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, m, stats, log, cfg)
	httpServer := &http.Server{
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Extract.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", ":"+cfg.Server.Port)
	if err != nil {
		orch.Stop()
		return fmt.Errorf("listen: %w", err)
	}
	ln = netutil.LimitListener(ln, cfg.Server.MaxConnections)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting specgest", "port", cfg.Server.Port, "max_connections", cfg.Server.MaxConnections)
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		orch.Stop()
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	orch.Stop()
	return nil
}
