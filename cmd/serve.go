package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/next-trace/scg-mdb-client/config"
	"github.com/next-trace/scg-mdb-client/httpapi"
	"github.com/next-trace/scg-mdb-client/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  "Resolve every configured destination, then serve the publish endpoint, health and metrics over HTTP.",
		RunE:  runServe,
	}
}

// runServe wires dependencies and starts the HTTP server.
func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c, err := buildClient(ctx, cfg, logger, reg, cfg.MessageCount)
	if err != nil {
		return err
	}
	defer c.Close()

	e := httpapi.NewServer(httpapi.NewController(c), reg, logger, httpapi.TraceContext(tracing.New()))

	errCh := make(chan error, 1)

	go func() {
		logger.InfoContext(ctx, "starting HTTP server", "addr", cfg.HTTPAddr())

		if err := e.Start(cfg.HTTPAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpapi.Shutdown(shutdownCtx, e); err != nil {
		logger.Error("HTTP shutdown error", "err", err)
	}

	logger.Info("server stopped")

	return nil
}
