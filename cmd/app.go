package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/next-trace/scg-mdb-client/catalog"
	"github.com/next-trace/scg-mdb-client/client"
	"github.com/next-trace/scg-mdb-client/config"
	"github.com/next-trace/scg-mdb-client/metrics"
	"github.com/next-trace/scg-mdb-client/publisher"
	"github.com/next-trace/scg-mdb-client/tracing"
	"github.com/prometheus/client_golang/prometheus"
)

func loadCatalog(cfg *config.Config) (catalog.Catalog, error) {
	if cfg.DestinationsFile == "" {
		return catalog.Default(), nil
	}

	return catalog.LoadFile(cfg.DestinationsFile)
}

// buildClient connects the transport and resolves the catalog. Resolution
// failures are fatal: no client is returned and the transport is closed.
func buildClient(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	reg prometheus.Registerer,
	count int,
) (*client.Client, error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	m, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	conn, cleanup, err := openTransport(ctx, cfg, cat, tracing.New(), logger)
	if err != nil {
		return nil, fmt.Errorf("open %s transport: %w", cfg.Transport, err)
	}

	pub := publisher.New(
		publisher.WithLogger(logger),
		publisher.WithSendMiddleware(m.SendMiddleware()),
		publisher.WithBatchTimeout(cfg.SendTimeout),
	)

	c, err := client.New(ctx, conn, cat,
		client.WithPublisher(pub),
		client.WithLogger(logger),
		client.WithCount(count),
		client.WithPassObserver(m.ObservePass),
		client.WithCleanup(cleanup),
	)
	if err != nil {
		cleanup()

		return nil, err
	}

	logger.InfoContext(ctx, "destinations resolved",
		"transport", cfg.Transport,
		"count", len(c.Destinations().All()),
	)

	return c, nil
}
