package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	berr "github.com/next-trace/scg-mdb-client/contract/errors"
)

// Config describes a core NATS connection. Logger receives connection state
// changes; nil means slog.Default.
type Config struct {
	URL           string
	Name          string
	ConnTimeout   time.Duration
	MaxReconnects int
	Logger        *slog.Logger
}

// flushTimeout bounds the server round trip when the caller set no deadline.
const flushTimeout = 10 * time.Second

type natsClient struct{ nc *nats.Conn }

// Publish flushes after every message so a returned nil means the server
// accepted it. ctx cancels the flush.
func (c natsClient) Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error {
	msg := nats.NewMsg(subject)
	msg.Data = data

	for k, v := range headers {
		msg.Header.Set(k, v)
	}

	if err := c.nc.PublishMsg(msg); err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}

	return c.nc.FlushWithContext(ctx)
}

func connOptions(cfg Config) []nats.Option {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []nats.Option{
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrlRedacted())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Debug("nats connection closed")
		}),
	}

	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	if cfg.ConnTimeout > 0 {
		opts = append(opts, nats.Timeout(cfg.ConnTimeout))
	}

	if cfg.MaxReconnects != 0 {
		opts = append(opts, nats.MaxReconnects(cfg.MaxReconnects))
	}

	return opts
}

// NewWithNATS dials cfg.URL and returns an Adapter and a cleanup that drains
// the connection.
func NewWithNATS(cfg Config) (*Adapter, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("nats url required: %w", berr.ErrTransportNotConfigured)
	}

	nc, err := nats.Connect(cfg.URL, connOptions(cfg)...)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect %s: %w", cfg.URL, errors.Join(berr.ErrTransportNotConfigured, err))
	}

	cleanup := func() {
		if !nc.IsClosed() {
			_ = nc.Drain() //nolint:errcheck // nothing to report to at shutdown
		}
	}

	return New(natsClient{nc: nc}), cleanup, nil
}
