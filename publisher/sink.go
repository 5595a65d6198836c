package publisher

import (
	"context"
	"log/slog"
)

// Sink receives every failed batch report. Implementations must not block
// for long; they run inline with the publish pass.
type Sink interface {
	SendFailed(ctx context.Context, r Report)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Report)

func (f SinkFunc) SendFailed(ctx context.Context, r Report) { f(ctx, r) }

// LogSink logs failures at error level. A nil Logger falls back to slog.Default.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) SendFailed(ctx context.Context, r Report) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.ErrorContext(ctx, "send failed",
		"label", r.Label,
		"destination", r.Destination.String(),
		"sent", len(r.Sent),
		"err", r.Err,
	)
}
