// Package tracing carries W3C trace context from inbound requests into
// outbound message headers.
package tracing

import (
	"context"
	"net/http"

	"github.com/next-trace/scg-mdb-client/contract/messaging"
	"go.opentelemetry.io/otel/propagation"
)

// Propagator injects trace context and baggage into message headers and
// extracts them from HTTP headers.
type Propagator struct {
	p propagation.TextMapPropagator
}

var _ messaging.HeaderPropagator = Propagator{}

// New returns a Propagator for traceparent/tracestate and baggage.
func New() Propagator {
	return Propagator{p: propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})}
}

func (p Propagator) Inject(ctx context.Context, headers map[string]string) {
	if p.p == nil {
		return
	}

	p.p.Inject(ctx, propagation.MapCarrier(headers))
}

// Extract returns ctx carrying the trace context found in h.
func (p Propagator) Extract(ctx context.Context, h http.Header) context.Context {
	if p.p == nil {
		return ctx
	}

	return p.p.Extract(ctx, propagation.HeaderCarrier(h))
}
