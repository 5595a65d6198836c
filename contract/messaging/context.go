package messaging

import "context"

// HeaderPropagator abstracts injecting tracing context into transport headers.
// Implementations may bridge to OpenTelemetry or any other propagation standard.
// Implementations must be safe for concurrent use.
type HeaderPropagator interface {
	Inject(ctx context.Context, headers map[string]string)
}

// NopHeaderPropagator is a no-op implementation useful for tests or when tracing is disabled.
type NopHeaderPropagator struct{}

func (NopHeaderPropagator) Inject(ctx context.Context, headers map[string]string) {
	_ = ctx
	_ = headers
}

// InjectHeaders returns a fresh header map populated by p, or nil when p is
// nil or adds nothing.
func InjectHeaders(ctx context.Context, p HeaderPropagator) map[string]string {
	if p == nil || ctx == nil {
		return nil
	}

	h := make(map[string]string, 4)
	p.Inject(ctx, h)

	if len(h) == 0 {
		return nil
	}

	return h
}
