package nats

import (
	"context"
	"errors"
	"fmt"
	"strings"

	berr "github.com/next-trace/scg-mdb-client/contract/errors"
	"github.com/next-trace/scg-mdb-client/contract/messaging"
)

// Client is a minimal NATS-like publisher interface decoupled from any concrete library.
// Users can provide a wrapper around their NATS connection to satisfy this.
type Client interface {
	// Publish publishes a message to a subject with optional headers and
	// returns once the server has it or ctx ends.
	Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error
}

// Adapter implements messaging.Connection using an injected NATS-like Client.
// Queues and topics both map to subjects; queue semantics come from queue
// groups on the consuming side.
type Adapter struct {
	Client     Client
	Propagator messaging.HeaderPropagator // optional, for context propagation into headers
}

// Ensure Adapter implements the connection contract.
var _ messaging.Connection = (*Adapter)(nil)

// New creates a new NATS adapter instance with the provided client.
func New(c Client) *Adapter { return &Adapter{Client: c} }

// NewWithPropagator allows configuring a HeaderPropagator for context propagation.
func NewWithPropagator(c Client, hp messaging.HeaderPropagator) *Adapter {
	return &Adapter{Client: c, Propagator: hp}
}

// Resolve validates that name is a publishable subject. NATS has no
// destination registry, so a well-formed subject on a live client resolves.
func (a *Adapter) Resolve(
	ctx context.Context,
	name string,
	kind messaging.Kind,
	opts messaging.DestinationOptions,
) (messaging.Destination, error) {
	if err := a.ready(ctx, berr.ErrResolutionFailed, "resolve"); err != nil {
		return messaging.Destination{}, err
	}

	d, err := messaging.NewDestination(name, kind, opts)
	if err != nil {
		return messaging.Destination{}, err
	}

	if err := validSubject(d.Address); err != nil {
		return messaging.Destination{}, fmt.Errorf("nats resolve %q: %w", d.Address, errors.Join(berr.ErrResolutionFailed, err))
	}

	return d, nil
}

// Send publishes text on the destination's subject.
func (a *Adapter) Send(ctx context.Context, dst messaging.Destination, text string) error {
	if err := a.ready(ctx, berr.ErrSendFailed, "send"); err != nil {
		return err
	}

	headers := messaging.InjectHeaders(ctx, a.Propagator)

	if err := a.Client.Publish(ctx, dst.Address, []byte(text), headers); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("nats send publish %s: %w", dst.Address, errors.Join(berr.ErrSendFailed, err))
	}

	return nil
}

// OpenSession returns a session over the shared connection; nats.Conn is safe for concurrent use.
func (a *Adapter) OpenSession(ctx context.Context) (messaging.Session, error) { //nolint:ireturn
	if err := a.ready(ctx, berr.ErrSendFailed, "open session"); err != nil {
		return nil, err
	}

	return messaging.SessionOf(a), nil
}

func (a *Adapter) ready(ctx context.Context, base error, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Client == nil {
		return fmt.Errorf("nats %s: %w", label, errors.Join(base, berr.ErrTransportNotConfigured))
	}

	return nil
}

// validSubject rejects wildcards and empty tokens, which NATS accepts only on subscriptions.
func validSubject(s string) error {
	if strings.ContainsAny(s, " \t\r\n") {
		return fmt.Errorf("subject %q contains whitespace", s)
	}

	for _, tok := range strings.Split(s, ".") {
		switch tok {
		case "":
			return fmt.Errorf("subject %q has an empty token", s)
		case "*", ">":
			return fmt.Errorf("subject %q contains a wildcard", s)
		}
	}

	return nil
}
