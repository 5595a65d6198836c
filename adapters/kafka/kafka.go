package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"

	berr "github.com/next-trace/scg-mdb-client/contract/errors"
	"github.com/next-trace/scg-mdb-client/contract/messaging"
)

// Kafka has no separate queue model; both kinds map to a Kafka topic named
// after the destination address and carry their kind in a record header.
const KindHeader = "mdb-kind"

// Writer is a minimal Kafka-like writer interface.
// Users can adapt segmentio/kafka-go or any other client to this.
type Writer interface {
	Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// TopicLookup reports whether a topic exists. Optional.
type TopicLookup interface {
	LookupTopic(ctx context.Context, topic string) error
}

// Adapter implements messaging.Connection using an injected Writer.
type Adapter struct {
	Writer     Writer
	Lookup     TopicLookup
	Propagator messaging.HeaderPropagator
}

var (
	_ messaging.Connection = (*Adapter)(nil)
	_ messaging.Producer   = (*Adapter)(nil)
)

// New creates a new Kafka adapter instance with the provided writer.
func New(w Writer) *Adapter { return &Adapter{Writer: w} }

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

	if err := validTopic(d.Address); err != nil {
		return messaging.Destination{}, fmt.Errorf("kafka resolve %s: %w", d, errors.Join(berr.ErrResolutionFailed, err))
	}

	if a.Lookup == nil {
		return d, nil
	}

	if err := a.Lookup.LookupTopic(ctx, d.Address); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return messaging.Destination{}, err
		}

		return messaging.Destination{}, fmt.Errorf("kafka resolve %s: %w", d, errors.Join(berr.ErrResolutionFailed, err))
	}

	return d, nil
}

func (a *Adapter) OpenSession(ctx context.Context) (messaging.Session, error) { //nolint:ireturn
	if err := a.ready(ctx, berr.ErrSendFailed, "open session"); err != nil {
		return nil, err
	}

	return messaging.SessionOf(a), nil
}

func (a *Adapter) Send(ctx context.Context, dst messaging.Destination, text string) error {
	if err := a.ready(ctx, berr.ErrSendFailed, "send"); err != nil {
		return err
	}

	headers := messaging.InjectHeaders(ctx, a.Propagator)
	if headers == nil {
		headers = make(map[string]string, 1)
	}

	headers[KindHeader] = string(dst.Kind)

	if err := a.Writer.Write(ctx, dst.Address, nil, []byte(text), headers); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// separate return from preceding multi-line block (wsl)
		return fmt.Errorf("kafka send write %s: %w", dst, errors.Join(berr.ErrSendFailed, err))
	}

	return nil
}

func (a *Adapter) ready(ctx context.Context, base error, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Writer == nil {
		return fmt.Errorf("kafka %s: %w", label, errors.Join(base, berr.ErrTransportNotConfigured))
	}

	return nil
}

// validTopic applies Kafka's topic naming rules.
func validTopic(name string) error {
	if name == "." || name == ".." {
		return fmt.Errorf("topic name %q is reserved", name)
	}

	if len(name) > 249 {
		return fmt.Errorf("topic name longer than 249 characters")
	}

	if i := strings.IndexFunc(name, func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '.' && r != '_' && r != '-'
	}); i >= 0 {
		return fmt.Errorf("topic name %q has illegal character at %d", name, i)
	}

	return nil
}
