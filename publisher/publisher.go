package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	berr "github.com/next-trace/scg-mdb-client/contract/errors"
	"github.com/next-trace/scg-mdb-client/contract/messaging"
)

// MessageCount is the number of messages sent to each destination per pass.
const MessageCount = 5

// TextFactory builds the payload for the i-th message of a batch.
type TextFactory func(i int) string

// DefaultText numbers messages from one: "This is message 1", "This is message 2", ...
func DefaultText(i int) string { return fmt.Sprintf("This is message %d", i+1) }

// Report is the outcome of one destination's batch. Sent lists every text the
// transport accepted, in send order. Err is nil on success.
type Report struct {
	Label       string
	Destination messaging.Destination
	Sent        []string
	Err         error
}

// OK reports whether the whole batch was handed to the transport.
func (r Report) OK() bool { return r.Err == nil }

// SendFunc is the signature of a single transport send.
type SendFunc func(ctx context.Context, dst messaging.Destination, text string) error

// SendMiddleware wraps every send. Middlewares run in registration order.
type SendMiddleware func(next SendFunc) SendFunc

// Publisher runs batch publish passes. It holds no per-request state and can
// be shared; the producer passed to each call must not be.
type Publisher struct {
	sink    Sink
	mw      []SendMiddleware
	timeout time.Duration
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger reports failures through logger unless WithSink overrides it.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.sink = LogSink{Logger: logger} }
}

// WithSink sets the failure reporting dependency.
func WithSink(s Sink) Option {
	return func(p *Publisher) {
		if s != nil {
			p.sink = s
		}
	}
}

// WithSendMiddleware registers send middleware.
func WithSendMiddleware(mw ...SendMiddleware) Option {
	return func(p *Publisher) { p.mw = append(p.mw, mw...) }
}

// WithBatchTimeout bounds each PublishBatch call. Zero disables the deadline.
func WithBatchTimeout(d time.Duration) Option {
	return func(p *Publisher) { p.timeout = d }
}

// New constructs a Publisher. Without options failures go to slog.Default.
func New(opts ...Option) *Publisher {
	p := &Publisher{sink: LogSink{}}
	for _, o := range opts {
		o(p)
	}

	return p
}

// PublishBatch sends count messages to e, one per index in order, on prod.
// The first failing send ends the batch: the report keeps the texts sent so
// far plus the terminal error, which is passed to the sink and never returned.
func (p *Publisher) PublishBatch(
	ctx context.Context,
	prod messaging.Producer,
	e Entry,
	count int,
	text TextFactory,
) Report {
	r := Report{Label: e.Label, Destination: e.Destination, Sent: []string{}}

	if err := checkBatch(prod, count); err != nil {
		r.Err = fmt.Errorf("publish %s: %w", e.Label, err)
		p.sink.SendFailed(ctx, r)

		return r
	}

	if text == nil {
		text = DefaultText
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	send := p.chain(prod)

	for i := range count {
		msg, err := attempt(ctx, send, e.Destination, text, i)
		if err != nil {
			r.Err = fmt.Errorf("send %s message %d: %w", e.Label, i, errors.Join(berr.ErrSendFailed, err))
			p.sink.SendFailed(ctx, r)

			return r
		}

		r.Sent = append(r.Sent, msg)
	}

	return r
}

// PublishAll runs PublishBatch for every entry of set in declared order and
// returns one report per entry. A failed destination never stops the pass.
func (p *Publisher) PublishAll(
	ctx context.Context,
	prod messaging.Producer,
	set DestinationSet,
	count int,
	text TextFactory,
) []Report {
	reports := make([]Report, 0, len(set))
	for _, e := range set {
		reports = append(reports, p.PublishBatch(ctx, prod, e, count, text))
	}

	return reports
}

// Abort reports every entry of set as failed with cause, without sending.
// Used when no producer could be obtained for the pass.
func (p *Publisher) Abort(ctx context.Context, set DestinationSet, cause error) []Report {
	reports := make([]Report, 0, len(set))
	for _, e := range set {
		r := Report{
			Label:       e.Label,
			Destination: e.Destination,
			Sent:        []string{},
			Err:         fmt.Errorf("publish %s: %w", e.Label, errors.Join(berr.ErrSendFailed, cause)),
		}
		p.sink.SendFailed(ctx, r)
		reports = append(reports, r)
	}

	return reports
}

// Failed returns the reports that carry an error.
func Failed(reports []Report) []Report {
	var out []Report

	for _, r := range reports {
		if !r.OK() {
			out = append(out, r)
		}
	}

	return out
}

func checkBatch(prod messaging.Producer, count int) error {
	if prod == nil {
		return errors.Join(berr.ErrSendFailed, berr.ErrTransportNotConfigured)
	}

	if count < 0 {
		return fmt.Errorf("count %d: %w", count, errors.Join(berr.ErrSendFailed, berr.ErrInvalidCount))
	}

	return nil
}

func (p *Publisher) chain(prod messaging.Producer) SendFunc {
	final := SendFunc(prod.Send)
	for i := len(p.mw) - 1; i >= 0; i-- {
		final = p.mw[i](final)
	}

	return final
}

// attempt builds and sends one message, turning a panic in either step into an error.
func attempt(
	ctx context.Context,
	send SendFunc,
	dst messaging.Destination,
	text TextFactory,
	i int,
) (msg string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	msg = text(i)

	return msg, send(ctx, dst, msg)
}
