package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	berr "github.com/next-trace/scg-mdb-client/contract/errors"
	"github.com/next-trace/scg-mdb-client/contract/messaging"
	amqp "github.com/rabbitmq/amqp091-go"
)

type PubMsg struct {
	Exchange   string
	RoutingKey string
	MessageID  string
	Body       []byte
	Headers    map[string]string
}

// Channel is the slice of an AMQP channel the adapter needs.
// A Channel is used by one session at a time.
type Channel interface {
	// Publish returns once the broker has confirmed the message.
	Publish(ctx context.Context, m PubMsg) error
	// Inspect checks that the destination exists without creating it.
	Inspect(kind messaging.Kind, address string) error
	IsClosed() bool
	Close() error
}

var errNotConfirmed = errors.New("broker did not confirm publish")

// Dialer opens channels on a live connection.
type Dialer interface {
	Channel(ctx context.Context) (Channel, error)
}

type Adapter struct {
	Dialer     Dialer
	Propagator messaging.HeaderPropagator // optional, for context propagation into headers
}

var _ messaging.Connection = (*Adapter)(nil)

func New(d Dialer) *Adapter { return &Adapter{Dialer: d} }

// NewWithPropagator allows configuring a HeaderPropagator for context propagation.
func NewWithPropagator(d Dialer, hp messaging.HeaderPropagator) *Adapter {
	return &Adapter{Dialer: d, Propagator: hp}
}

// Resolve looks the destination up with a passive declare on a throwaway
// channel; the broker closes a channel whose passive declare fails.
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

	ch, err := a.Dialer.Channel(ctx)
	if err != nil {
		return messaging.Destination{}, fmt.Errorf("rabbitmq resolve open channel: %w", errors.Join(berr.ErrResolutionFailed, err))
	}
	defer ch.Close()

	if err := ch.Inspect(d.Kind, d.Address); err != nil {
		return messaging.Destination{}, fmt.Errorf("rabbitmq resolve %s: %w", d, errors.Join(berr.ErrResolutionFailed, err))
	}

	return d, nil
}

// OpenSession opens a dedicated channel; AMQP channels must not be shared
// across concurrent publishers.
func (a *Adapter) OpenSession(ctx context.Context) (messaging.Session, error) { //nolint:ireturn
	if err := a.ready(ctx, berr.ErrSendFailed, "open session"); err != nil {
		return nil, err
	}

	s := &session{dial: a.Dialer, propagator: a.Propagator}
	if _, err := s.channel(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		return nil, fmt.Errorf("rabbitmq open session: %w", errors.Join(berr.ErrSendFailed, err))
	}

	return s, nil
}

func (a *Adapter) ready(ctx context.Context, base error, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Dialer == nil {
		return fmt.Errorf("rabbitmq %s: %w", label, errors.Join(base, berr.ErrTransportNotConfigured))
	}

	return nil
}

// session owns one channel at a time. A channel the broker closed, or one
// whose publish failed, is replaced before the next send so a channel
// exception raised by one destination is not charged to the next.
type session struct {
	dial       Dialer
	ch         Channel
	propagator messaging.HeaderPropagator
}

func (s *session) channel(ctx context.Context) (Channel, error) { //nolint:ireturn
	if s.ch != nil && !s.ch.IsClosed() {
		return s.ch, nil
	}

	s.drop()

	ch, err := s.dial.Channel(ctx)
	if err != nil {
		return nil, err
	}

	s.ch = ch

	return ch, nil
}

func (s *session) drop() {
	if s.ch != nil {
		_ = s.ch.Close()
		s.ch = nil
	}
}

func (s *session) Send(ctx context.Context, dst messaging.Destination, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	exchange, key := route(dst)
	msg := PubMsg{
		Exchange:   exchange,
		RoutingKey: key,
		MessageID:  uuid.NewString(),
		Body:       []byte(text),
		Headers:    messaging.InjectHeaders(ctx, s.propagator),
	}

	ch, err := s.channel(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("rabbitmq send open channel %s: %w", dst, errors.Join(berr.ErrSendFailed, err))
	}

	if err := ch.Publish(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		s.drop()

		return fmt.Errorf("rabbitmq send publish %s: %w", dst, errors.Join(berr.ErrSendFailed, err))
	}

	return nil
}

func (s *session) Close() error {
	if s.ch == nil {
		return nil
	}

	err := s.ch.Close()
	s.ch = nil

	return err
}

// route maps a destination to exchange and routing key: queues go through
// the default exchange, topics to the exchange named after them.
func route(d messaging.Destination) (exchange, key string) {
	if d.Kind == messaging.KindTopic {
		return d.Address, ""
	}

	return "", d.Address
}

type amqpChannel struct{ ch *amqp.Channel }

func (c amqpChannel) Publish(ctx context.Context, m PubMsg) error {
	var h amqp.Table
	if len(m.Headers) > 0 {
		h = amqp.Table{}
		for k, v := range m.Headers {
			h[k] = v
		}
	}

	dc, err := c.ch.PublishWithDeferredConfirmWithContext(
		ctx,
		m.Exchange,
		m.RoutingKey,
		false,
		false,
		amqp.Publishing{
			Headers:     h,
			Body:        m.Body,
			ContentType: "text/plain",
			MessageId:   m.MessageID,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		return err
	}

	// channel closes (e.g. 404 on a deleted exchange) resolve pending confirms as nacks
	ack, err := dc.WaitContext(ctx)
	if err != nil {
		return err
	}

	if !ack {
		return fmt.Errorf("%w: exchange %q routing key %q", errNotConfirmed, m.Exchange, m.RoutingKey)
	}

	return nil
}

func (c amqpChannel) Inspect(kind messaging.Kind, address string) error {
	if kind == messaging.KindTopic {
		return c.ch.ExchangeDeclarePassive(address, amqp.ExchangeTopic, true, false, false, false, nil)
	}

	_, err := c.ch.QueueDeclarePassive(address, true, false, false, false, nil)

	return err
}

func (c amqpChannel) IsClosed() bool { return c.ch.IsClosed() }

func (c amqpChannel) Close() error { return c.ch.Close() }

// confirmChannel opens a channel in publisher-confirm mode.
func confirmChannel(conn *amqp.Connection) (Channel, error) { //nolint:ireturn
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()

		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}

	return amqpChannel{ch: ch}, nil
}

type connDialer struct{ conn *amqp.Connection }

func (d connDialer) Channel(ctx context.Context) (Channel, error) { //nolint:ireturn
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return confirmChannel(d.conn)
}

// NewWithAMQPConnection builds an Adapter over an existing connection owned by the caller.
func NewWithAMQPConnection(conn *amqp.Connection) *Adapter {
	return &Adapter{Dialer: connDialer{conn: conn}}
}
