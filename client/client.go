package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/next-trace/scg-mdb-client/catalog"
	berr "github.com/next-trace/scg-mdb-client/contract/errors"
	"github.com/next-trace/scg-mdb-client/contract/messaging"
	"github.com/next-trace/scg-mdb-client/publisher"
)

// Client is concurrency-safe and contains no global state. Each Send opens
// its own session, so concurrent requests never share a producer.
type Client struct {
	mu sync.RWMutex

	conn   messaging.Connection
	dests  *catalog.Destinations
	pub    *publisher.Publisher
	count  int
	text   publisher.TextFactory
	logger *slog.Logger

	observers []PassObserver
	cleanups  []func()
	closed    bool
}

// PassObserver is notified after every pass.
type PassObserver func(useTopic bool, reports []publisher.Report)

// Option configures a Client.
type Option func(*Client)

// WithPublisher replaces the default publisher.
func WithPublisher(p *publisher.Publisher) Option {
	return func(c *Client) {
		if p != nil {
			c.pub = p
		}
	}
}

// WithCount sets messages per destination. Defaults to publisher.MessageCount.
func WithCount(n int) Option { return func(c *Client) { c.count = n } }

// WithText sets the message text factory.
func WithText(f publisher.TextFactory) Option { return func(c *Client) { c.text = f } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPassObserver registers observers run after each pass, in registration order.
func WithPassObserver(o ...PassObserver) Option {
	return func(c *Client) { c.observers = append(c.observers, o...) }
}

// WithCleanup registers a function run by Close. Cleanups run in reverse order.
func WithCleanup(fn func()) Option {
	return func(c *Client) {
		if fn != nil {
			c.cleanups = append(c.cleanups, fn)
		}
	}
}

// New resolves cat through conn and returns a ready Client. Resolution
// failures are returned and no Client is built.
func New(ctx context.Context, conn messaging.Connection, cat catalog.Catalog, opts ...Option) (*Client, error) {
	if conn == nil {
		return nil, fmt.Errorf("new client: %w", errors.Join(berr.ErrResolutionFailed, berr.ErrTransportNotConfigured))
	}

	c := &Client{
		conn:   conn,
		count:  publisher.MessageCount,
		text:   publisher.DefaultText,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}

	if c.pub == nil {
		c.pub = publisher.New(publisher.WithLogger(c.logger))
	}

	if c.count < 0 {
		return nil, fmt.Errorf("new client: count %d: %w", c.count, berr.ErrInvalidCount)
	}

	dests, err := cat.Resolve(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}

	c.dests = dests

	return c, nil
}

// Destinations returns the resolved catalog.
func (c *Client) Destinations() *catalog.Destinations { return c.dests }

// Count returns the messages sent per destination.
func (c *Client) Count() int { return c.count }

// Send runs one publish pass: the primary queue, or the primary topic when
// useTopic is set, followed by every secondary destination. It always returns
// one report per destination. If no session can be opened every destination
// is reported failed.
func (c *Client) Send(ctx context.Context, useTopic bool) []publisher.Report {
	set := c.dests.ForRequest(useTopic)

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()

	var reports []publisher.Report

	if closed {
		reports = c.pub.Abort(ctx, set, fmt.Errorf("client closed: %w", berr.ErrTransportNotConfigured))
	} else {
		reports = c.pass(ctx, set)
	}

	failed := len(publisher.Failed(reports))
	c.logger.InfoContext(ctx, "publish pass",
		"topic", useTopic,
		"destinations", len(reports),
		"failed", failed,
	)

	for _, o := range c.observers {
		o(useTopic, reports)
	}

	return reports
}

func (c *Client) pass(ctx context.Context, set publisher.DestinationSet) []publisher.Report {
	s, err := c.conn.OpenSession(ctx)
	if err != nil {
		return c.pub.Abort(ctx, set, fmt.Errorf("open session: %w", err))
	}

	defer func() {
		if cerr := s.Close(); cerr != nil {
			c.logger.WarnContext(ctx, "close session", "err", cerr)
		}
	}()

	return c.pub.PublishAll(ctx, s, set, c.count, c.text)
}

// Close runs registered cleanups once. Sends after Close report every
// destination as failed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()

		return nil
	}

	c.closed = true
	cleanups := c.cleanups
	c.cleanups = nil
	c.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	return nil
}
