package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	berr "github.com/next-trace/scg-mdb-client/contract/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Concrete AMQP connection with auto-reconnect. Sessions open channels on
// whichever connection is current.

type Config struct {
	URL         string
	ConnTimeout time.Duration
}

type reconnectingConn struct {
	cfg    Config
	mu     sync.RWMutex
	conn   *amqp.Connection
	closed chan struct{}
}

// newReconnectingConn dials once and fails if the broker is unreachable;
// later connection losses are retried in the background.
func newReconnectingConn(cfg Config) (*reconnectingConn, func(), error) {
	rc := &reconnectingConn{cfg: cfg, closed: make(chan struct{})}

	conn, err := rc.dial()
	if err != nil {
		return nil, nil, err
	}

	rc.conn = conn
	go rc.run(conn)

	return rc, rc.close, nil
}

// Channel opens a confirm-mode channel on the current connection.
func (rc *reconnectingConn) Channel(ctx context.Context) (Channel, error) { //nolint:ireturn
	select {
	case <-rc.closed:
		return nil, fmt.Errorf("%w: rabbitmq connection closed", berr.ErrTransportNotConfigured)
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	rc.mu.RLock()
	conn := rc.conn
	rc.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return nil, errors.New("rabbitmq not connected, reconnect in progress")
	}

	return confirmChannel(conn)
}

func (rc *reconnectingConn) dial() (*amqp.Connection, error) {
	return amqp.DialConfig(rc.cfg.URL, amqp.Config{
		Locale:     "en_US",
		Properties: amqp.Table{"product": "scg-mdb-client"},
		Dial:       amqp.DefaultDial(rc.cfg.ConnTimeout),
	})
}

// run watches conn and redials with jittered exponential backoff once it drops.
func (rc *reconnectingConn) run(conn *amqp.Connection) {
	const maxBackoff = 30 * time.Second
	// #nosec G404 -- non-crypto RNG is acceptable for backoff jitter
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // jitter only

	for {
		notify := conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-rc.closed:
			return
		case <-notify:
		}

		backoff := time.Second

		for {
			jitter := time.Duration(rng.Int63n(int64(backoff / 2)))
			t := time.NewTimer(min(backoff+jitter, maxBackoff))

			select {
			case <-rc.closed:
				t.Stop()
				return
			case <-t.C:
			}

			next, err := rc.dial()
			if err == nil {
				conn = next

				break
			}

			backoff = min(backoff*2, maxBackoff)
		}

		rc.mu.Lock()
		select {
		case <-rc.closed:
			rc.mu.Unlock()
			_ = conn.Close()

			return
		default:
			rc.conn = conn
		}
		rc.mu.Unlock()
	}
}

func (rc *reconnectingConn) close() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	select {
	case <-rc.closed:
		return
	default:
		close(rc.closed)
	}

	if rc.conn != nil {
		_ = rc.conn.Close()
		rc.conn = nil
	}
}

// NewWithAMQPConn dials RabbitMQ and returns an Adapter and cleanup. An
// unreachable broker is reported here rather than on first use.
func NewWithAMQPConn(cfg Config) (*Adapter, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: rabbitmq url required", berr.ErrTransportNotConfigured)
	}

	rc, cleanup, err := newReconnectingConn(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", errors.Join(berr.ErrTransportNotConfigured, err))
	}

	return New(rc), cleanup, nil
}
