package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	berr "github.com/next-trace/scg-mdb-client/contract/errors"
)

type Config struct {
	Broker      string // tcp://host:1883
	ClientID    string
	QoS         byte
	ConnTimeout time.Duration
}

type pahoPublisher struct {
	cl  paho.Client
	qos byte
}

// Publish waits for the broker acknowledgement or ctx.
func (p pahoPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	tok := p.cl.Publish(topic, p.qos, false, payload)

	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewWithPaho connects a paho client and returns an Adapter and cleanup.
func NewWithPaho(cfg Config) (*Adapter, func(), error) {
	if cfg.Broker == "" {
		return nil, nil, fmt.Errorf("%w: mqtt broker required", berr.ErrTransportNotConfigured)
	}

	timeout := cfg.ConnTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetProtocolVersion(4).
		SetConnectTimeout(timeout).
		SetAutoReconnect(true)

	cl := paho.NewClient(opts)
	if err := connect(cl, timeout); err != nil {
		return nil, nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}

	cleanup := func() { cl.Disconnect(250) }

	return New(pahoPublisher{cl: cl, qos: cfg.QoS}), cleanup, nil
}

// connect waits for the CONNACK. A client that did not connect is
// disconnected so its network and reconnect goroutines stop.
func connect(cl paho.Client, timeout time.Duration) error {
	tok := cl.Connect()
	if !tok.WaitTimeout(timeout) {
		cl.Disconnect(0)

		return fmt.Errorf("%w: timed out after %s", berr.ErrTransportNotConfigured, timeout)
	}

	if err := tok.Error(); err != nil {
		cl.Disconnect(0)

		return errors.Join(berr.ErrTransportNotConfigured, err)
	}

	return nil
}
