package mqtt

import (
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	berr "github.com/next-trace/scg-mdb-client/contract/errors"
)

type stuckToken struct {
	done chan struct{}
	err  error
}

func (t stuckToken) Wait() bool {
	<-t.done

	return true
}

func (t stuckToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t stuckToken) Done() <-chan struct{} { return t.done }

func (t stuckToken) Error() error { return t.err }

// connClient stubs the two calls connect makes; everything else panics.
type connClient struct {
	paho.Client
	tok          stuckToken
	disconnected []uint
}

func (c *connClient) Connect() paho.Token { return c.tok } //nolint:ireturn

func (c *connClient) Disconnect(quiesce uint) { c.disconnected = append(c.disconnected, quiesce) }

func TestConnect_TimeoutDisconnects(t *testing.T) {
	cl := &connClient{tok: stuckToken{done: make(chan struct{})}}

	err := connect(cl, 20*time.Millisecond)
	if !errors.Is(err, berr.ErrTransportNotConfigured) {
		t.Fatalf("want ErrTransportNotConfigured, got %v", err)
	}

	if len(cl.disconnected) != 1 || cl.disconnected[0] != 0 {
		t.Fatalf("timed-out client not disconnected: %v", cl.disconnected)
	}
}

func TestConnect_RefusedDisconnects(t *testing.T) {
	done := make(chan struct{})
	close(done)

	refused := errors.New("not authorized")
	cl := &connClient{tok: stuckToken{done: done, err: refused}}

	err := connect(cl, time.Second)
	if !errors.Is(err, refused) || !errors.Is(err, berr.ErrTransportNotConfigured) {
		t.Fatalf("want refusal joined with ErrTransportNotConfigured, got %v", err)
	}

	if len(cl.disconnected) != 1 {
		t.Fatalf("refused client not disconnected: %v", cl.disconnected)
	}
}

func TestConnect_Success(t *testing.T) {
	done := make(chan struct{})
	close(done)

	cl := &connClient{tok: stuckToken{done: done}}

	if err := connect(cl, time.Second); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if len(cl.disconnected) != 0 {
		t.Fatalf("connected client must stay up")
	}
}
