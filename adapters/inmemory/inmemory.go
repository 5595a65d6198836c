package inmemory

import (
	"context"
	"fmt"
	"sync"

	berr "github.com/next-trace/scg-mdb-client/contract/errors"
	"github.com/next-trace/scg-mdb-client/contract/messaging"
)

// Record is one message accepted by the broker.
type Record struct {
	Destination messaging.Destination
	Text        string
}

type key struct {
	kind messaging.Kind
	name string
}

type failure struct {
	after int
	err   error
}

// Broker is a thread-safe in-process implementation of messaging.Connection.
// Destinations must be declared before they resolve; accepted messages are
// recorded for tests and examples.
type Broker struct {
	mu       sync.Mutex
	declared map[key]struct{}
	failures map[key]*failure
	Sent     []Record
}

// Ensure Broker implements the connection contract.
var _ messaging.Connection = (*Broker)(nil)

// New creates an empty broker.
func New() *Broker {
	return &Broker{
		declared: make(map[key]struct{}),
		failures: make(map[key]*failure),
	}
}

// Declare provisions destinations of the given kind.
func (b *Broker) Declare(kind messaging.Kind, names ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, n := range names {
		b.declared[key{kind: kind, name: n}] = struct{}{}
	}
}

// FailAfter makes sends to the destination of that kind and name fail with
// err once n more messages have been accepted. n == 0 breaks the destination
// immediately. A queue and a topic sharing a name fail independently.
func (b *Broker) FailAfter(kind messaging.Kind, name string, n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures[key{kind: kind, name: name}] = &failure{after: n, err: err}
}

// Heal removes an injected failure.
func (b *Broker) Heal(kind messaging.Kind, name string) {
	b.mu.Lock()
	delete(b.failures, key{kind: kind, name: name})
	b.mu.Unlock()
}

func (b *Broker) Resolve(
	ctx context.Context,
	name string,
	kind messaging.Kind,
	opts messaging.DestinationOptions,
) (messaging.Destination, error) {
	if err := ctx.Err(); err != nil {
		return messaging.Destination{}, err
	}

	d, err := messaging.NewDestination(name, kind, opts)
	if err != nil {
		return messaging.Destination{}, err
	}

	b.mu.Lock()
	_, ok := b.declared[key{kind: d.Kind, name: d.Name}]
	b.mu.Unlock()

	if !ok {
		return messaging.Destination{}, fmt.Errorf("inmemory resolve %s %q: not declared: %w",
			kind, name, berr.ErrResolutionFailed)
	}

	return d, nil
}

func (b *Broker) Send(ctx context.Context, dst messaging.Destination, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	k := key{kind: dst.Kind, name: dst.Name}
	if _, ok := b.declared[k]; !ok {
		return fmt.Errorf("inmemory send %s: unknown destination: %w", dst, berr.ErrSendFailed)
	}

	if f, ok := b.failures[k]; ok {
		if f.after <= 0 {
			return fmt.Errorf("inmemory send %s: %w", dst, f.err)
		}

		f.after--
	}

	b.Sent = append(b.Sent, Record{Destination: dst, Text: text})

	return nil
}

// OpenSession returns a session sharing the broker.
func (b *Broker) OpenSession(ctx context.Context) (messaging.Session, error) { //nolint:ireturn
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return messaging.SessionOf(b), nil
}

// Messages returns the texts accepted for the named destination, in order.
func (b *Broker) Messages(name string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []string

	for _, r := range b.Sent {
		if r.Destination.Name == name {
			out = append(out, r.Text)
		}
	}

	return out
}
