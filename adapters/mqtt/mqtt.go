/*
Package mqtt provides an MQTT adapter for the destination publisher.
Topics publish to the MQTT topic of the same address. Queues publish under the
broker's shared-queue prefix, $queue/<address>. MQTT 3.1.1 has no message
headers, so propagated context is not carried.
*/
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	berr "github.com/next-trace/scg-mdb-client/contract/errors"
	"github.com/next-trace/scg-mdb-client/contract/messaging"
)

const QueuePrefix = "$queue/"

// Publisher is the minimal publish surface the adapter needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

type Adapter struct {
	Publisher Publisher
}

var (
	_ messaging.Connection = (*Adapter)(nil)
	_ messaging.Producer   = (*Adapter)(nil)
)

func New(p Publisher) *Adapter { return &Adapter{Publisher: p} }

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
		return messaging.Destination{}, fmt.Errorf("mqtt resolve %s: %w", d, errors.Join(berr.ErrResolutionFailed, err))
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

	if err := a.Publisher.Publish(ctx, TopicFor(dst), []byte(text)); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("mqtt send %s: %w", dst, errors.Join(berr.ErrSendFailed, err))
	}

	return nil
}

// TopicFor returns the MQTT topic a destination publishes to.
func TopicFor(d messaging.Destination) string {
	if d.Kind == messaging.KindQueue {
		return QueuePrefix + d.Address
	}

	return d.Address
}

func (a *Adapter) ready(ctx context.Context, base error, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Publisher == nil {
		return fmt.Errorf("mqtt %s: %w", label, errors.Join(base, berr.ErrTransportNotConfigured))
	}

	return nil
}

func validTopic(t string) error {
	switch {
	case strings.ContainsAny(t, "+#"):
		return fmt.Errorf("wildcards are not allowed in a publish topic: %q", t)
	case strings.HasPrefix(t, "$"):
		return fmt.Errorf("topic %q uses a reserved prefix", t)
	case strings.ContainsRune(t, 0):
		return fmt.Errorf("topic contains NUL")
	}

	return nil
}
