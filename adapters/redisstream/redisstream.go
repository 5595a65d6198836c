/*
Package redisstream provides a Redis adapter for the destination publisher.
Queues are Redis streams written with XADD; topics are pub/sub channels.
*/
package redisstream

import (
	"context"
	"errors"
	"fmt"

	berr "github.com/next-trace/scg-mdb-client/contract/errors"
	"github.com/next-trace/scg-mdb-client/contract/messaging"
	"github.com/redis/go-redis/v9"
)

// TextField is the stream entry field holding the message text.
const TextField = "text"

type Adapter struct {
	Client     redis.Cmdable
	Propagator messaging.HeaderPropagator
}

var (
	_ messaging.Connection = (*Adapter)(nil)
	_ messaging.Producer   = (*Adapter)(nil)
)

func New(c redis.Cmdable) *Adapter { return &Adapter{Client: c} }

// Resolve accepts a queue whose key is absent or already a stream.
// Topics need no lookup; Redis channels exist on first publish.
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

	if d.Kind == messaging.KindTopic {
		return d, nil
	}

	typ, err := a.Client.Type(ctx, d.Address).Result()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return messaging.Destination{}, err
		}

		return messaging.Destination{}, fmt.Errorf("redis resolve %s: %w", d, errors.Join(berr.ErrResolutionFailed, err))
	}

	if typ != "none" && typ != "stream" {
		return messaging.Destination{}, fmt.Errorf("redis resolve %s: key holds a %s: %w", d, typ, berr.ErrResolutionFailed)
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

	var err error
	if dst.Kind == messaging.KindTopic {
		err = a.Client.Publish(ctx, dst.Address, text).Err()
	} else {
		values := map[string]any{TextField: text}
		for k, v := range messaging.InjectHeaders(ctx, a.Propagator) {
			values[k] = v
		}

		err = a.Client.XAdd(ctx, &redis.XAddArgs{Stream: dst.Address, Values: values}).Err()
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("redis send %s: %w", dst, errors.Join(berr.ErrSendFailed, err))
	}

	return nil
}

func (a *Adapter) ready(ctx context.Context, base error, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Client == nil {
		return fmt.Errorf("redis %s: %w", label, errors.Join(base, berr.ErrTransportNotConfigured))
	}

	return nil
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewWithRedis connects a go-redis client and returns an Adapter and cleanup.
func NewWithRedis(ctx context.Context, cfg Config) (*Adapter, func(), error) {
	if cfg.Addr == "" {
		return nil, nil, fmt.Errorf("%w: redis addr required", berr.ErrTransportNotConfigured)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, nil, fmt.Errorf("%w: redis ping: %w", berr.ErrTransportNotConfigured, err)
	}

	cleanup := func() { _ = client.Close() }

	return New(client), cleanup, nil
}
