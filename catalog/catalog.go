// Package catalog declares the destinations a publish pass targets: a primary
// queue/topic pair chosen per request and a fixed list of secondaries that are
// always attempted.
package catalog

import (
	"context"
	"errors"
	"fmt"

	berr "github.com/next-trace/scg-mdb-client/contract/errors"
	"github.com/next-trace/scg-mdb-client/contract/messaging"
	"github.com/next-trace/scg-mdb-client/publisher"
)

// Catalog is the declared, unresolved destination list.
type Catalog struct {
	Queue     publisher.Spec
	Topic     publisher.Spec
	Secondary []publisher.Spec
}

func queue(name string, legacy bool) publisher.Spec {
	return publisher.Spec{
		Label:   name,
		Name:    name,
		Kind:    messaging.KindQueue,
		Options: messaging.DestinationOptions{LegacyPrefix: legacy},
	}
}

// Default returns the stock seven-destination catalog.
func Default() Catalog {
	return Catalog{
		Queue: queue("HelloWorldMDBQueue", false),
		Topic: publisher.Spec{Label: "HelloWorldMDBTopic", Name: "HelloWorldMDBTopic", Kind: messaging.KindTopic},
		Secondary: []publisher.Spec{
			queue("SomeQueue1", false),
			queue("SomeQueue2", true),
			queue("SomeQueue3", false),
			queue("myExternalQueue", true),
			queue("myExternalQueueTrue", true),
			queue("myExternalQueueFalse", false),
		},
	}
}

// Specs lists every declared destination: primary queue, primary topic, then secondaries.
func (c Catalog) Specs() []publisher.Spec {
	out := make([]publisher.Spec, 0, len(c.Secondary)+2)
	out = append(out, c.Queue, c.Topic)

	return append(out, c.Secondary...)
}

// Validate checks the primary pair kinds.
func (c Catalog) Validate() error {
	var errs []error

	if c.Queue.Kind != messaging.KindQueue {
		errs = append(errs, fmt.Errorf("primary queue %q has kind %q", c.Queue.Name, c.Queue.Kind))
	}

	if c.Topic.Kind != messaging.KindTopic {
		errs = append(errs, fmt.Errorf("primary topic %q has kind %q", c.Topic.Name, c.Topic.Kind))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{berr.ErrResolutionFailed}, errs...)...)
	}

	return nil
}

// Destinations is a resolved catalog.
type Destinations struct {
	Queue     publisher.Entry
	Topic     publisher.Entry
	Secondary publisher.DestinationSet
}

// Resolve binds every declared destination through r. Any failure fails the
// whole catalog.
func (c Catalog) Resolve(ctx context.Context, r messaging.Resolver) (*Destinations, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	set, err := publisher.ResolveDestinations(ctx, r, c.Specs())
	if err != nil {
		return nil, err
	}

	return &Destinations{Queue: set[0], Topic: set[1], Secondary: set[2:]}, nil
}

// Primary returns the topic when useTopic is set, the queue otherwise.
func (d *Destinations) Primary(useTopic bool) publisher.Entry {
	if useTopic {
		return d.Topic
	}

	return d.Queue
}

// ForRequest is the set one request publishes to: the selected primary
// followed by every secondary.
func (d *Destinations) ForRequest(useTopic bool) publisher.DestinationSet {
	out := make(publisher.DestinationSet, 0, len(d.Secondary)+1)
	out = append(out, d.Primary(useTopic))

	return append(out, d.Secondary...)
}

// All lists every resolved destination in catalog order.
func (d *Destinations) All() publisher.DestinationSet {
	out := make(publisher.DestinationSet, 0, len(d.Secondary)+2)
	out = append(out, d.Queue, d.Topic)

	return append(out, d.Secondary...)
}
