package messaging

import (
	"errors"
	"fmt"
	"strings"

	berr "github.com/next-trace/scg-mdb-client/contract/errors"
)

// Kind distinguishes point-to-point queues from publish-subscribe topics.
type Kind string

const (
	// KindQueue delivers each message to at most one receiver.
	KindQueue Kind = "queue"
	// KindTopic delivers each message to every active subscriber.
	KindTopic Kind = "topic"
)

const (
	legacyQueuePrefix = "jms.queue."
	legacyTopicPrefix = "jms.topic."
)

// Valid reports whether k is one of the known destination kinds.
func (k Kind) Valid() bool { return k == KindQueue || k == KindTopic }

// ParseKind converts a configuration string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("destination kind %q: %w", s, berr.ErrUnsupportedKind)
	}

	return k, nil
}

// DestinationOptions carries transport-specific naming options declared
// alongside a destination.
type DestinationOptions struct {
	// LegacyPrefix addresses the destination with the jms.queue. / jms.topic.
	// prefix used by older brokers.
	LegacyPrefix bool
}

// Destination is a resolved, immutable handle to a named queue or topic.
// Values are produced by a Resolver and shared read-only afterwards.
type Destination struct {
	Name    string
	Kind    Kind
	Address string
	Options DestinationOptions
}

// NewDestination validates an administrative name and kind and computes the
// transport address. Adapters call it before performing their own lookup.
func NewDestination(name string, kind Kind, opts DestinationOptions) (Destination, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Destination{}, fmt.Errorf("destination name required: %w", berr.ErrResolutionFailed)
	}

	if !kind.Valid() {
		return Destination{}, fmt.Errorf("destination %q kind %q: %w", name, kind,
			errors.Join(berr.ErrResolutionFailed, berr.ErrUnsupportedKind))
	}

	return Destination{
		Name:    name,
		Kind:    kind,
		Address: AddressFor(name, kind, opts),
		Options: opts,
	}, nil
}

// AddressFor returns the address a transport should use for name.
func AddressFor(name string, kind Kind, opts DestinationOptions) string {
	if !opts.LegacyPrefix {
		return name
	}

	if kind == KindTopic {
		return legacyTopicPrefix + name
	}

	return legacyQueuePrefix + name
}

// String renders the destination the way it appears in reports and logs.
func (d Destination) String() string {
	if d.Kind == "" {
		return d.Address
	}

	return string(d.Kind) + "://" + d.Address
}
