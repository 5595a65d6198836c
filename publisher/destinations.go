package publisher

import (
	"context"
	"errors"
	"fmt"

	berr "github.com/next-trace/scg-mdb-client/contract/errors"
	"github.com/next-trace/scg-mdb-client/contract/messaging"
)

// Spec declares one destination to resolve: a report label, the
// administrative name, its kind and transport options.
type Spec struct {
	Label   string
	Name    string
	Kind    messaging.Kind
	Options messaging.DestinationOptions
}

// Entry pairs a resolved destination with its report label.
type Entry struct {
	Label       string
	Destination messaging.Destination
}

// DestinationSet is the ordered list of destinations a publish pass iterates.
// Order only affects report order.
type DestinationSet []Entry

// Lookup returns the entry with the given label.
func (s DestinationSet) Lookup(label string) (Entry, bool) {
	for _, e := range s {
		if e.Label == label {
			return e, true
		}
	}

	return Entry{}, false
}

// Labels returns the labels in declared order.
func (s DestinationSet) Labels() []string {
	out := make([]string, len(s))
	for i, e := range s {
		out[i] = e.Label
	}

	return out
}

// ResolveDestinations binds every spec through r, keeping declared order.
// All failing specs are reported together; on any failure no set is returned,
// so callers never serve traffic with a partially resolved set.
func ResolveDestinations(ctx context.Context, r messaging.Resolver, specs []Spec) (DestinationSet, error) {
	if r == nil {
		return nil, fmt.Errorf("resolve destinations: %w",
			errors.Join(berr.ErrResolutionFailed, berr.ErrTransportNotConfigured))
	}

	set := make(DestinationSet, 0, len(specs))
	seen := make(map[string]struct{}, len(specs))

	var errs []error

	for _, s := range specs {
		label := s.Label
		if label == "" {
			label = s.Name
		}

		if _, dup := seen[label]; dup {
			errs = append(errs, fmt.Errorf("resolve %s: duplicate label: %w", label, berr.ErrResolutionFailed))
			continue
		}

		seen[label] = struct{}{}

		d, err := r.Resolve(ctx, s.Name, s.Kind, s.Options)
		if err != nil {
			errs = append(errs, fmt.Errorf("resolve %s (%s %q): %w",
				label, s.Kind, s.Name, errors.Join(berr.ErrResolutionFailed, err)))

			continue
		}

		set = append(set, Entry{Label: label, Destination: d})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return set, nil
}
