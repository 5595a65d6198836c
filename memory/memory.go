package memory

import (
	"context"

	"github.com/next-trace/scg-mdb-client/adapters/inmemory"
	"github.com/next-trace/scg-mdb-client/catalog"
	"github.com/next-trace/scg-mdb-client/client"
)

// Provision returns a broker with every destination of cat declared.
func Provision(cat catalog.Catalog) *inmemory.Broker {
	b := inmemory.New()
	for _, s := range cat.Specs() {
		b.Declare(s.Kind, s.Name)
	}

	return b
}

// New constructs a client backed by a provisioned in-memory broker and
// returns the broker for inspection.
func New(ctx context.Context, cat catalog.Catalog, opts ...client.Option) (*client.Client, *inmemory.Broker, error) {
	b := Provision(cat)

	c, err := client.New(ctx, b, cat, opts...)
	if err != nil {
		return nil, nil, err
	}

	return c, b, nil
}
