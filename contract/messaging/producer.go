package messaging

import "context"

// Producer sends text payloads to resolved destinations.
// A Producer is not required to be safe for concurrent use.
type Producer interface {
	Send(ctx context.Context, dst Destination, text string) error
}

// Resolver binds an administrative name to a live destination handle through
// the transport's lookup facility.
type Resolver interface {
	Resolve(ctx context.Context, name string, kind Kind, opts DestinationOptions) (Destination, error)
}

// Session is a producer owned by a single caller. Close releases whatever
// transport resources the session holds.
type Session interface {
	Producer
	Close() error
}

// Connection is implemented by every transport adapter. Resolution happens
// once at startup; sessions are opened per request.
type Connection interface {
	Resolver
	OpenSession(ctx context.Context) (Session, error)
}

// SessionOf wraps a producer whose underlying client is already safe for
// concurrent use. Close is a no-op.
func SessionOf(p Producer) Session { return sharedSession{p} } //nolint:ireturn

type sharedSession struct{ Producer }

func (sharedSession) Close() error { return nil }
