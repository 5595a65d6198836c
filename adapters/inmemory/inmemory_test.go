package inmemory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/next-trace/scg-mdb-client/adapters/inmemory"
	berr "github.com/next-trace/scg-mdb-client/contract/errors"
	"github.com/next-trace/scg-mdb-client/contract/messaging"
)

func TestInmemory_ResolveAndSend_Recordings(t *testing.T) {
	b := inmemory.New()
	b.Declare(messaging.KindQueue, "Q")
	b.Declare(messaging.KindTopic, "T")

	q, err := b.Resolve(t.Context(), "Q", messaging.KindQueue, messaging.DestinationOptions{})
	if err != nil {
		t.Fatalf("resolve queue: %v", err)
	}

	tp, err := b.Resolve(t.Context(), "T", messaging.KindTopic, messaging.DestinationOptions{LegacyPrefix: true})
	if err != nil {
		t.Fatalf("resolve topic: %v", err)
	}

	if tp.Address != "jms.topic.T" {
		t.Fatalf("address=%s", tp.Address)
	}

	s, err := b.OpenSession(t.Context())
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	defer s.Close()

	for _, d := range []messaging.Destination{q, tp, q} {
		if err := s.Send(t.Context(), d, "hello"); err != nil {
			t.Fatalf("send %s: %v", d, err)
		}
	}

	if n := len(b.Sent); n != 3 {
		t.Fatalf("want 3 records, got %d", n)
	}

	if got := b.Messages("Q"); len(got) != 2 {
		t.Fatalf("Q messages=%v", got)
	}
}

func TestInmemory_ResolveUndeclared(t *testing.T) {
	b := inmemory.New()
	b.Declare(messaging.KindQueue, "Q")

	if _, err := b.Resolve(t.Context(), "missing", messaging.KindQueue, messaging.DestinationOptions{}); !errors.Is(err, berr.ErrResolutionFailed) {
		t.Fatalf("want ErrResolutionFailed, got %v", err)
	}

	// a queue does not resolve as a topic of the same name
	if _, err := b.Resolve(t.Context(), "Q", messaging.KindTopic, messaging.DestinationOptions{}); !errors.Is(err, berr.ErrResolutionFailed) {
		t.Fatalf("want ErrResolutionFailed for kind mismatch, got %v", err)
	}
}

func TestInmemory_FailAfterAndHeal(t *testing.T) {
	b := inmemory.New()
	b.Declare(messaging.KindQueue, "Q")
	d, _ := b.Resolve(t.Context(), "Q", messaging.KindQueue, messaging.DestinationOptions{})

	boom := errors.New("boom")
	b.FailAfter(messaging.KindQueue, "Q", 2, boom)

	for i := range 2 {
		if err := b.Send(t.Context(), d, "ok"); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	if err := b.Send(t.Context(), d, "fail"); !errors.Is(err, boom) {
		t.Fatalf("want injected error, got %v", err)
	}

	b.Heal(messaging.KindQueue, "Q")

	if err := b.Send(t.Context(), d, "ok again"); err != nil {
		t.Fatalf("send after heal: %v", err)
	}

	if n := len(b.Messages("Q")); n != 3 {
		t.Fatalf("want 3 accepted, got %d", n)
	}
}

func TestInmemory_FailuresAreKeyedByKind(t *testing.T) {
	b := inmemory.New()
	b.Declare(messaging.KindQueue, "news")
	b.Declare(messaging.KindTopic, "news")

	q, _ := b.Resolve(t.Context(), "news", messaging.KindQueue, messaging.DestinationOptions{})
	tp, _ := b.Resolve(t.Context(), "news", messaging.KindTopic, messaging.DestinationOptions{})

	boom := errors.New("boom")
	b.FailAfter(messaging.KindTopic, "news", 0, boom)

	if err := b.Send(t.Context(), q, "to queue"); err != nil {
		t.Fatalf("queue must not inherit the topic failure: %v", err)
	}

	if err := b.Send(t.Context(), tp, "to topic"); !errors.Is(err, boom) {
		t.Fatalf("want injected error on topic, got %v", err)
	}

	b.Heal(messaging.KindQueue, "news")

	if err := b.Send(t.Context(), tp, "still broken"); !errors.Is(err, boom) {
		t.Fatalf("healing the queue must not heal the topic, got %v", err)
	}

	b.Heal(messaging.KindTopic, "news")

	if err := b.Send(t.Context(), tp, "healed"); err != nil {
		t.Fatalf("send after heal: %v", err)
	}
}

func TestInmemory_CanceledContext(t *testing.T) {
	b := inmemory.New()
	b.Declare(messaging.KindQueue, "Q")
	d, _ := b.Resolve(t.Context(), "Q", messaging.KindQueue, messaging.DestinationOptions{})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if err := b.Send(ctx, d, "x"); err == nil {
		t.Fatalf("expected context error")
	}

	if _, err := b.OpenSession(ctx); err == nil {
		t.Fatalf("expected context error on session")
	}
}

func TestInmemory_ConcurrentSafety(t *testing.T) {
	b := inmemory.New()
	b.Declare(messaging.KindQueue, "Q")
	d, _ := b.Resolve(t.Context(), "Q", messaging.KindQueue, messaging.DestinationOptions{})

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = b.Send(t.Context(), d, "m")
		}()
	}

	wg.Wait()

	if len(b.Sent) != 50 {
		t.Fatalf("sent=%d", len(b.Sent))
	}
}
