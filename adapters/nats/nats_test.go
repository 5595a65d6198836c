package nats_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/next-trace/scg-mdb-client/adapters/nats"
	berr "github.com/next-trace/scg-mdb-client/contract/errors"
	"github.com/next-trace/scg-mdb-client/contract/messaging"
	"github.com/next-trace/scg-mdb-client/publisher"
)

type fakeClient struct {
	calls []struct {
		subject string
		data    []byte
		headers map[string]string
	}
	err      error
	deadline bool
	block    bool
}

func (f *fakeClient) Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error {
	_, f.deadline = ctx.Deadline()

	if f.block {
		<-ctx.Done()

		return ctx.Err()
	}

	f.calls = append(f.calls, struct {
		subject string
		data    []byte
		headers map[string]string
	}{subject, data, headers})

	return f.err
}

type traceProp struct{}

func (traceProp) Inject(_ context.Context, h map[string]string) { h["traceparent"] = "tp" }

func TestNATS_ResolveAndSend(t *testing.T) {
	fc := &fakeClient{}
	ad := nats.NewWithPropagator(fc, traceProp{})

	q, err := ad.Resolve(t.Context(), "SomeQueue2", messaging.KindQueue, messaging.DestinationOptions{LegacyPrefix: true})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	s, err := ad.OpenSession(t.Context())
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	defer s.Close()

	if err := s.Send(t.Context(), q, "This is message 1"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(fc.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(fc.calls))
	}

	c := fc.calls[0]
	if c.subject != "jms.queue.SomeQueue2" {
		t.Fatalf("subject mismatch: %s", c.subject)
	}

	if string(c.data) != "This is message 1" {
		t.Fatalf("payload mismatch: %s", c.data)
	}

	if c.headers["traceparent"] != "tp" {
		t.Fatalf("headers missing propagation: %+v", c.headers)
	}
}

func TestNATS_ResolveRejectsWildcards(t *testing.T) {
	ad := nats.New(&fakeClient{})

	for _, name := range []string{"orders.*", "orders.>", "a..b", "has space"} {
		if _, err := ad.Resolve(t.Context(), name, messaging.KindTopic, messaging.DestinationOptions{}); !errors.Is(err, berr.ErrResolutionFailed) {
			t.Fatalf("%q: want ErrResolutionFailed, got %v", name, err)
		}
	}
}

func TestNATS_NilClientError(t *testing.T) {
	ad := nats.New(nil)

	if _, err := ad.Resolve(t.Context(), "q", messaging.KindQueue, messaging.DestinationOptions{}); !errors.Is(err, berr.ErrResolutionFailed) {
		t.Fatalf("want ErrResolutionFailed, got %v", err)
	}

	if err := ad.Send(t.Context(), messaging.Destination{Address: "q"}, "x"); !errors.Is(err, berr.ErrTransportNotConfigured) {
		t.Fatalf("want ErrTransportNotConfigured, got %v", err)
	}

	if _, err := ad.OpenSession(t.Context()); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestNATS_Send_ErrorWrapping_And_ContextCancel(t *testing.T) {
	// client returns generic error -> should wrap
	fc := &fakeClient{err: errors.New("boom")}
	ad := nats.New(fc)

	if err := ad.Send(t.Context(), messaging.Destination{Address: "q"}, "x"); !errors.Is(err, berr.ErrSendFailed) {
		t.Fatalf("want wrapped ErrSendFailed, got %v", err)
	}

	// client returns context.Canceled -> propagate as-is
	fc2 := &fakeClient{err: context.Canceled}
	ad2 := nats.New(fc2)

	err := ad2.Send(t.Context(), messaging.Destination{Address: "q"}, "x")
	if !errors.Is(err, context.Canceled) || errors.Is(err, berr.ErrSendFailed) {
		t.Fatalf("want bare context.Canceled, got %v", err)
	}
}

func TestNATS_SendHonorsBatchDeadline(t *testing.T) {
	fc := &fakeClient{}
	ad := nats.New(fc)
	e := publisher.Entry{Label: "q", Destination: messaging.Destination{Kind: messaging.KindQueue, Address: "q"}}

	r := publisher.New(publisher.WithBatchTimeout(time.Minute)).PublishBatch(t.Context(), ad, e, 1, nil)
	if !r.OK() || !fc.deadline {
		t.Fatalf("client did not receive the batch deadline: ok=%v deadline=%v", r.OK(), fc.deadline)
	}

	hung := &fakeClient{block: true}
	start := time.Now()

	r = publisher.New(
		publisher.WithBatchTimeout(50*time.Millisecond),
		publisher.WithSink(publisher.SinkFunc(func(context.Context, publisher.Report) {})),
	).PublishBatch(t.Context(), nats.New(hung), e, 5, nil)

	if !errors.Is(r.Err, context.DeadlineExceeded) || len(r.Sent) != 0 {
		t.Fatalf("want deadline failure at index 0, got %d sent, err %v", len(r.Sent), r.Err)
	}

	if time.Since(start) > 5*time.Second {
		t.Fatalf("hung publish was not cancelled")
	}
}

func TestNATS_CanceledContextReachesClient(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())

	hung := &fakeClient{block: true}
	done := make(chan error, 1)

	go func() { done <- nats.New(hung).Send(ctx, messaging.Destination{Address: "q"}, "x") }()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) || errors.Is(err, berr.ErrSendFailed) {
			t.Fatalf("want bare context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("send ignored cancellation")
	}
}
