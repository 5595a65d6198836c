package metrics_test

import (
	"context"
	"errors"
	"testing"

	"github.com/next-trace/scg-mdb-client/contract/messaging"
	"github.com/next-trace/scg-mdb-client/metrics"
	"github.com/next-trace/scg-mdb-client/publisher"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type failingProducer struct{ failAddr string }

func (p failingProducer) Send(_ context.Context, dst messaging.Destination, _ string) error {
	if dst.Address == p.failAddr {
		return errors.New("refused")
	}

	return nil
}

func entry(name string) publisher.Entry {
	d, _ := messaging.NewDestination(name, messaging.KindQueue, messaging.DestinationOptions{})

	return publisher.Entry{Label: name, Destination: d}
}

func TestNew_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()

	if _, err := metrics.New(reg); err != nil {
		t.Fatalf("first: %v", err)
	}

	if _, err := metrics.New(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestSendMiddlewareAndObservePass(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := metrics.New(reg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	p := publisher.New(
		publisher.WithSink(publisher.SinkFunc(func(context.Context, publisher.Report) {})),
		publisher.WithSendMiddleware(m.SendMiddleware()),
	)

	set := publisher.DestinationSet{entry("A"), entry("B")}
	reports := p.PublishAll(t.Context(), failingProducer{failAddr: "B"}, set, 3, nil)
	m.ObservePass(true, reports)

	n, err := testutil.GatherAndCount(reg,
		"mdbclient_messages_sent_total",
		"mdbclient_send_failures_total",
		"mdbclient_batches_total",
		"mdbclient_passes_total",
	)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	// sent{A}, failures{B}, batches{A,ok}, batches{B,failed}, passes{topic}
	if n != 5 {
		t.Fatalf("want 5 series, got %d", n)
	}

	reports = p.PublishAll(t.Context(), failingProducer{}, publisher.DestinationSet{entry("A")}, 2, nil)
	m.ObservePass(false, reports)

	n, err = testutil.GatherAndCount(reg, "mdbclient_passes_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	if n != 2 {
		t.Fatalf("want queue and topic pass series, got %d", n)
	}
}
