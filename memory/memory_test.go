package memory

import (
	"testing"

	"github.com/next-trace/scg-mdb-client/catalog"
	"github.com/next-trace/scg-mdb-client/publisher"
)

func TestNewMemoryClient_BasicFlow(t *testing.T) {
	c, b, err := New(t.Context(), catalog.Default())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer c.Close()

	reports := c.Send(t.Context(), false)
	if len(publisher.Failed(reports)) != 0 {
		t.Fatalf("unexpected failures: %+v", publisher.Failed(reports))
	}

	reports = c.Send(t.Context(), true)
	if len(reports) != 7 {
		t.Fatalf("expected 7 reports, got %d", len(reports))
	}

	// both passes hit every secondary; each primary once
	if n := len(b.Messages("SomeQueue1")); n != 10 {
		t.Fatalf("expected 10 messages on SomeQueue1, got %d", n)
	}

	if n := len(b.Messages("HelloWorldMDBQueue")); n != 5 {
		t.Fatalf("expected 5 messages on the primary queue, got %d", n)
	}

	if n := len(b.Messages("HelloWorldMDBTopic")); n != 5 {
		t.Fatalf("expected 5 messages on the primary topic, got %d", n)
	}

	if len(b.Sent) != 70 {
		t.Fatalf("expected 70 records, got %d", len(b.Sent))
	}
}

func TestProvision_DeclaresEveryDestination(t *testing.T) {
	cat := catalog.Default()
	b := Provision(cat)

	if _, err := cat.Resolve(t.Context(), b); err != nil {
		t.Fatalf("resolve: %v", err)
	}
}
