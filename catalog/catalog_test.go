package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/next-trace/scg-mdb-client/adapters/inmemory"
	"github.com/next-trace/scg-mdb-client/catalog"
	berr "github.com/next-trace/scg-mdb-client/contract/errors"
	"github.com/next-trace/scg-mdb-client/contract/messaging"
)

func declareAll(b *inmemory.Broker, c catalog.Catalog) {
	for _, s := range c.Specs() {
		b.Declare(s.Kind, s.Name)
	}
}

func TestDefault_SevenDestinations(t *testing.T) {
	c := catalog.Default()

	if n := len(c.Specs()); n != 7 {
		t.Fatalf("want 7 specs, got %d", n)
	}

	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	legacy := map[string]bool{}
	for _, s := range c.Secondary {
		legacy[s.Name] = s.Options.LegacyPrefix
	}

	for name, want := range map[string]bool{
		"SomeQueue1":           false,
		"SomeQueue2":           true,
		"SomeQueue3":           false,
		"myExternalQueue":      true,
		"myExternalQueueTrue":  true,
		"myExternalQueueFalse": false,
	} {
		if got, ok := legacy[name]; !ok || got != want {
			t.Fatalf("%s: legacy=%v ok=%v want %v", name, got, ok, want)
		}
	}
}

func TestResolve_ForRequestSelectsPrimary(t *testing.T) {
	b := inmemory.New()
	c := catalog.Default()
	declareAll(b, c)

	d, err := c.Resolve(t.Context(), b)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	qset := d.ForRequest(false)
	tset := d.ForRequest(true)

	if len(qset) != 7 || len(tset) != 7 {
		t.Fatalf("want 7 entries per request, got %d/%d", len(qset), len(tset))
	}

	if qset[0].Destination.Kind != messaging.KindQueue || qset[0].Label != "HelloWorldMDBQueue" {
		t.Fatalf("queue mode primary: %+v", qset[0])
	}

	if tset[0].Destination.Kind != messaging.KindTopic || tset[0].Label != "HelloWorldMDBTopic" {
		t.Fatalf("topic mode primary: %+v", tset[0])
	}

	for i := 1; i < 7; i++ {
		if qset[i].Label != tset[i].Label {
			t.Fatalf("secondary %d differs between modes: %s vs %s", i, qset[i].Label, tset[i].Label)
		}
	}

	if _, ok := tset.Lookup("HelloWorldMDBQueue"); ok {
		t.Fatalf("topic mode must not include the primary queue")
	}

	if len(d.All()) != 7 {
		t.Fatalf("all: %d", len(d.All()))
	}

	if e, _ := qset.Lookup("SomeQueue2"); e.Destination.Address != "jms.queue.SomeQueue2" {
		t.Fatalf("legacy address: %s", e.Destination.Address)
	}
}

func TestResolve_MissingDestinationFailsCatalog(t *testing.T) {
	b := inmemory.New()
	c := catalog.Default()
	declareAll(b, c)

	c.Secondary = append(c.Secondary, catalog.Default().Secondary[0])
	c.Secondary[len(c.Secondary)-1].Label = "extra"
	c.Secondary[len(c.Secondary)-1].Name = "NotDeclared"

	d, err := c.Resolve(t.Context(), b)
	if d != nil || !errors.Is(err, berr.ErrResolutionFailed) {
		t.Fatalf("want ErrResolutionFailed and no destinations, got %v %v", d, err)
	}
}

func TestValidate_PrimaryKinds(t *testing.T) {
	c := catalog.Default()
	c.Queue.Kind = messaging.KindTopic

	if err := c.Validate(); !errors.Is(err, berr.ErrResolutionFailed) {
		t.Fatalf("want ErrResolutionFailed, got %v", err)
	}
}

const sample = `
primary:
  queue:
    name: OrdersQueue
  topic:
    name: OrdersTopic
secondary:
  - name: Audit
    legacy_prefix: true
  - label: broadcast
    name: Fanout
    kind: topic
`

func TestParse(t *testing.T) {
	c, err := catalog.Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if c.Queue.Name != "OrdersQueue" || c.Queue.Kind != messaging.KindQueue {
		t.Fatalf("queue: %+v", c.Queue)
	}

	if c.Topic.Kind != messaging.KindTopic {
		t.Fatalf("topic: %+v", c.Topic)
	}

	if len(c.Secondary) != 2 || !c.Secondary[0].Options.LegacyPrefix {
		t.Fatalf("secondary: %+v", c.Secondary)
	}

	if s := c.Secondary[1]; s.Label != "broadcast" || s.Kind != messaging.KindTopic {
		t.Fatalf("secondary[1]: %+v", s)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown field": "primary:\n  queue:\n    name: q\n    colour: red\n",
		"bad kind":      "primary:\n  queue:\n    name: q\n  topic:\n    name: t\nsecondary:\n  - name: s\n    kind: mailbox\n",
		"missing name":  "primary:\n  queue:\n    name: q\n  topic: {}\n",
		"kind mismatch": "primary:\n  queue:\n    name: q\n    kind: topic\n  topic:\n    name: t\n",
	}

	for name, doc := range cases {
		if _, err := catalog.Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "destinations.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := catalog.LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(c.Specs()) != 4 {
		t.Fatalf("specs: %d", len(c.Specs()))
	}

	if _, err := catalog.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
