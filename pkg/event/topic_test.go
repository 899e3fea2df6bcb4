package event

import (
	"errors"
	"testing"

	"github.com/syncline/connector-core/pkg/availability"
)

// recorder collects handler invocations for assertions.
type recorder struct {
	calls []call
}

type call struct {
	entityType string
	payload    []any
}

func (r *recorder) consumer(name, origin string) *Consumer {
	return &Consumer{
		Name:   name,
		Origin: origin,
		Handler: func(entityType string, payload ...any) error {
			r.calls = append(r.calls, call{entityType: entityType, payload: payload})
			return nil
		},
	}
}

func TestFire_NamedScope(t *testing.T) {
	topic := NewTopic(nil)
	var rec recorder

	topic.Subscribe(rec.consumer("one", "connector"), &SubscribeOpts{EntityTypes: []string{"m"}})
	topic.Subscribe(rec.consumer("two", "connector"), &SubscribeOpts{EntityTypes: []string{"m"}})

	if err := topic.Fire("m", 42); err != nil {
		t.Fatalf("event:topic_test - Fire failed: %v", err)
	}

	if len(rec.calls) != 2 {
		t.Fatalf("event:topic_test - expected 2 invocations, got %d", len(rec.calls))
	}
	for _, c := range rec.calls {
		if c.entityType != "m" {
			t.Errorf("event:topic_test - entityType = %q, want %q", c.entityType, "m")
		}
		if len(c.payload) != 1 || c.payload[0] != 42 {
			t.Errorf("event:topic_test - payload = %v, want [42]", c.payload)
		}
	}
}

func TestFire_ScopeFiltering(t *testing.T) {
	topic := NewTopic(nil)
	var rec recorder

	topic.Subscribe(rec.consumer("products-only", "connector"), &SubscribeOpts{EntityTypes: []string{"product.product"}})

	if err := topic.Fire("res.partner", 1); err != nil {
		t.Fatalf("event:topic_test - Fire failed: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("event:topic_test - consumer fired outside its scope: %v", rec.calls)
	}

	if err := topic.Fire("product.product", 2); err != nil {
		t.Fatalf("event:topic_test - Fire failed: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Errorf("event:topic_test - expected 1 invocation, got %d", len(rec.calls))
	}
}

func TestFire_WildcardReceivesEveryType(t *testing.T) {
	topic := NewTopic(nil)
	var rec recorder

	// No entity types: wildcard scope.
	topic.Subscribe(rec.consumer("all", "connector"), nil)

	for _, entityType := range []string{"res.partner", "product.product", "sale.order"} {
		if !topic.HasConsumerFor(entityType) {
			t.Errorf("event:topic_test - HasConsumerFor(%q) = false with a wildcard consumer", entityType)
		}
		if err := topic.Fire(entityType); err != nil {
			t.Fatalf("event:topic_test - Fire(%q) failed: %v", entityType, err)
		}
	}

	if len(rec.calls) != 3 {
		t.Fatalf("event:topic_test - expected 3 invocations, got %d", len(rec.calls))
	}
	if rec.calls[0].entityType != "res.partner" {
		t.Errorf("event:topic_test - wildcard consumer cannot discriminate: got %q", rec.calls[0].entityType)
	}
}

func TestFire_WildcardPassBeforeNamedPass(t *testing.T) {
	topic := NewTopic(nil)
	var order []string

	mk := func(name string) *Consumer {
		return &Consumer{
			Name:   name,
			Origin: "connector",
			Handler: func(string, ...any) error {
				order = append(order, name)
				return nil
			},
		}
	}
	topic.Subscribe(mk("scoped"), &SubscribeOpts{EntityTypes: []string{"m"}})
	topic.Subscribe(mk("wild"), nil)

	if err := topic.Fire("m"); err != nil {
		t.Fatalf("event:topic_test - Fire failed: %v", err)
	}
	if len(order) != 2 || order[0] != "wild" || order[1] != "scoped" {
		t.Errorf("event:topic_test - dispatch order = %v, want wildcard pass first", order)
	}
}

func TestSubscribe_Replacing(t *testing.T) {
	topic := NewTopic(nil)
	var rec recorder

	a := rec.consumer("a", "connector")
	bc := rec.consumer("b", "connector")
	topic.Subscribe(a, &SubscribeOpts{EntityTypes: []string{"m"}})
	topic.Subscribe(bc, &SubscribeOpts{EntityTypes: []string{"m"}, Replacing: a})

	if err := topic.Fire("m"); err != nil {
		t.Fatalf("event:topic_test - Fire failed: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("event:topic_test - expected only the replacement to fire, got %d calls", len(rec.calls))
	}
}

func TestSubscribe_ReplacingIsScopeLocal(t *testing.T) {
	topic := NewTopic(nil)
	var rec recorder

	a := rec.consumer("a", "connector")
	bc := rec.consumer("b", "connector")
	topic.Subscribe(a, &SubscribeOpts{EntityTypes: []string{"m", "n"}})
	// Replacement only covers scope m; a stays subscribed on n.
	topic.Subscribe(bc, &SubscribeOpts{EntityTypes: []string{"m"}, Replacing: a})

	if err := topic.Fire("n"); err != nil {
		t.Fatalf("event:topic_test - Fire failed: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Errorf("event:topic_test - expected a to still fire on n, got %d calls", len(rec.calls))
	}
}

func TestSubscribe_SameConsumerTwiceFiresOnce(t *testing.T) {
	topic := NewTopic(nil)
	var rec recorder

	c := rec.consumer("once", "connector")
	topic.Subscribe(c, &SubscribeOpts{EntityTypes: []string{"m"}})
	topic.Subscribe(c, &SubscribeOpts{EntityTypes: []string{"m"}})

	if err := topic.Fire("m"); err != nil {
		t.Fatalf("event:topic_test - Fire failed: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Errorf("event:topic_test - expected 1 invocation, got %d", len(rec.calls))
	}
}

func TestUnsubscribe(t *testing.T) {
	topic := NewTopic(nil)
	var rec recorder

	c := rec.consumer("c", "connector")
	topic.Subscribe(c, &SubscribeOpts{EntityTypes: []string{"m"}})
	topic.Unsubscribe(c, "m")

	if topic.HasConsumerFor("m") {
		t.Error("event:topic_test - HasConsumerFor true after Unsubscribe")
	}
	if err := topic.Fire("m"); err != nil {
		t.Fatalf("event:topic_test - Fire failed: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("event:topic_test - unsubscribed consumer fired %d times", len(rec.calls))
	}
}

func TestUnsubscribe_AbsentIsNoOp(t *testing.T) {
	topic := NewTopic(nil)
	var rec recorder

	// Never subscribed, and an unknown scope: both silent.
	topic.Unsubscribe(rec.consumer("ghost", "connector"), "m")
	topic.Unsubscribe(rec.consumer("ghost2", "connector"))
}

func TestHasConsumerFor_AvailabilityFiltered(t *testing.T) {
	source := availability.NewMapSource()
	topic := NewTopic(availability.NewOracle(source))
	var rec recorder

	topic.Subscribe(rec.consumer("gated", "connector_extra"), &SubscribeOpts{EntityTypes: []string{"m"}})

	if topic.HasConsumerFor("m") {
		t.Error("event:topic_test - HasConsumerFor true while module disabled")
	}
	source.Enable("connector_extra")
	if !topic.HasConsumerFor("m") {
		t.Error("event:topic_test - HasConsumerFor false after enabling module")
	}
}

func TestFire_SkipsUnavailableConsumers(t *testing.T) {
	source := availability.NewMapSource("enabled_module")
	topic := NewTopic(availability.NewOracle(source))
	var rec recorder

	topic.Subscribe(rec.consumer("on", "enabled_module"), &SubscribeOpts{EntityTypes: []string{"m"}})
	topic.Subscribe(rec.consumer("off", "disabled_module"), &SubscribeOpts{EntityTypes: []string{"m"}})

	if err := topic.Fire("m"); err != nil {
		t.Fatalf("event:topic_test - Fire failed: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Errorf("event:topic_test - expected only the enabled consumer, got %d calls", len(rec.calls))
	}
}

func TestFire_ConsumerErrorPropagates(t *testing.T) {
	topic := NewTopic(nil)
	boom := errors.New("sync failed")
	var after int

	topic.Subscribe(&Consumer{
		Name:    "failing",
		Origin:  "connector",
		Handler: func(string, ...any) error { return boom },
	}, nil)
	topic.Subscribe(&Consumer{
		Name:    "later",
		Origin:  "connector",
		Handler: func(string, ...any) error { after++; return nil },
	}, &SubscribeOpts{EntityTypes: []string{"m"}})

	err := topic.Fire("m")
	if err == nil {
		t.Fatal("event:topic_test - expected consumer error to surface")
	}
	if !errors.Is(err, boom) {
		t.Errorf("event:topic_test - error chain misses the consumer error: %v", err)
	}
	if after != 0 {
		t.Errorf("event:topic_test - broadcast continued after failure (%d calls)", after)
	}
}
