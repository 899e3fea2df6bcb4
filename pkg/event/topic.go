// Package event implements the filtered, synchronous event bus of the
// connector core. A Topic broadcasts data-mutation notifications to
// consumers scoped by entity type, with a wildcard scope for consumers
// interested in every type, using the same availability gating and
// replacement vocabulary as the backend registry.
package event

import (
	"fmt"
	"sync"

	"github.com/syncline/connector-core/pkg/availability"
)

const logPrefix = "event:topic"

// Wildcard is the scope applied when a subscription names no entity
// types: the consumer fires for every entity type.
const Wildcard = "*"

// Consumer is one event consumer registration. Consumers are identified
// by pointer, so the same *Consumer value must be used to unsubscribe or
// to replace a subscription.
type Consumer struct {
	// Name is a diagnostic identifier.
	Name string
	// Origin is the tag of the deployment unit providing the consumer,
	// for availability filtering.
	Origin string
	// Handler receives the entity type the event was fired for, followed
	// by the fire payload. A non-nil error aborts the broadcast and
	// surfaces to the caller of Fire.
	Handler func(entityType string, payload ...any) error
}

// Topic is an independently instantiated broadcast channel. The zero
// value is not usable; create topics with NewTopic.
type Topic struct {
	avail availability.Checker

	mu     sync.RWMutex
	scopes map[string]map[*Consumer]struct{}
}

// NewTopic creates an empty Topic. A nil checker enables every consumer.
func NewTopic(avail availability.Checker) *Topic {
	if avail == nil {
		avail = availability.Always{}
	}
	return &Topic{
		avail:  avail,
		scopes: make(map[string]map[*Consumer]struct{}),
	}
}

// SubscribeOpts holds optional Subscribe parameters. A nil *SubscribeOpts
// subscribes at the wildcard scope with no replacement.
type SubscribeOpts struct {
	// EntityTypes restricts the subscription to the named entity types.
	// Empty means the wildcard scope.
	EntityTypes []string
	// Replacing, when set, is unsubscribed from the same scopes before
	// the new consumer is added.
	Replacing *Consumer
}

// Subscribe adds a consumer to each scope in opts.EntityTypes, first
// removing opts.Replacing from those scopes when given. Subscribing the
// same consumer to the same scope twice keeps a single registration.
func (t *Topic) Subscribe(c *Consumer, opts *SubscribeOpts) {
	var entityTypes []string
	var replacing *Consumer
	if opts != nil {
		entityTypes = opts.EntityTypes
		replacing = opts.Replacing
	}
	scopes := scopeKeys(entityTypes)

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, scope := range scopes {
		if replacing != nil {
			t.removeLocked(replacing, scope)
		}
		set, ok := t.scopes[scope]
		if !ok {
			set = make(map[*Consumer]struct{})
			t.scopes[scope] = set
		}
		set[c] = struct{}{}
	}
}

// Unsubscribe removes a consumer from each named scope, from the wildcard
// scope when none are given. Absent consumers and scopes are a silent
// no-op.
func (t *Topic) Unsubscribe(c *Consumer, entityTypes ...string) {
	scopes := scopeKeys(entityTypes)

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, scope := range scopes {
		t.removeLocked(c, scope)
	}
}

// HasConsumerFor reports whether firing entityType would reach at least
// one available consumer, counting both the wildcard scope and the named
// scope.
func (t *Topic) HasConsumerFor(entityType string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, scope := range passScopes(entityType) {
		for c := range t.scopes[scope] {
			if t.avail.IsAvailable(c.Origin) {
				return true
			}
		}
	}
	return false
}

// Fire synchronously invokes every available wildcard consumer, then
// every available consumer scoped to entityType. Iteration order within a
// pass is unspecified. Each handler receives entityType prepended to the
// payload so wildcard consumers can discriminate. The first handler error
// aborts the broadcast and is returned: a partially applied broadcast is
// the caller's concern to handle, not this package's to hide.
func (t *Topic) Fire(entityType string, payload ...any) error {
	t.mu.RLock()
	var passes [][]*Consumer
	for _, scope := range passScopes(entityType) {
		set := t.scopes[scope]
		batch := make([]*Consumer, 0, len(set))
		for c := range set {
			batch = append(batch, c)
		}
		passes = append(passes, batch)
	}
	t.mu.RUnlock()

	// Dispatch outside the lock so handlers may subscribe or unsubscribe.
	for _, batch := range passes {
		for _, c := range batch {
			if !t.avail.IsAvailable(c.Origin) {
				continue
			}
			if err := c.Handler(entityType, payload...); err != nil {
				return fmt.Errorf("%s - consumer %q failed on %q: %w", logPrefix, c.Name, entityType, err)
			}
		}
	}
	return nil
}

// removeLocked drops c from one scope. Callers hold t.mu.
func (t *Topic) removeLocked(c *Consumer, scope string) {
	set, ok := t.scopes[scope]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(t.scopes, scope)
	}
}

// scopeKeys normalizes a subscription's entity-type list to scope keys.
func scopeKeys(entityTypes []string) []string {
	if len(entityTypes) == 0 {
		return []string{Wildcard}
	}
	return entityTypes
}

// passScopes lists the scopes visited when firing for entityType, in
// dispatch order.
func passScopes(entityType string) []string {
	if entityType == Wildcard {
		return []string{Wildcard}
	}
	return []string{Wildcard, entityType}
}
