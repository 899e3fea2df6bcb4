// Package backend implements the versioned, hierarchical service registry
// of the connector core.
//
// A Backend represents one external system to integrate with, for instance
// "shopstream" or "shopstream 1.7". Backends form a tree: a versioned
// backend usually points at an unversioned parent that holds the
// implementations shared by every version. Concrete implementations of the
// abstract roles (binder, mapper, synchronizer, ...) are registered on a
// backend and looked up with Resolve, which walks replacement edges,
// filters by module availability and falls back to the parent chain.
//
// Registration normally happens from init functions or a bootstrap file
// during startup; a Backend guards its entries with a lock so hosts that
// hot-load integrations after startup stay correct.
package backend

import (
	"fmt"
	"sync"
)

const logPrefix = "backend:backend"

// Params holds parameters for Index.NewBackend. Name may be empty only
// when Parent is set, in which case the name is inherited from the parent.
type Params struct {
	Name    string
	Version string
	Parent  *Backend
}

// Backend is a named, optionally versioned registry node holding a locally
// scoped, ordered collection of registered implementations and their
// replacement edges.
type Backend struct {
	name    string
	version string
	parent  *Backend
	index   *Index

	mu      sync.RWMutex
	entries []*entry
}

// entry is one registered implementation plus the local entries that
// supersede it.
type entry struct {
	impl       Capability
	replacedBy []*entry
}

// Name returns the backend name.
func (b *Backend) Name() string { return b.name }

// Version returns the backend version, empty when unversioned.
func (b *Backend) Version() string { return b.version }

// Parent returns the parent backend, nil at the root of a tree.
func (b *Backend) Parent() *Backend { return b.parent }

// Equal reports whether two backends have the same identity. Identity is
// (name, version); the parent only participates through name inheritance.
func (b *Backend) Equal(other *Backend) bool {
	if other == nil {
		return false
	}
	return b.name == other.name && b.version == other.version
}

// String implements fmt.Stringer.
func (b *Backend) String() string {
	if b.version == "" {
		return b.name
	}
	return fmt.Sprintf("%s %s", b.name, b.version)
}

// Register adds an implementation to this backend's local entries. The
// call is idempotent: registering the same implementation twice leaves a
// single entry. Each element of replacing that has an entry on this
// backend (replacement edges are local, never inherited) gains the new
// implementation in its replaced-by set; targets without a local entry
// and self-replacement are ignored.
func (b *Backend) Register(impl Capability, replacing ...Capability) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.find(impl)
	if e == nil {
		e = &entry{impl: impl}
		b.entries = append(b.entries, e)
	}

	for _, target := range replacing {
		if target == impl {
			continue
		}
		t := b.find(target)
		if t == nil {
			continue
		}
		if !containsEntry(t.replacedBy, e) {
			t.replacedBy = append(t.replacedBy, e)
		}
	}
}

// Deregister removes an implementation's entry from this backend along
// with every replacement edge pointing at it. Absent implementations are
// a silent no-op.
func (b *Backend) Deregister(impl Capability) {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := b.find(impl)
	if removed == nil {
		return
	}
	kept := b.entries[:0]
	for _, e := range b.entries {
		if e == removed {
			continue
		}
		reps := e.replacedBy[:0]
		for _, r := range e.replacedBy {
			if r != removed {
				reps = append(reps, r)
			}
		}
		e.replacedBy = reps
		kept = append(kept, e)
	}
	b.entries = kept
}

// find returns the local entry for impl, nil when absent. Callers hold b.mu.
func (b *Backend) find(impl Capability) *entry {
	for _, e := range b.entries {
		if e.impl == impl {
			return e
		}
	}
	return nil
}

func containsEntry(entries []*entry, e *entry) bool {
	for _, x := range entries {
		if x == e {
			return true
		}
	}
	return false
}
