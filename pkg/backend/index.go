package backend

import (
	"sync"

	"github.com/syncline/connector-core/pkg/availability"
)

// Index is the lookup table of constructed backends by (name, version).
// The hosting application builds one Index at startup, hands it to every
// registration site, and keeps it for the process lifetime; tests build
// their own fresh Index instead of mutating shared state.
type Index struct {
	avail availability.Checker

	mu       sync.RWMutex
	backends []*Backend
}

// NewIndex creates an empty Index. A nil checker enables everything,
// which suits hosts without module management.
func NewIndex(avail availability.Checker) *Index {
	if avail == nil {
		avail = availability.Always{}
	}
	return &Index{avail: avail}
}

// NewBackend constructs a backend and records it in the index. At least
// one of Name and Parent must be set; an empty name is inherited from the
// parent. The parent, when given, must already be constructed, which
// keeps the hierarchy acyclic.
func (x *Index) NewBackend(p Params) (*Backend, error) {
	name := p.Name
	if name == "" {
		if p.Parent == nil {
			return nil, newConfigError("a backend needs a name or a parent to inherit one from")
		}
		name = p.Parent.name
	}

	b := &Backend{
		name:    name,
		version: p.Version,
		parent:  p.Parent,
		index:   x,
	}

	x.mu.Lock()
	x.backends = append(x.backends, b)
	x.mu.Unlock()
	return b, nil
}

// Find returns the first constructed backend with exactly the given name
// and version. Callers wanting a fallback supply their own default on
// ok == false.
func (x *Index) Find(name, version string) (*Backend, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	for _, b := range x.backends {
		if b.name == name && b.version == version {
			return b, true
		}
	}
	return nil, false
}

// Backends returns a snapshot of all constructed backends in construction
// order, for diagnostics.
func (x *Index) Backends() []*Backend {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]*Backend, len(x.backends))
	copy(out, x.backends)
	return out
}
