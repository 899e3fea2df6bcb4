// Package availability gates backend implementations and event consumers on
// the enablement state of the deployment unit ("module") that provides them.
// It is the only seam between the connector core and the hosting
// application's module management: the core asks a Checker, the host plugs
// in whatever FlagSource reflects its real module state.
package availability

import (
	"fmt"
	"log/slog"
	"sync"
)

const logPrefix = "availability:oracle"

// Checker reports whether the deployment unit identified by an origin tag
// is currently enabled. Implementations must be synchronous and
// side-effect-free; resolution and event dispatch call them on every pass.
type Checker interface {
	IsAvailable(origin string) bool
}

// FlagSource is the external, swappable boolean-flag store keyed by origin
// tag. Unlike Checker it may fail (e.g. a database-backed source).
type FlagSource interface {
	Enabled(origin string) (bool, error)
}

// Oracle adapts a FlagSource to a Checker. A failed lookup counts as
// unavailable so resolution stays total instead of surfacing storage
// errors into every Resolve and Fire call.
type Oracle struct {
	source FlagSource
}

// NewOracle creates an Oracle over the given flag source.
func NewOracle(source FlagSource) *Oracle {
	return &Oracle{source: source}
}

// IsAvailable implements Checker. The empty origin marks core-owned
// units that are never gated.
func (o *Oracle) IsAvailable(origin string) bool {
	if origin == "" {
		return true
	}
	enabled, err := o.source.Enabled(origin)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - flag lookup for %q failed, treating as unavailable: %v", logPrefix, origin, err))
		return false
	}
	return enabled
}

// Always is a Checker that reports every origin as enabled, for hosts
// without module management and for tests.
type Always struct{}

// IsAvailable implements Checker.
func (Always) IsAvailable(string) bool { return true }

// MapSource is an in-memory FlagSource guarded for concurrent use. Origins
// never set are disabled.
type MapSource struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewMapSource creates a MapSource with the given origins enabled.
func NewMapSource(enabled ...string) *MapSource {
	s := &MapSource{flags: make(map[string]bool, len(enabled))}
	for _, origin := range enabled {
		s.flags[origin] = true
	}
	return s
}

// Enabled implements FlagSource. It never fails.
func (s *MapSource) Enabled(origin string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[origin], nil
}

// Enable marks an origin as enabled.
func (s *MapSource) Enable(origin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[origin] = true
}

// Disable marks an origin as disabled.
func (s *MapSource) Disable(origin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[origin] = false
}
