package backend

import (
	"testing"

	"github.com/syncline/connector-core/pkg/availability"
)

// newTestIndex builds an index over a map flag source with the given
// origins enabled, returning both so tests can flip flags mid-test.
func newTestIndex(t *testing.T, enabled ...string) (*Index, *availability.MapSource) {
	t.Helper()
	source := availability.NewMapSource(enabled...)
	return NewIndex(availability.NewOracle(source)), source
}

// newTestBackend builds a root backend on a fresh all-enabled index.
func newTestBackend(t *testing.T, name string) *Backend {
	t.Helper()
	idx := NewIndex(nil)
	b, err := idx.NewBackend(Params{Name: name})
	if err != nil {
		t.Fatalf("backend:helpers_test - NewBackend(%q) failed: %v", name, err)
	}
	return b
}

func unit(name, module string, role Role, types ...string) *Unit {
	return &Unit{
		Name:   name,
		Module: module,
		Roles:  []Role{role},
		Types:  types,
	}
}
