package backend

import "fmt"

const envLogPrefix = "backend:environment"

// Environment scopes unit instantiation to one backend and one entity
// type. Workers keep their Environment around to resolve sibling units,
// typically the binder or the adapter of the same flow.
type Environment struct {
	Backend    *Backend
	EntityType string
}

// NewEnvironment creates an Environment for a backend and entity type.
func NewEnvironment(b *Backend, entityType string) *Environment {
	return &Environment{Backend: b, EntityType: entityType}
}

// Worker resolves role for the environment's entity type and instantiates
// the matching unit. Resolution misses and units without a Build factory
// are errors here: a worker asked for by a flow is expected to exist.
func (e *Environment) Worker(role Role) (any, error) {
	impl, found, err := e.Backend.Resolve(role, e.EntityType)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s - no %q implementation for %q on backend %s",
			envLogPrefix, string(role), e.EntityType, e.Backend)
	}
	unit, ok := impl.(*Unit)
	if !ok || unit.Build == nil {
		return nil, fmt.Errorf("%s - %s has no worker factory",
			envLogPrefix, describeCapability(impl))
	}
	return unit.Build(e), nil
}

// WorkerFor is Worker re-scoped to another entity type, keeping the same
// backend.
func (e *Environment) WorkerFor(role Role, entityType string) (any, error) {
	scoped := &Environment{Backend: e.Backend, EntityType: entityType}
	return scoped.Worker(role)
}
