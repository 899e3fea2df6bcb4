package backend

// Role identifies an abstract behavior contract with multiple concrete
// implementations, e.g. "binder" or "mapper". See roles.go for the
// standard set; integrations may define their own.
type Role string

// Capability is a concrete implementation of one or more abstract roles,
// as seen by the registry. Its lifetime is managed by the integration
// that defines it; backends only hold references.
type Capability interface {
	// CompatibleWith reports whether the implementation fulfils role.
	CompatibleWith(role Role) bool
	// AppliesTo reports whether the implementation handles entityType.
	AppliesTo(entityType string) bool
	// Origin returns the tag of the deployment unit providing the
	// implementation, used for availability gating.
	Origin() string
}

// Unit is the stock Capability implementation. Integrations declare a
// Unit per concrete implementation, with roles, entity types and origin
// assigned once as plain fields, and register it right after definition:
//
//	var productImporter = &backend.Unit{
//		Name:   "shopstream.product.importer",
//		Module: "connector_shopstream",
//		Roles:  []backend.Role{backend.RoleSynchronizer},
//		Types:  []string{"product.product"},
//		Build:  func(env *backend.Environment) any { return &productImport{env: env} },
//	}
//
//	func init() { shopstream.Register(productImporter) }
type Unit struct {
	// Name is a diagnostic identifier, surfaced in ambiguity reports.
	Name string
	// Module is the origin tag of the deployment unit defining this Unit.
	Module string
	// Roles this unit satisfies.
	Roles []Role
	// Types are the applicable entity-type names.
	Types []string
	// Build instantiates a worker bound to an Environment. Optional; a
	// Unit without a factory can still be resolved, just not instantiated
	// through Environment.Worker.
	Build func(env *Environment) any
}

// CompatibleWith implements Capability.
func (u *Unit) CompatibleWith(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AppliesTo implements Capability.
func (u *Unit) AppliesTo(entityType string) bool {
	for _, t := range u.Types {
		if t == entityType {
			return true
		}
	}
	return false
}

// Origin implements Capability.
func (u *Unit) Origin() string { return u.Module }

// String implements fmt.Stringer.
func (u *Unit) String() string { return u.Name }
