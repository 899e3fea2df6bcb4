package backend

// Standard roles of the connector unit set. Integrations are free to
// define additional Role values; these cover the stock units every
// connector needs.
const (
	// RoleBinder links a record to its external counterpart: for one
	// record it can find the external identifier, the internal one, or
	// create the binding between them.
	RoleBinder Role = "binder"

	// RoleMapper converts field values between the external system's
	// representation and the internal one.
	RoleMapper Role = "mapper"

	// RoleSynchronizer orchestrates an import or export flow for one
	// entity type.
	RoleSynchronizer Role = "synchronizer"

	// RoleAdapter speaks the external system's API on behalf of the
	// other units.
	RoleAdapter Role = "backend-adapter"
)
