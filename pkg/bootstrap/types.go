// Package bootstrap loads the connector topology declaration: the backend
// tree, the module enablement flags, and the self-check probes run at
// startup to catch packaging defects before the first live request.
package bootstrap

// BackendDecl declares one backend node. Parent references a backend
// declared earlier in the file by name and version; forward references
// are a configuration error, which keeps the declared hierarchy acyclic.
type BackendDecl struct {
	Name          string `json:"name,omitempty"`
	Version       string `json:"version,omitempty"`
	Parent        string `json:"parent,omitempty"`
	ParentVersion string `json:"parentVersion,omitempty"`
}

// CheckDecl declares one self-check probe: the (role, entityType) pair is
// resolved on the named backend and must yield exactly one implementation.
type CheckDecl struct {
	Backend    string `json:"backend"`
	Version    string `json:"version,omitempty"`
	Role       string `json:"role"`
	EntityType string `json:"entityType"`
}

// Config is the root bootstrap configuration.
type Config struct {
	Name        string        `json:"name"`
	Version     string        `json:"version"`
	Description string        `json:"description,omitempty"`
	Backends    []BackendDecl `json:"backends"`
	// Modules maps module name to lifecycle state ("installed" enables).
	Modules map[string]string `json:"modules,omitempty"`
	Checks  []CheckDecl       `json:"checks,omitempty"`
}
