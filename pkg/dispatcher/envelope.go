// Package dispatcher routes incoming COMMS diagnostics requests to the
// in-process backend index and event bus.
package dispatcher

import "encoding/json"

// DiagnosticsRequest is the JSON envelope for incoming COMMS diagnostics requests.
type DiagnosticsRequest struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// DiagnosticsResponse is the JSON envelope for COMMS diagnostics responses.
type DiagnosticsResponse struct {
	ID     string       `json:"id"`
	Ok     bool         `json:"ok"`
	Result interface{}  `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable"`
}

// ResolveParams asks which implementation a backend would pick for a
// role and entity type. Version selects an exact node; VersionRange
// selects the best semver match instead when set.
type ResolveParams struct {
	Backend      string `json:"backend"`
	Version      string `json:"version,omitempty"`
	VersionRange string `json:"versionRange,omitempty"`
	Role         string `json:"role"`
	EntityType   string `json:"entityType"`
}

// ResolveResult reports the outcome of a resolve probe.
type ResolveResult struct {
	Found   bool   `json:"found"`
	Impl    string `json:"impl,omitempty"`
	Backend string `json:"backend,omitempty"`
}

// HasConsumerParams asks whether a record event topic has a live
// consumer for an entity type.
type HasConsumerParams struct {
	Event      string `json:"event"`
	EntityType string `json:"entityType"`
}

// HasConsumerResult reports topic coverage for one entity type.
type HasConsumerResult struct {
	HasConsumer bool `json:"hasConsumer"`
}

// BackendInfo describes one registered backend node.
type BackendInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Parent  string `json:"parent,omitempty"`
}

// ModuleInfo describes one tracked module and its installation state.
type ModuleInfo struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// HealthResult is the health method response.
type HealthResult struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}
