// Package relay forwards record-mutation notifications from the
// in-process event bus to COMMS subjects, so out-of-process workers can
// react to data changes without a hook into the host's data layer.
package relay

// RecordEvent is the wire envelope for one record mutation.
type RecordEvent struct {
	// Event is the record event name: record.create, record.write or
	// record.unlink.
	Event      string `json:"event"`
	EntityType string `json:"entityType"`
	// RecordID identifies the mutated record; its shape is the host's.
	RecordID any `json:"recordId"`
	// ChangedFields lists the field names touched by a create or write.
	ChangedFields []string `json:"changedFields,omitempty"`
	// Origin names the module the forwarding consumer belongs to; empty
	// for core-owned consumers.
	Origin    string `json:"origin,omitempty"`
	Timestamp string `json:"timestamp"`
}
