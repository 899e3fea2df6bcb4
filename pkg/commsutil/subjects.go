package commsutil

import "strings"

// Default COMMS subjects.
const (
	// SubjectRecordChanged is the global subject every record-mutation
	// notification is mirrored to.
	SubjectRecordChanged = "record.changed"
	// SubjectDiagnostics is the request/reply subject the diagnostics
	// server listens on.
	SubjectDiagnostics = "connector.diagnostics.v1"
)

// BuildRecordSubject builds the granular subject for one entity type.
// Entity-type names use dots ("res.partner"), which are token separators
// in COMMS subjects, so they are folded to underscores.
func BuildRecordSubject(entityType string) string {
	safe := strings.ReplaceAll(entityType, ".", "_")
	return SubjectRecordChanged + "." + safe
}
