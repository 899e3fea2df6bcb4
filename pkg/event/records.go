package event

import (
	"fmt"

	"github.com/syncline/connector-core/pkg/availability"
)

const recordsLogPrefix = "event:records"

// Standard record-mutation event names. The host's data layer fires one
// of these on each create, update or delete of a tracked entity, passing
// the entity type, the record identifier (or record) and the changed
// field values when there are any.
const (
	RecordCreate = "record.create"
	RecordWrite  = "record.write"
	RecordUnlink = "record.unlink"
)

// RecordEvents bundles the three standard record-mutation topics that
// every connector host needs. Each host builds its own RecordEvents next
// to its backend Index; there is no shared global bundle.
type RecordEvents struct {
	Create *Topic
	Write  *Topic
	Unlink *Topic
}

// NewRecordEvents creates the standard topics over one availability
// checker.
func NewRecordEvents(avail availability.Checker) *RecordEvents {
	return &RecordEvents{
		Create: NewTopic(avail),
		Write:  NewTopic(avail),
		Unlink: NewTopic(avail),
	}
}

// Topic returns the topic for a standard record event name.
func (r *RecordEvents) Topic(eventName string) (*Topic, bool) {
	switch eventName {
	case RecordCreate:
		return r.Create, true
	case RecordWrite:
		return r.Write, true
	case RecordUnlink:
		return r.Unlink, true
	default:
		return nil, false
	}
}

// Fire routes a record-mutation notification to the topic named by
// eventName. Unknown event names are an error; the trigger contract only
// covers the three standard names.
func (r *RecordEvents) Fire(eventName, entityType string, payload ...any) error {
	t, ok := r.Topic(eventName)
	if !ok {
		return fmt.Errorf("%s - unknown record event %q", recordsLogPrefix, eventName)
	}
	return t.Fire(entityType, payload...)
}
