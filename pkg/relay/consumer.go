package relay

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/syncline/connector-core/pkg/event"
)

const consumerLogPrefix = "relay:consumer"

// NewConsumer returns an event bus consumer that forwards fired record
// events through the given publisher. The consumer expects the record
// identifier as the first payload value; when a second payload value is
// a map of written values, its keys are reported as the changed fields.
func NewConsumer(pub Publisher, origin, eventName string) *event.Consumer {
	return &event.Consumer{
		Name:   fmt.Sprintf("relay-%s", eventName),
		Origin: origin,
		Handler: func(entityType string, payload ...any) error {
			rec := &RecordEvent{
				Event:      eventName,
				EntityType: entityType,
				Origin:     origin,
				Timestamp:  time.Now().UTC().Format(time.RFC3339),
			}
			if len(payload) > 0 {
				rec.RecordID = payload[0]
			}
			if len(payload) > 1 {
				if values, ok := payload[1].(map[string]any); ok {
					fields := make([]string, 0, len(values))
					for name := range values {
						fields = append(fields, name)
					}
					sort.Strings(fields)
					rec.ChangedFields = fields
				}
			}
			if err := pub.Publish(context.Background(), rec); err != nil {
				return fmt.Errorf("%s - failed to publish %s for %s: %w", consumerLogPrefix, eventName, entityType, err)
			}
			return nil
		},
	}
}

// Attach subscribes relay consumers to each record event topic so that
// every fired create, write and unlink notification is forwarded.
func Attach(events *event.RecordEvents, pub Publisher, origin string) {
	events.Create.Subscribe(NewConsumer(pub, origin, event.RecordCreate), nil)
	events.Write.Subscribe(NewConsumer(pub, origin, event.RecordWrite), nil)
	events.Unlink.Subscribe(NewConsumer(pub, origin, event.RecordUnlink), nil)
}
