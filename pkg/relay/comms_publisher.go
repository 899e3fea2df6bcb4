package relay

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/syncline/connector-core/pkg/commsutil"
)

const commsPublisherLogPrefix = "relay:comms_publisher"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// GlobalSubject overrides the global record change subject (e.g. from RECORD_EVENT_SUBJECT).
	GlobalSubject string
}

// CommsPublisher publishes record events to COMMS subjects.
type CommsPublisher struct {
	nc            *comms.Conn
	globalSubject string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	globalSubject := commsutil.SubjectRecordChanged
	if opts != nil && opts.GlobalSubject != "" {
		globalSubject = opts.GlobalSubject
	}
	return &CommsPublisher{nc: nc, globalSubject: globalSubject}
}

// Publish publishes a RecordEvent to both the granular and global
// record change subjects.
func (p *CommsPublisher) Publish(_ context.Context, event *RecordEvent) error {
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	// Publish to granular subject
	granularSubject := commsutil.BuildRecordSubject(event.EntityType)
	if err := p.nc.Publish(granularSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, granularSubject, err))
		return err
	}

	// Publish to global subject
	if err := p.nc.Publish(p.globalSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, p.globalSubject, err))
		return err
	}

	slog.Debug(fmt.Sprintf("%s - Published %s event for %s", commsPublisherLogPrefix, event.Event, event.EntityType))
	return nil
}
