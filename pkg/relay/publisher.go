package relay

import "context"

// Publisher is the interface for publishing record events outbound.
type Publisher interface {
	Publish(ctx context.Context, event *RecordEvent) error
}

// NoOpPublisher is a Publisher that does nothing (for in-process usage
// without a relay).
type NoOpPublisher struct{}

// Publish is a no-op.
func (p *NoOpPublisher) Publish(_ context.Context, _ *RecordEvent) error {
	return nil
}

// CallbackPublisher is a Publisher that calls a callback function (for
// testing).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *RecordEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *RecordEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// Publish calls the callback.
func (p *CallbackPublisher) Publish(ctx context.Context, event *RecordEvent) error {
	return p.callback(ctx, event)
}
