package event

import "testing"

func TestRecordEventsFire_Routing(t *testing.T) {
	events := NewRecordEvents(nil)
	var rec recorder

	events.Create.Subscribe(rec.consumer("on-create", "connector"), nil)

	err := events.Fire(RecordCreate, "res.partner", 7, map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("event:records_test - Fire failed: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("event:records_test - expected 1 invocation, got %d", len(rec.calls))
	}
	got := rec.calls[0]
	if got.entityType != "res.partner" {
		t.Errorf("event:records_test - entityType = %q, want %q", got.entityType, "res.partner")
	}
	if len(got.payload) != 2 || got.payload[0] != 7 {
		t.Errorf("event:records_test - payload = %v, want record id and values", got.payload)
	}

	// Write and unlink stay quiet for a create-only consumer.
	if err := events.Fire(RecordWrite, "res.partner", 7, nil); err != nil {
		t.Fatalf("event:records_test - Fire failed: %v", err)
	}
	if err := events.Fire(RecordUnlink, "res.partner", 7); err != nil {
		t.Fatalf("event:records_test - Fire failed: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Errorf("event:records_test - create consumer leaked into other topics (%d calls)", len(rec.calls))
	}
}

func TestRecordEventsFire_UnknownEvent(t *testing.T) {
	events := NewRecordEvents(nil)
	if err := events.Fire("record.archive", "res.partner", 1); err == nil {
		t.Error("event:records_test - expected error for unknown event name")
	}
}

func TestRecordEventsTopic(t *testing.T) {
	events := NewRecordEvents(nil)

	tests := []struct {
		eventName string
		want      *Topic
		wantOK    bool
	}{
		{RecordCreate, events.Create, true},
		{RecordWrite, events.Write, true},
		{RecordUnlink, events.Unlink, true},
		{"record.archive", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.eventName, func(t *testing.T) {
			got, ok := events.Topic(tt.eventName)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("event:records_test - Topic(%q) = (%v, %v), want (%v, %v)",
					tt.eventName, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
