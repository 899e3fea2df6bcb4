package commsutil

import "testing"

func TestCodecRoundTrip(t *testing.T) {
	type payload struct {
		Event      string `json:"event"`
		EntityType string `json:"entityType"`
	}

	data, err := EncodePayload(&payload{Event: "record.write", EntityType: "res.partner"})
	if err != nil {
		t.Fatalf("commsutil:codec_test - EncodePayload failed: %v", err)
	}

	var got payload
	if err := DecodePayload(data, &got); err != nil {
		t.Fatalf("commsutil:codec_test - DecodePayload failed: %v", err)
	}
	if got.Event != "record.write" || got.EntityType != "res.partner" {
		t.Errorf("commsutil:codec_test - round trip = %+v", got)
	}
}

func TestDecodePayload_Malformed(t *testing.T) {
	var out map[string]any
	if err := DecodePayload([]byte("{nope"), &out); err == nil {
		t.Error("commsutil:codec_test - expected error for malformed JSON")
	}
}
