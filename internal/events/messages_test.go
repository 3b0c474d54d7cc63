package events

import (
	"testing"
)

func TestSyncRequestMessageRoundTrip(t *testing.T) {
	msg := NewSyncRequestMessage(42)
	if msg.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	decoded, err := SyncRequestMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if decoded.UserID != 42 {
		t.Errorf("user id = %d, want 42", decoded.UserID)
	}
}

func TestSyncRequestMessageFromJSONMalformed(t *testing.T) {
	if _, err := SyncRequestMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("malformed payload should fail to decode")
	}
}
