package amqp

import (
	"testing"
	"time"
)

func TestRowMessageRoundTrip(t *testing.T) {
	msg := NewRowMessage("transaction", 42)
	if msg.Timestamp.IsZero() {
		t.Fatal("timestamp must be set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := RowMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Entity != "transaction" || got.ID != 42 {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if !got.Timestamp.Truncate(time.Millisecond).Equal(msg.Timestamp.Truncate(time.Millisecond)) {
		t.Errorf("timestamp drift: %v vs %v", got.Timestamp, msg.Timestamp)
	}
}

func TestRowMessageFromJSONInvalid(t *testing.T) {
	if _, err := RowMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
