package realtime

import (
	"bytes"
	"testing"
)

func TestFrameRoundtrip(t *testing.T) {
	f := &Frame{
		Command: cmdSubscribe,
		Headers: map[string]string{"id": "sub-0", "destination": "/user/queue/realtime", "ack": "auto"},
		Body:    nil,
	}
	parsed, err := ParseFrame(f.Marshal())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Command != cmdSubscribe {
		t.Errorf("command = %q", parsed.Command)
	}
	if parsed.Headers["destination"] != "/user/queue/realtime" {
		t.Errorf("destination = %q", parsed.Headers["destination"])
	}
}

func TestFrameBodyAndTrailingNul(t *testing.T) {
	raw := []byte("MESSAGE\nsubscription:sub-0\ncontent-type:application/json\n\n{\"type\":\"DRIVER_OFFER\",\"payload\":{}}\x00")
	f, err := ParseFrame(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Command != cmdMessage {
		t.Errorf("command = %q", f.Command)
	}
	if !bytes.Contains(f.Body, []byte(`DRIVER_OFFER`)) {
		t.Errorf("body = %q", f.Body)
	}
}

func TestHeaderEscaping(t *testing.T) {
	f := &Frame{Command: cmdError, Headers: map[string]string{"message": "bad:thing\nhappened"}}
	parsed, err := ParseFrame(f.Marshal())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := parsed.Headers["message"]; got != "bad:thing\nhappened" {
		t.Errorf("message = %q", got)
	}
}

func TestParseToleratesLeadingHeartbeats(t *testing.T) {
	raw := []byte("\n\nCONNECTED\nversion:1.2\n\n\x00")
	f, err := ParseFrame(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Command != cmdConnected || f.Headers["version"] != "1.2" {
		t.Fatalf("got %+v", f)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "\n\n\x00", "MESSAGE no terminator"} {
		if _, err := ParseFrame([]byte(raw)); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}
