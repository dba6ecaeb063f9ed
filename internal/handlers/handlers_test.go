package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCannedReply(t *testing.T) {
	plain := cannedReply("Do you open on Sunday?", 0)
	if strings.HasPrefix(plain, "{") {
		t.Fatalf("expected plain text, got %q", plain)
	}
	if !strings.Contains(plain, "Sunday") {
		t.Fatalf("reply should echo the message: %q", plain)
	}

	followUp := cannedReply("ok", 4)
	if !strings.Contains(followUp, "4 earlier") {
		t.Fatalf("reply should mention history: %q", followUp)
	}

	media := cannedReply("Send me a PICTURE", 0)
	var reply aiMediaReply
	if err := json.Unmarshal([]byte(media), &reply); err != nil {
		t.Fatalf("media reply is not JSON: %v", err)
	}
	if reply.Text == "" || len(reply.MediaURLs) == 0 {
		t.Fatalf("incomplete media reply: %+v", reply)
	}
}

func TestLimitParam(t *testing.T) {
	tests := map[string]int{
		"":           100,
		"?limit=20":  20,
		"?limit=0":   1,
		"?limit=900": 500,
		"?limit=abc": 100,
	}
	for query, want := range tests {
		r := httptest.NewRequest("GET", "/x"+query, nil)
		if got := limitParam(r); got != want {
			t.Errorf("limitParam(%q) = %d, want %d", query, got, want)
		}
	}
}

func TestRFC3339Millis(t *testing.T) {
	if got := rfc3339Millis(0); got != "" {
		t.Fatalf("zero time should be empty, got %q", got)
	}
	ts := time.Date(2024, 5, 1, 12, 0, 0, 250*int(time.Millisecond), time.UTC)
	got := rfc3339Millis(ts.UnixMilli())
	if got != "2024-05-01T12:00:00.25Z" {
		t.Fatalf("unexpected format: %q", got)
	}
}

func TestMessengerSender(t *testing.T) {
	if messengerSender("outbound") != "page" || messengerSender("inbound") != "user" {
		t.Fatal("unexpected sender mapping")
	}
}
