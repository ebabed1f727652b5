package realtime

import (
	"errors"
	"testing"

	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

func TestDecodeMessageEventRoundTrip(t *testing.T) {
	in := &models.Message{
		ID:         "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		ChannelID:  "ch1",
		SenderID:   "u1",
		SenderName: "LuckyLyon",
		Content:    "hello",
		Timestamp:  1700000000000,
	}
	payload, err := EncodeMessageEvent(in)
	if err != nil {
		t.Fatal(err)
	}

	out, err := DecodeMessageEvent(payload)
	if err != nil {
		t.Fatal(err)
	}
	if out.ID != in.ID || out.ChannelID != in.ChannelID || out.Content != in.Content {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if out.IsSystem || out.IsBot {
		t.Fatal("absent flags must decode as false")
	}
}

func TestDecodeMessageEventMalformed(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{not json`},
		{"wrong type", `{"type":"sync","message":{"id":"a","channel_id":"ch"}}`},
		{"missing message", `{"type":"INSERT"}`},
		{"missing id", `{"type":"INSERT","message":{"channel_id":"ch"}}`},
		{"missing channel", `{"type":"INSERT","message":{"id":"a"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeMessageEvent([]byte(tc.payload))
			if !errors.Is(err, ErrBadEvent) {
				t.Fatalf("expected ErrBadEvent, got %v", err)
			}
		})
	}
}

func TestDecodeMessageEventDefaultsTimestamp(t *testing.T) {
	payload := []byte(`{"type":"INSERT","message":{"id":"a","channel_id":"ch","content":"x"}}`)
	out, err := DecodeMessageEvent(payload)
	if err != nil {
		t.Fatal(err)
	}
	if out.Timestamp == 0 {
		t.Fatal("zero timestamp should be defaulted")
	}
}

func TestDecodePresenceEventRoundTrip(t *testing.T) {
	in := []models.PresenceEntry{
		{UserID: "u1", Username: "LuckyLyon", OnlineAt: 1},
		{UserID: "u2", Username: "NeoVibe", OnlineAt: 2},
	}
	payload, err := EncodePresenceEvent(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodePresenceEvent(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].UserID != "u1" || out[1].Username != "NeoVibe" {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestDecodePresenceEventDropsAnonymousEntries(t *testing.T) {
	payload := []byte(`{"type":"sync","entries":[{"user_id":"u1","username":"A"},{"username":"ghost"}]}`)
	out, err := DecodePresenceEvent(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].UserID != "u1" {
		t.Fatalf("entries without user_id should be dropped: %+v", out)
	}
}

func TestDecodePresenceEventWrongType(t *testing.T) {
	payload := []byte(`{"type":"INSERT","entries":[]}`)
	if _, err := DecodePresenceEvent(payload); !errors.Is(err, ErrBadEvent) {
		t.Fatalf("expected ErrBadEvent, got %v", err)
	}
}

func TestEncodePresenceEventEmptySnapshot(t *testing.T) {
	payload, err := EncodePresenceEvent(nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodePresenceEvent(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", out)
	}
}

func TestSubscriptionCancelIdempotent(t *testing.T) {
	calls := 0
	sub := NewSubscription(func() { calls++ })

	sub.Cancel()
	sub.Cancel()
	if calls != 1 {
		t.Fatalf("cancel should run once, ran %d times", calls)
	}

	var nilSub *Subscription
	nilSub.Cancel() // must not panic
}
