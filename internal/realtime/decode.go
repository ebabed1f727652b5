package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

// Wire event types.
const (
	EventInsert       = "INSERT"
	EventPresenceSync = "sync"
)

// ErrBadEvent is returned when a wire payload cannot be coerced into a
// well-formed event.
var ErrBadEvent = errors.New("realtime: malformed event")

// messageEvent is the wire envelope for message inserts.
type messageEvent struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message"`
}

// presenceEvent is the wire envelope for presence syncs.
type presenceEvent struct {
	Type    string                 `json:"type"`
	Entries []models.PresenceEntry `json:"entries"`
}

// EncodeMessageEvent serializes an insert event for publishing.
func EncodeMessageEvent(msg *models.Message) ([]byte, error) {
	return json.Marshal(messageEvent{Type: EventInsert, Message: msg})
}

// EncodePresenceEvent serializes a presence snapshot for publishing.
func EncodePresenceEvent(entries []models.PresenceEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.PresenceEntry{}
	}
	return json.Marshal(presenceEvent{Type: EventPresenceSync, Entries: entries})
}

// DecodeMessageEvent coerces an untrusted transport payload into a Message.
// Required fields are validated; the optional flags default to false when
// absent. Anything that does not look like an insert event is rejected.
func DecodeMessageEvent(payload []byte) (*models.Message, error) {
	var ev messageEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	if ev.Type != EventInsert {
		return nil, fmt.Errorf("%w: unexpected type %q", ErrBadEvent, ev.Type)
	}
	msg := ev.Message
	if msg == nil {
		return nil, fmt.Errorf("%w: missing message", ErrBadEvent)
	}
	if msg.ID == "" || msg.ChannelID == "" {
		return nil, fmt.Errorf("%w: missing id or channel_id", ErrBadEvent)
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	return msg, nil
}

// DecodePresenceEvent coerces an untrusted transport payload into a presence
// snapshot. Entries without a user ID are dropped.
func DecodePresenceEvent(payload []byte) ([]models.PresenceEntry, error) {
	var ev presenceEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	if ev.Type != EventPresenceSync {
		return nil, fmt.Errorf("%w: unexpected type %q", ErrBadEvent, ev.Type)
	}
	entries := make([]models.PresenceEntry, 0, len(ev.Entries))
	for _, e := range ev.Entries {
		if e.UserID == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
