package chat

import (
	"sync"

	"github.com/LuckyLyon/Vibe-your-mind/internal/metrics"
	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

// History is the per-channel in-memory message buffer, presented oldest
// first. Appends dedup on message ID: realtime delivery is at-least-once
// and the sender sees its own insert twice (optimistic append plus the
// push echo), so naive concatenation produces duplicate bubbles.
type History struct {
	mu    sync.Mutex
	order map[string][]models.Message
	seen  map[string]map[string]struct{}
}

// NewHistory creates an empty history buffer.
func NewHistory() *History {
	return &History{
		order: make(map[string][]models.Message),
		seen:  make(map[string]map[string]struct{}),
	}
}

// Append adds the message to the tail of its channel's history if and only
// if no message with the same ID exists there. Returns false for a dropped
// duplicate.
func (h *History) Append(channelID string, msg models.Message) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.appendLocked(channelID, msg)
}

func (h *History) appendLocked(channelID string, msg models.Message) bool {
	ids, ok := h.seen[channelID]
	if !ok {
		ids = make(map[string]struct{})
		h.seen[channelID] = ids
	}
	if _, dup := ids[msg.ID]; dup {
		metrics.DuplicatesDropped.Inc()
		return false
	}
	ids[msg.ID] = struct{}{}
	h.order[channelID] = append(h.order[channelID], msg)
	return true
}

// Merge installs a freshly loaded page as the channel's history, carrying
// over any messages already buffered locally that the load did not return
// (optimistic appends not yet visible to the fetch). Loaded messages come
// first, retained local ones keep their relative order after them.
func (h *History) Merge(channelID string, loaded []models.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	retained := h.order[channelID]
	h.order[channelID] = nil
	h.seen[channelID] = make(map[string]struct{})

	for _, msg := range loaded {
		h.appendLocked(channelID, msg)
	}
	for _, msg := range retained {
		h.appendLocked(channelID, msg)
	}
}

// Prepend inserts an older page before the channel's current history,
// skipping IDs already present. Used for backward pagination.
func (h *History) Prepend(channelID string, older []models.Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids, ok := h.seen[channelID]
	if !ok {
		ids = make(map[string]struct{})
		h.seen[channelID] = ids
	}

	fresh := make([]models.Message, 0, len(older))
	for _, msg := range older {
		if _, dup := ids[msg.ID]; dup {
			continue
		}
		ids[msg.ID] = struct{}{}
		fresh = append(fresh, msg)
	}
	h.order[channelID] = append(fresh, h.order[channelID]...)
	return len(fresh)
}

// Messages returns a copy of the channel's history, oldest first.
func (h *History) Messages(channelID string) []models.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := h.order[channelID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out
}

// Remove deletes a message from the channel's history.
func (h *History) Remove(channelID, messageID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := h.order[channelID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			h.order[channelID] = append(msgs[:i], msgs[i+1:]...)
			delete(h.seen[channelID], messageID)
			return
		}
	}
}

// OldestID returns the ID of the oldest buffered message for the channel,
// or "" when the buffer is empty. This is the backward-pagination cursor.
func (h *History) OldestID(channelID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := h.order[channelID]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[0].ID
}
