package models

// Reserved sender identifiers for messages not authored by a user.
const (
	SenderSystem = "system"
	SenderBot    = "bot"
)

// Message represents a chat message within a channel. The ID is the dedup
// key: realtime delivery is at-least-once and repeats are dropped on append.
type Message struct {
	ID         string `json:"id"` // ULID
	ChannelID  string `json:"channel_id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"` // captured at send time, never re-joined
	Content    string `json:"content"`
	Timestamp  int64  `json:"ts"` // Unix ms
	IsSystem   bool   `json:"is_system,omitempty"`
	IsBot      bool   `json:"is_bot,omitempty"`
}
