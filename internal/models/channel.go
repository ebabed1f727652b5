package models

import "time"

// ChannelKind determines how a channel is routed and grouped in the UI.
type ChannelKind string

const (
	ChannelPublic ChannelKind = "public"
	ChannelGroup  ChannelKind = "group"
	ChannelDirect ChannelKind = "dm"
	ChannelAI     ChannelKind = "ai"
)

// Channel represents a named scope with an ordered message history.
// Public and AI channels are provisioned out-of-band; DM channels are
// created lazily and named after the counterpart user.
type Channel struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Kind        ChannelKind `json:"type"`
	Description string      `json:"description,omitempty"`
	UnreadCount int         `json:"unread_count,omitempty"` // client-local hint, not authoritative
	CreatedAt   time.Time   `json:"created_at"`
}

// IsDirect reports whether the channel is a direct-message thread.
func (c *Channel) IsDirect() bool {
	return c.Kind == ChannelDirect
}
