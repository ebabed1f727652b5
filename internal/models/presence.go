package models

// PresenceEntry is one user visible in a channel's presence set. Sync events
// carry the full set for the channel; entries replace, never merge.
type PresenceEntry struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	OnlineAt int64  `json:"online_at"` // Unix ms, join instant
}
