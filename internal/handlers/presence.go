package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/LuckyLyon/Vibe-your-mind/internal/store"
)

// OnlineUser represents one present user in the online response.
type OnlineUser struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	OnlineAt int64  `json:"online_at"`
}

// OnlineResponse represents the channel presence response.
type OnlineResponse struct {
	ChannelID string       `json:"channel_id"`
	Users     []OnlineUser `json:"users"`
	Total     int          `json:"total"`
}

// GetOnline handles the channel presence snapshot endpoint.
func (h *Handler) GetOnline(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	if _, err := h.store.GetChannel(r.Context(), channelID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.Error(w, http.StatusNotFound, "channel not found")
			return
		}
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	entries, err := h.rt.Snapshot(r.Context(), channelID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "presence lookup failed")
		return
	}

	users := make([]OnlineUser, len(entries))
	for i, e := range entries {
		users[i] = OnlineUser{
			UserID:   e.UserID,
			Username: e.Username,
			OnlineAt: e.OnlineAt,
		}
	}

	h.JSON(w, http.StatusOK, OnlineResponse{
		ChannelID: channelID,
		Users:     users,
		Total:     len(users),
	})
}
