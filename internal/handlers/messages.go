package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/LuckyLyon/Vibe-your-mind/internal/api/middleware"
	"github.com/LuckyLyon/Vibe-your-mind/internal/metrics"
	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
	"github.com/LuckyLyon/Vibe-your-mind/internal/store"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 100
	maxMessageLength    = 4000
)

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
	Timestamp  int64  `json:"ts"`
	IsSystem   bool   `json:"is_system,omitempty"`
	IsBot      bool   `json:"is_bot,omitempty"`
}

// ChannelMessagesResponse represents the channel messages response.
// Messages are ascending, oldest first.
type ChannelMessagesResponse struct {
	Channel  ChannelInfo       `json:"channel"`
	Messages []MessageResponse `json:"messages"`
	HasMore  bool              `json:"has_more"`
}

// PostMessageRequest represents the post message request.
type PostMessageRequest struct {
	Content string `json:"content"`
}

// PostMessageResponse represents the post message response.
type PostMessageResponse struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// GetChannelMessages handles message history retrieval with backward
// pagination via the before cursor.
func (h *Handler) GetChannelMessages(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	ch, err := h.store.GetChannel(r.Context(), channelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.Error(w, http.StatusNotFound, "channel not found")
			return
		}
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	limit := defaultMessageLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			h.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if n > maxMessageLimit {
			n = maxMessageLimit
		}
		limit = n
	}

	before := r.URL.Query().Get("before")

	// Fetch one extra row to learn whether older history remains.
	msgs, err := h.store.ListMessages(r.Context(), channelID, limit+1, before)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	hasMore := len(msgs) > limit
	if hasMore {
		msgs = msgs[:limit]
	}

	// Store returns newest first; respond oldest first.
	out := make([]MessageResponse, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = MessageResponse{
			ID:         m.ID,
			SenderID:   m.SenderID,
			SenderName: m.SenderName,
			Content:    m.Content,
			Timestamp:  m.Timestamp,
			IsSystem:   m.IsSystem,
			IsBot:      m.IsBot,
		}
	}

	h.JSON(w, http.StatusOK, ChannelMessagesResponse{
		Channel: ChannelInfo{
			ID:   ch.ID,
			Name: ch.Name,
			Type: string(ch.Kind),
		},
		Messages: out,
		HasMore:  hasMore,
	})
}

// PostMessage handles sending a message to a channel (authenticated).
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	channelID := chi.URLParam(r, "channelID")

	ch, err := h.store.GetChannel(r.Context(), channelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.Error(w, http.StatusNotFound, "channel not found")
			return
		}
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		h.Error(w, http.StatusBadRequest, "content is required")
		return
	}
	if len(req.Content) > maxMessageLength {
		h.Error(w, http.StatusBadRequest, "content exceeds 4000 characters")
		return
	}

	msg := &models.Message{
		ID:         ulid.Make().String(),
		ChannelID:  ch.ID,
		SenderID:   user.ID,
		SenderName: user.Username,
		Content:    req.Content,
		Timestamp:  time.Now().UnixMilli(),
	}

	if err := h.store.InsertMessage(r.Context(), msg); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	metrics.MessagesSent.WithLabelValues(string(ch.Kind)).Inc()

	// Fan-out failure does not undo the durable insert; subscribers catch
	// up from history on their next load.
	if err := h.rt.PublishMessage(r.Context(), msg); err != nil {
		h.logger.Warn().Err(err).Str("channel_id", ch.ID).Msg("publish after insert failed")
	}

	h.JSON(w, http.StatusCreated, PostMessageResponse{
		ID:        msg.ID,
		Timestamp: msg.Timestamp,
	})
}

// DeleteMessage handles author-scoped message deletion.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	messageID := chi.URLParam(r, "messageID")

	if err := h.store.DeleteMessage(r.Context(), messageID, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.Error(w, http.StatusNotFound, "message not found")
			return
		}
		h.Error(w, http.StatusInternalServerError, "failed to delete message")
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
