package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/LuckyLyon/Vibe-your-mind/internal/api/middleware"
	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

// Channel name validation: alphanumeric, hyphens, underscores, 1-50 chars
var channelNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,50}$`)

// ChannelInfo represents a channel in the list response.
type ChannelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// ChannelListResponse represents the channels list response.
type ChannelListResponse struct {
	Channels []ChannelInfo `json:"channels"`
	Total    int           `json:"total"`
}

// CreateChannelRequest represents the channel creation request.
type CreateChannelRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ListChannels handles listing channels in creation order.
func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.store.ListChannels(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	out := make([]ChannelInfo, len(channels))
	for i, ch := range channels {
		out[i] = ChannelInfo{
			ID:          ch.ID,
			Name:        ch.Name,
			Type:        string(ch.Kind),
			Description: ch.Description,
			CreatedAt:   ch.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	h.JSON(w, http.StatusOK, ChannelListResponse{Channels: out, Total: len(out)})
}

// CreateChannel handles channel creation (authenticated).
func (h *Handler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if !channelNameRegex.MatchString(req.Name) {
		h.Error(w, http.StatusBadRequest, "name must be 1-50 characters, alphanumeric with hyphens and underscores only")
		return
	}

	kind := models.ChannelKind(req.Type)
	switch kind {
	case "":
		kind = models.ChannelPublic
	case models.ChannelPublic, models.ChannelGroup, models.ChannelDirect:
	default:
		h.Error(w, http.StatusBadRequest, "invalid channel type")
		return
	}

	ch := &models.Channel{
		Name:        req.Name,
		Kind:        kind,
		Description: sanitizeName(req.Description),
	}
	if err := h.store.CreateChannel(r.Context(), ch); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create channel")
		return
	}

	h.JSON(w, http.StatusCreated, ChannelInfo{
		ID:          ch.ID,
		Name:        ch.Name,
		Type:        string(ch.Kind),
		Description: ch.Description,
		CreatedAt:   ch.CreatedAt.Format("2006-01-02T15:04:05Z"),
	})
}
