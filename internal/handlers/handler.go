package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/LuckyLyon/Vibe-your-mind/internal/realtime"
	"github.com/LuckyLyon/Vibe-your-mind/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store  store.DataStore
	rt     *realtime.RedisTransport
	logger zerolog.Logger
}

// NewHandler creates a new Handler with the given store and transport.
func NewHandler(st store.DataStore, rt *realtime.RedisTransport, logger zerolog.Logger) *Handler {
	return &Handler{store: st, rt: rt, logger: logger}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// sanitizeName trims and limits a display name to 100 characters, removing
// control characters.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)

	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	if len(name) > 100 {
		name = name[:100]
	}

	return name
}
