// Package chat implements the client-side messaging core: the channel
// directory, per-channel message history, the deep-link resolver, and the
// orchestrator that owns the active channel and its subscriptions.
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LuckyLyon/Vibe-your-mind/internal/metrics"
	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

// Directory holds the known channels in creation order. Public and AI
// channels are loaded once at startup; DM channels are appended locally as
// conversations open. Only the deep-link resolver and explicit create
// actions extend it.
type Directory struct {
	mu       sync.Mutex
	channels []models.Channel
}

// NewDirectory creates a directory seeded with the loaded channels.
func NewDirectory(channels []models.Channel) *Directory {
	d := &Directory{}
	d.channels = append(d.channels, channels...)
	return d
}

// List returns the channels ascending by creation order.
func (d *Directory) List() []models.Channel {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.Channel, len(d.channels))
	copy(out, d.channels)
	return out
}

// Get returns the channel with the given ID.
func (d *Directory) Get(id string) (*models.Channel, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.channels {
		if d.channels[i].ID == id {
			ch := d.channels[i]
			return &ch, true
		}
	}
	return nil, false
}

// EnsureDirectChannel returns the DM channel for the peer, creating it
// locally when none exists yet. DM channel existence is a local-first
// concept: no network round-trip happens here. The call is idempotent; the
// same peer never yields two channels in one session. The second return
// reports whether the channel was created by this call.
func (d *Directory) EnsureDirectChannel(peerUsername string) (models.Channel, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.channels {
		if d.channels[i].Kind == models.ChannelDirect && d.channels[i].Name == peerUsername {
			return d.channels[i], false
		}
	}

	ch := models.Channel{
		ID:        uuid.New().String(),
		Name:      peerUsername,
		Kind:      models.ChannelDirect,
		CreatedAt: time.Now(),
	}
	d.channels = append(d.channels, ch)
	metrics.DirectChannelsCreated.Inc()
	return ch, true
}

// Len returns the number of known channels.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.channels)
}
