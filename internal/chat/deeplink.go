package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

// DeepLink is a cross-component request to open the DM channel for a user,
// optionally pre-filling or auto-sending a seed message ("Chat with the
// author" buttons elsewhere in the app produce these).
type DeepLink struct {
	Peer string // target username
	Seed string // optional message text
}

// RequestDirectChat stages a deep-link request for resolution. The trigger
// is edge-based: a staged request holds until consumed, and further writes
// while one is pending are ignored (first-write-wins), so the same logical
// request can never be handled twice.
func (o *Orchestrator) RequestDirectChat(link DeepLink) {
	if link.Peer == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pendingLink != nil {
		return
	}
	o.pendingLink = &link
}

// ResolveDeepLink consumes the pending request, if any, and opens the
// conversation: the DM channel is found or created, a brand-new channel is
// seeded with a single system notice, and the seed message is either sent as
// the authenticated user or staged in the composer for an anonymous one.
// The request slot is cleared before any other work, so re-entry with an
// already-clear slot is a no-op.
func (o *Orchestrator) ResolveDeepLink(ctx context.Context) error {
	o.mu.Lock()
	link := o.pendingLink
	o.pendingLink = nil
	o.mu.Unlock()

	if link == nil {
		return nil
	}

	channel, created := o.directory.EnsureDirectChannel(link.Peer)

	if created {
		// The session-start notice is the first entry in a new DM channel's
		// history and never repeats on later visits.
		notice := models.Message{
			ID:         ulid.Make().String(),
			ChannelID:  channel.ID,
			SenderID:   models.SenderSystem,
			SenderName: "System",
			Content:    fmt.Sprintf("Started a session with %s.", link.Peer),
			Timestamp:  time.Now().UnixMilli(),
			IsSystem:   true,
		}
		o.history.Append(channel.ID, notice)
		if err := o.dispatch(ctx, &notice); err != nil {
			o.logger.Warn().Err(err).Str("channel", channel.ID).Msg("system notice dispatch failed")
		}
	}

	if link.Seed != "" {
		if user := o.session.CurrentUser(); user != nil {
			// Authenticated: the seed appears in history at once; delivery
			// has no say in whether the user sees their own words.
			msg := newUserMessage(user, channel.ID, link.Seed)
			o.history.Append(channel.ID, msg)
			if err := o.dispatch(ctx, &msg); err != nil {
				o.logger.Warn().Err(err).Str("channel", channel.ID).Msg("seed message dispatch failed")
			}
		} else {
			// Anonymous: never auto-send on someone's behalf, never drop.
			o.SetComposer(link.Seed)
		}
	}

	return o.SwitchChannel(ctx, channel.ID)
}

// OpenDirect stages and immediately resolves a deep-link request.
func (o *Orchestrator) OpenDirect(ctx context.Context, link DeepLink) error {
	o.RequestDirectChat(link)
	return o.ResolveDeepLink(ctx)
}
