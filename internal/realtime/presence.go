package realtime

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/LuckyLyon/Vibe-your-mind/internal/metrics"
	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
	"github.com/LuckyLyon/Vibe-your-mind/internal/session"
)

// Tracker maintains the who-is-online view for subscribed channels. Every
// sync event carries the complete presence set for the channel; consumers
// replace their previous set rather than merging.
type Tracker struct {
	transport Transport
	session   *session.Session
	logger    zerolog.Logger
}

// NewTracker creates a presence tracker for the given session.
func NewTracker(transport Transport, sess *session.Session, logger zerolog.Logger) *Tracker {
	return &Tracker{transport: transport, session: sess, logger: logger}
}

// Subscribe establishes the presence subscription for a channel. After
// establishment the local user is announced exactly once; re-announcing on
// every sync would just be redundant chatter. Anonymous sessions observe
// without announcing. Cancelling the subscription departs the channel.
func (t *Tracker) Subscribe(ctx context.Context, channelID string, onSync func([]models.PresenceEntry)) (*Subscription, error) {
	deliver := func(payload []byte) {
		entries, err := DecodePresenceEvent(payload)
		if err != nil {
			t.logger.Warn().Err(err).Str("channel", channelID).Msg("dropping malformed presence event")
			return
		}
		metrics.RealtimeEventsTotal.WithLabelValues("presence").Inc()
		onSync(entries)
	}

	onError := func(err error) {
		t.logger.Warn().Err(err).Str("channel", channelID).Msg("presence subscription error")
	}

	inner, err := t.transport.SubscribePresence(channelID, deliver, onError)
	if err != nil {
		return nil, err
	}

	metrics.SubscriptionsActive.WithLabelValues("presence").Inc()

	// Announce once, post-establishment only.
	user := t.session.CurrentUser()
	if user != nil {
		entry := models.PresenceEntry{
			UserID:   user.ID,
			Username: user.Username,
			OnlineAt: time.Now().UnixMilli(),
		}
		if err := t.transport.Announce(ctx, channelID, entry); err != nil {
			t.logger.Warn().Err(err).Str("channel", channelID).Msg("presence announce failed")
		}
	}

	return NewSubscription(func() {
		inner.Cancel()
		metrics.SubscriptionsActive.WithLabelValues("presence").Dec()
		if user != nil {
			if err := t.transport.Depart(context.Background(), channelID, user.ID); err != nil {
				t.logger.Warn().Err(err).Str("channel", channelID).Msg("presence depart failed")
			}
		}
	}), nil
}
