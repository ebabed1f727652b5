package realtime

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/LuckyLyon/Vibe-your-mind/internal/metrics"
	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

// Manager hands out message-insert subscriptions and enforces the
// one-live-subscription-per-channel rule. Subscribing to a channel that
// already has an active subscription cancels the old one first, so switching
// channels can never leak deliveries into stale callbacks.
type Manager struct {
	transport Transport
	logger    zerolog.Logger

	mu     sync.Mutex
	active map[string]*Subscription
}

// NewManager creates a subscription manager over the given transport.
func NewManager(transport Transport, logger zerolog.Logger) *Manager {
	return &Manager{
		transport: transport,
		logger:    logger,
		active:    make(map[string]*Subscription),
	}
}

// Subscribe establishes the message-insert subscription for a channel.
// Incoming wire events are decoded defensively; payloads that do not form a
// valid insert are dropped with a log line. onInsert receives a fully-formed
// Message. Errors after establishment surface via onError and are non-fatal.
func (m *Manager) Subscribe(channelID string, onInsert func(models.Message), onError func(error)) (*Subscription, error) {
	m.mu.Lock()
	if old, ok := m.active[channelID]; ok {
		delete(m.active, channelID)
		m.mu.Unlock()
		old.Cancel()
		m.mu.Lock()
	}
	m.mu.Unlock()

	deliver := func(payload []byte) {
		msg, err := DecodeMessageEvent(payload)
		if err != nil {
			m.logger.Warn().Err(err).Str("channel", channelID).Msg("dropping malformed insert event")
			return
		}
		if msg.ChannelID != channelID {
			// A correctly scoped topic never carries foreign inserts, but the
			// payload is untrusted input.
			m.logger.Warn().Str("channel", channelID).Str("event_channel", msg.ChannelID).
				Msg("dropping cross-channel insert event")
			return
		}
		metrics.RealtimeEventsTotal.WithLabelValues("insert").Inc()
		onInsert(*msg)
	}

	inner, err := m.transport.SubscribeMessages(channelID, deliver, onError)
	if err != nil {
		return nil, err
	}

	metrics.SubscriptionsActive.WithLabelValues("messages").Inc()

	var sub *Subscription
	sub = NewSubscription(func() {
		inner.Cancel()
		metrics.SubscriptionsActive.WithLabelValues("messages").Dec()
		m.mu.Lock()
		if m.active[channelID] == sub {
			delete(m.active, channelID)
		}
		m.mu.Unlock()
	})

	m.mu.Lock()
	m.active[channelID] = sub
	m.mu.Unlock()

	return sub, nil
}

// ActiveCount returns the number of live message subscriptions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}
