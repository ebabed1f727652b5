// Package realtime maintains live subscriptions to a per-topic pub/sub
// transport: message-insert feeds and presence snapshots, one of each per
// active channel. Delivery is at-least-once with no ordering guarantee
// across topics; deduplication happens downstream on the message ID.
package realtime

import (
	"context"
	"sync"

	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

// Transport is the pub/sub primitive the managers are built on. Payloads are
// raw wire bytes; decoding into typed events is the subscriber's problem.
type Transport interface {
	// PublishMessage publishes an insert event for the message's channel.
	PublishMessage(ctx context.Context, msg *models.Message) error

	// SubscribeMessages delivers raw insert events for the channel until the
	// returned subscription is cancelled. Establishment failures return an
	// error; failures after establishment go to onError.
	SubscribeMessages(channelID string, deliver func(payload []byte), onError func(error)) (*Subscription, error)

	// SubscribePresence delivers raw presence sync events for the channel.
	// Each event carries the complete current set for the channel.
	SubscribePresence(channelID string, deliver func(payload []byte), onError func(error)) (*Subscription, error)

	// Announce adds the local user to the channel's presence set and
	// publishes a fresh snapshot to subscribers.
	Announce(ctx context.Context, channelID string, entry models.PresenceEntry) error

	// Depart removes a user from the channel's presence set and publishes a
	// fresh snapshot.
	Depart(ctx context.Context, channelID, userID string) error
}

// Subscription is a live, cancellable subscription handle. Cancel is
// idempotent and safe to call from any goroutine.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// NewSubscription wraps a cancel function in a handle.
func NewSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel}
}

// Cancel tears the subscription down. Subsequent calls are no-ops.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}
