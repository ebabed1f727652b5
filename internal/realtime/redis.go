package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

const (
	// presenceTTL bounds how long a crashed client lingers in a channel's
	// presence set before Redis expires the whole set.
	presenceTTL = 5 * time.Minute

	// establishTimeout bounds how long subscription establishment may take.
	establishTimeout = 10 * time.Second
)

// RedisTransport implements Transport over Redis pub/sub. Message inserts
// fan out on one topic per channel; presence lives in a hash per channel
// with full-set snapshots published on a companion topic.
type RedisTransport struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisTransport connects to Redis and returns a transport.
func NewRedisTransport(ctx context.Context, redisURL string, logger zerolog.Logger) (*RedisTransport, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisTransport{client: client, logger: logger}, nil
}

// Close closes the Redis connection.
func (t *RedisTransport) Close() error {
	return t.client.Close()
}

// Ping checks the Redis connection.
func (t *RedisTransport) Ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

// Client exposes the underlying Redis client for collaborators that share
// the connection, such as the rate limiter.
func (t *RedisTransport) Client() *redis.Client {
	return t.client
}

// messagesTopic returns the insert-event topic for a channel.
func messagesTopic(channelID string) string {
	return fmt.Sprintf("channel:%s:messages", channelID)
}

// presenceTopic returns the presence-sync topic for a channel.
func presenceTopic(channelID string) string {
	return fmt.Sprintf("channel:%s:presence", channelID)
}

// presenceKey returns the key of a channel's presence hash.
func presenceKey(channelID string) string {
	return fmt.Sprintf("presence:%s", channelID)
}

// PublishMessage publishes an insert event for the message's channel.
func (t *RedisTransport) PublishMessage(ctx context.Context, msg *models.Message) error {
	payload, err := EncodeMessageEvent(msg)
	if err != nil {
		return err
	}
	return t.client.Publish(ctx, messagesTopic(msg.ChannelID), payload).Err()
}

// SubscribeMessages subscribes to a channel's insert-event topic.
func (t *RedisTransport) SubscribeMessages(channelID string, deliver func([]byte), onError func(error)) (*Subscription, error) {
	return t.subscribe(messagesTopic(channelID), deliver, onError, nil)
}

// SubscribePresence subscribes to a channel's presence-sync topic. The
// current snapshot is delivered locally right after establishment so the
// subscriber does not wait for the next announce.
func (t *RedisTransport) SubscribePresence(channelID string, deliver func([]byte), onError func(error)) (*Subscription, error) {
	initial := func(ctx context.Context) {
		entries, err := t.Snapshot(ctx, channelID)
		if err != nil {
			t.logger.Warn().Err(err).Str("channel", channelID).Msg("initial presence snapshot failed")
			return
		}
		payload, err := EncodePresenceEvent(entries)
		if err != nil {
			return
		}
		deliver(payload)
	}
	return t.subscribe(presenceTopic(channelID), deliver, onError, initial)
}

// subscribe opens a pub/sub subscription on topic and pumps payloads to
// deliver until cancelled. afterEstablish, when set, runs once the
// subscription is confirmed, before the pump loop.
func (t *RedisTransport) subscribe(topic string, deliver func([]byte), onError func(error), afterEstablish func(context.Context)) (*Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())
	ps := t.client.Subscribe(ctx, topic)

	// Confirm establishment so failures surface to the caller instead of a
	// silently dead feed.
	establishCtx, establishCancel := context.WithTimeout(ctx, establishTimeout)
	_, err := ps.Receive(establishCtx)
	establishCancel()
	if err != nil {
		cancel()
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	go func() {
		if afterEstablish != nil {
			afterEstablish(ctx)
		}
		for msg := range ps.Channel() {
			deliver([]byte(msg.Payload))
		}
		// Channel closed: expected on cancel, an error otherwise.
		if ctx.Err() == nil && onError != nil {
			onError(fmt.Errorf("subscription to %s closed unexpectedly", topic))
		}
	}()

	return NewSubscription(func() {
		cancel()
		_ = ps.Close()
	}), nil
}

// Announce adds the entry to the channel's presence hash and publishes a
// fresh full-set snapshot.
func (t *RedisTransport) Announce(ctx context.Context, channelID string, entry models.PresenceEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := presenceKey(channelID)
	pipe := t.client.Pipeline()
	pipe.HSet(ctx, key, entry.UserID, data)
	pipe.Expire(ctx, key, presenceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	return t.publishSnapshot(ctx, channelID)
}

// Depart removes the user from the channel's presence hash and publishes a
// fresh full-set snapshot.
func (t *RedisTransport) Depart(ctx context.Context, channelID, userID string) error {
	if err := t.client.HDel(ctx, presenceKey(channelID), userID).Err(); err != nil {
		return err
	}
	return t.publishSnapshot(ctx, channelID)
}

// Snapshot reads the complete presence set for a channel.
func (t *RedisTransport) Snapshot(ctx context.Context, channelID string) ([]models.PresenceEntry, error) {
	fields, err := t.client.HGetAll(ctx, presenceKey(channelID)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]models.PresenceEntry, 0, len(fields))
	for _, data := range fields {
		var entry models.PresenceEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// publishSnapshot pushes the channel's current presence set to subscribers.
func (t *RedisTransport) publishSnapshot(ctx context.Context, channelID string) error {
	entries, err := t.Snapshot(ctx, channelID)
	if err != nil {
		return err
	}
	payload, err := EncodePresenceEvent(entries)
	if err != nil {
		return err
	}
	return t.client.Publish(ctx, presenceTopic(channelID), payload).Err()
}
