package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/LuckyLyon/Vibe-your-mind/internal/ai"
	"github.com/LuckyLyon/Vibe-your-mind/internal/metrics"
	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
	"github.com/LuckyLyon/Vibe-your-mind/internal/realtime"
	"github.com/LuckyLyon/Vibe-your-mind/internal/session"
	"github.com/LuckyLyon/Vibe-your-mind/internal/store"
)

// BotName is the display name stamped on completion-service replies.
const BotName = "VibeBot"

// DefaultHistoryLimit is the page size for history loads.
const DefaultHistoryLimit = 50

var (
	// ErrNotAuthenticated is returned when a send is attempted while logged
	// out. It is raised before anything reaches the network; the UI prompts
	// for login.
	ErrNotAuthenticated = errors.New("chat: not authenticated")

	// ErrNoActiveChannel is returned when an operation needs an active
	// channel and none is selected.
	ErrNoActiveChannel = errors.New("chat: no active channel")

	// ErrChannelNotFound is returned when switching to an unknown channel.
	ErrChannelNotFound = errors.New("chat: channel not found")

	// ErrEmptyMessage is returned when a send carries only whitespace.
	ErrEmptyMessage = errors.New("chat: empty message")
)

// Orchestrator owns the active-channel pointer and drives the
// load-then-subscribe sequence around it. All channel switching, sending,
// and deep-link resolution goes through here; history and presence are
// mutated by no one else while a channel is active.
type Orchestrator struct {
	session   *session.Session
	store     store.DataStore
	transport realtime.Transport
	subs      *realtime.Manager
	presence  *realtime.Tracker
	completer ai.Completer
	logger    zerolog.Logger

	directory *Directory
	history   *History

	historyLimit int

	// mu serializes the mutable per-channel state. Each callback turn
	// (switch, send, insert, presence sync) holds it for the duration of its
	// mutation, the Go rendition of the source's single-threaded callback
	// model: no partial update is ever observable.
	mu              sync.Mutex
	activeChannelID string
	msgSub          *realtime.Subscription
	presSub         *realtime.Subscription
	online          []models.PresenceEntry
	composer        string
	botThinking     bool
	pendingLink     *DeepLink
}

// NewOrchestrator wires the messaging core together. completer may be nil
// when no AI channel is configured.
func NewOrchestrator(sess *session.Session, st store.DataStore, transport realtime.Transport, completer ai.Completer, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		session:      sess,
		store:        st,
		transport:    transport,
		subs:         realtime.NewManager(transport, logger),
		presence:     realtime.NewTracker(transport, sess, logger),
		completer:    completer,
		logger:       logger,
		directory:    NewDirectory(nil),
		history:      NewHistory(),
		historyLimit: DefaultHistoryLimit,
	}
}

// LoadChannels fetches the channel directory from the store. Failures
// propagate so the UI can show a retry state.
func (o *Orchestrator) LoadChannels(ctx context.Context) error {
	channels, err := o.store.ListChannels(ctx)
	if err != nil {
		return err
	}
	o.directory = NewDirectory(channels)
	return nil
}

// Directory returns the channel directory.
func (o *Orchestrator) Directory() *Directory {
	return o.directory
}

// Channels lists the known channels in creation order.
func (o *Orchestrator) Channels() []models.Channel {
	return o.directory.List()
}

// ActiveChannelID returns the active channel's ID, or "" when the directory
// view is showing.
func (o *Orchestrator) ActiveChannelID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeChannelID
}

// ActiveChannel returns the active channel, or nil.
func (o *Orchestrator) ActiveChannel() *models.Channel {
	id := o.ActiveChannelID()
	if id == "" {
		return nil
	}
	ch, ok := o.directory.Get(id)
	if !ok {
		return nil
	}
	return ch
}

// SwitchChannel makes the channel active: prior subscriptions are cancelled
// first, history is loaded, then the message and presence subscriptions are
// established, in that order. Loading before subscribing avoids racing an
// event into a buffer that does not exist yet; the ID dedup still covers the
// overlap either way.
//
// A history-load failure is returned for the UI to surface, but the channel
// still becomes active and subscriptions are still established, so live
// traffic keeps flowing while the user retries the load.
func (o *Orchestrator) SwitchChannel(ctx context.Context, channelID string) error {
	if _, ok := o.directory.Get(channelID); !ok {
		return ErrChannelNotFound
	}

	o.mu.Lock()
	o.teardownLocked()
	o.activeChannelID = channelID
	o.online = nil
	o.mu.Unlock()

	loadErr := o.loadHistory(ctx, channelID)

	msgSub, err := o.subs.Subscribe(channelID, o.onInsert, func(err error) {
		o.logger.Warn().Err(err).Str("channel", channelID).Msg("message subscription error")
	})
	if err != nil {
		// Non-fatal: the channel stays viewable from loaded history.
		o.logger.Warn().Err(err).Str("channel", channelID).Msg("message subscription failed")
	}

	presSub, err := o.presence.Subscribe(ctx, channelID, o.onPresenceSync)
	if err != nil {
		o.logger.Warn().Err(err).Str("channel", channelID).Msg("presence subscription failed")
	}

	o.mu.Lock()
	if o.activeChannelID == channelID {
		o.msgSub = msgSub
		o.presSub = presSub
		o.mu.Unlock()
	} else {
		// The user switched again while we were establishing; these
		// subscriptions lost the race and must not linger.
		o.mu.Unlock()
		msgSub.Cancel()
		presSub.Cancel()
	}

	return loadErr
}

// LeaveChannel returns to the directory view, cancelling both subscriptions.
func (o *Orchestrator) LeaveChannel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.teardownLocked()
	o.activeChannelID = ""
	o.online = nil
}

// Close tears down any outstanding subscriptions. Call on unmount/logout.
func (o *Orchestrator) Close() {
	o.LeaveChannel()
}

// teardownLocked cancels the active channel's subscriptions. Runs before
// every resubscribe and on leave; skipping it leaks deliveries into the
// wrong channel's history and accumulates subscriptions across switches.
func (o *Orchestrator) teardownLocked() {
	o.msgSub.Cancel()
	o.presSub.Cancel()
	o.msgSub = nil
	o.presSub = nil
}

// loadHistory fetches the newest page for the channel and installs it,
// oldest first, preserving any optimistic local appends the fetch missed.
func (o *Orchestrator) loadHistory(ctx context.Context, channelID string) error {
	page, err := o.store.ListMessages(ctx, channelID, o.historyLimit, "")
	if err != nil {
		return err
	}
	reverseMessages(page)
	o.history.Merge(channelID, page)
	return nil
}

// LoadOlder fetches the page preceding the oldest buffered message for the
// active channel and prepends it. Returns how many messages were added.
func (o *Orchestrator) LoadOlder(ctx context.Context) (int, error) {
	channelID := o.ActiveChannelID()
	if channelID == "" {
		return 0, ErrNoActiveChannel
	}
	before := o.history.OldestID(channelID)
	page, err := o.store.ListMessages(ctx, channelID, o.historyLimit, before)
	if err != nil {
		return 0, err
	}
	reverseMessages(page)
	return o.history.Prepend(channelID, page), nil
}

// Messages returns the active channel's history, oldest first.
func (o *Orchestrator) Messages() []models.Message {
	channelID := o.ActiveChannelID()
	if channelID == "" {
		return nil
	}
	return o.history.Messages(channelID)
}

// Online returns the active channel's presence set as of the last sync.
func (o *Orchestrator) Online() []models.PresenceEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.PresenceEntry, len(o.online))
	copy(out, o.online)
	return out
}

// Composer returns the staged composer text.
func (o *Orchestrator) Composer() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.composer
}

// SetComposer stages text in the composer input.
func (o *Orchestrator) SetComposer(text string) {
	o.mu.Lock()
	o.composer = text
	o.mu.Unlock()
}

// BotThinking reports whether a completion call is in flight.
func (o *Orchestrator) BotThinking() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.botThinking
}

// Send appends the message optimistically to local history, dispatches it
// outward, and, on an AI channel, asks the completion service for a reply.
// An unauthenticated send is rejected before anything reaches the network.
// A completion failure is swallowed: the thinking indicator clears and no
// bot message appears, nothing more.
func (o *Orchestrator) Send(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}

	user := o.session.CurrentUser()
	if user == nil {
		return ErrNotAuthenticated
	}

	channel := o.ActiveChannel()
	if channel == nil {
		return ErrNoActiveChannel
	}

	msg := newUserMessage(user, channel.ID, content)
	o.history.Append(channel.ID, msg)
	metrics.MessagesSent.WithLabelValues(string(channel.Kind)).Inc()

	if err := o.dispatch(ctx, &msg); err != nil {
		// The optimistic append stays; the push echo, if it ever arrives,
		// dedups against it.
		return err
	}

	if channel.Kind == models.ChannelAI && o.completer != nil {
		o.askBot(ctx, channel.ID, content)
	}

	return nil
}

// askBot runs the completion round-trip for an AI-channel message. Failures
// never corrupt channel state: they clear the thinking indicator and yield
// no reply.
func (o *Orchestrator) askBot(ctx context.Context, channelID, prompt string) {
	o.mu.Lock()
	o.botThinking = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.botThinking = false
		o.mu.Unlock()
	}()

	reply, err := o.completer.Complete(ctx, prompt)
	if err != nil {
		metrics.BotFailures.Inc()
		o.logger.Warn().Err(err).Str("channel", channelID).Msg("completion service failed")
		return
	}

	botMsg := models.Message{
		ID:         ulid.Make().String(),
		ChannelID:  channelID,
		SenderID:   models.SenderBot,
		SenderName: BotName,
		Content:    reply,
		Timestamp:  time.Now().UnixMilli(),
		IsBot:      true,
	}
	o.history.Append(channelID, botMsg)
	metrics.BotReplies.Inc()

	if err := o.dispatch(ctx, &botMsg); err != nil {
		o.logger.Warn().Err(err).Str("channel", channelID).Msg("bot reply dispatch failed")
	}
}

// DeleteMessage removes the caller's own message from the store and from
// local history.
func (o *Orchestrator) DeleteMessage(ctx context.Context, messageID string) error {
	user := o.session.CurrentUser()
	if user == nil {
		return ErrNotAuthenticated
	}
	channelID := o.ActiveChannelID()
	if channelID == "" {
		return ErrNoActiveChannel
	}
	if err := o.store.DeleteMessage(ctx, messageID, user.ID); err != nil {
		return err
	}
	o.history.Remove(channelID, messageID)
	return nil
}

// onInsert is the realtime insert callback for the active channel.
func (o *Orchestrator) onInsert(msg models.Message) {
	o.history.Append(msg.ChannelID, msg)
}

// onPresenceSync replaces the presence set with the snapshot; sync events
// are snapshots, never diffs.
func (o *Orchestrator) onPresenceSync(entries []models.PresenceEntry) {
	o.mu.Lock()
	o.online = entries
	o.mu.Unlock()
}

// dispatch persists the message and publishes its insert event.
func (o *Orchestrator) dispatch(ctx context.Context, msg *models.Message) error {
	if err := o.store.InsertMessage(ctx, msg); err != nil {
		return err
	}
	return o.transport.PublishMessage(ctx, msg)
}

// newUserMessage builds an outgoing message stamped with the sender's
// identity at send time.
func newUserMessage(user *models.User, channelID, content string) models.Message {
	return models.Message{
		ID:         ulid.Make().String(),
		ChannelID:  channelID,
		SenderID:   user.ID,
		SenderName: user.Username,
		Content:    content,
		Timestamp:  time.Now().UnixMilli(),
	}
}

func reverseMessages(msgs []models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
