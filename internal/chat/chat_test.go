package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
	"github.com/LuckyLyon/Vibe-your-mind/internal/realtime"
	"github.com/LuckyLyon/Vibe-your-mind/internal/session"
	"github.com/LuckyLyon/Vibe-your-mind/internal/store"
)

// fakeStore is an in-memory DataStore for orchestrator tests.
type fakeStore struct {
	mu       sync.Mutex
	channels []models.Channel
	messages map[string][]models.Message // ascending per channel

	failList   bool
	failInsert bool
	inserts    int
}

func newFakeStore(channels ...models.Channel) *fakeStore {
	return &fakeStore{
		channels: channels,
		messages: make(map[string][]models.Message),
	}
}

func (s *fakeStore) Close()                         {}
func (s *fakeStore) Ping(ctx context.Context) error { return nil }

func (s *fakeStore) ListChannels(ctx context.Context) ([]models.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Channel, len(s.channels))
	copy(out, s.channels)
	return out, nil
}

func (s *fakeStore) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.channels {
		if s.channels[i].ID == id {
			ch := s.channels[i]
			return &ch, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeStore) CreateChannel(ctx context.Context, ch *models.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch.ID == "" {
		ch.ID = fmt.Sprintf("chan-%d", len(s.channels)+1)
	}
	ch.CreatedAt = time.Now()
	s.channels = append(s.channels, *ch)
	return nil
}

func (s *fakeStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert {
		return errors.New("insert failed")
	}
	s.inserts++
	s.messages[msg.ChannelID] = append(s.messages[msg.ChannelID], *msg)
	return nil
}

func (s *fakeStore) ListMessages(ctx context.Context, channelID string, limit int, beforeID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return nil, errors.New("list failed")
	}

	msgs := s.messages[channelID]
	end := len(msgs)
	if beforeID != "" {
		end = 0
		for i := range msgs {
			if msgs[i].ID == beforeID {
				end = i
				break
			}
		}
	}

	// Newest first, up to limit.
	var out []models.Message
	for i := end - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}

func (s *fakeStore) DeleteMessage(ctx context.Context, messageID, senderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for chID, msgs := range s.messages {
		for i := range msgs {
			if msgs[i].ID == messageID {
				if msgs[i].SenderID != senderID {
					return store.ErrNotFound
				}
				s.messages[chID] = append(msgs[:i], msgs[i+1:]...)
				return nil
			}
		}
	}
	return store.ErrNotFound
}

func (s *fakeStore) count(channelID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages[channelID])
}

// fakeTransport is an in-memory pub/sub transport. Publishes deliver
// synchronously to subscribers of the same channel.
type fakeTransport struct {
	mu       sync.Mutex
	nextID   int
	msgSubs  map[string]map[int]func([]byte)
	presSubs map[string]map[int]func([]byte)
	presence map[string]map[string]models.PresenceEntry

	published   []models.Message
	announces   int
	failPublish bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		msgSubs:  make(map[string]map[int]func([]byte)),
		presSubs: make(map[string]map[int]func([]byte)),
		presence: make(map[string]map[string]models.PresenceEntry),
	}
}

func (t *fakeTransport) PublishMessage(ctx context.Context, msg *models.Message) error {
	t.mu.Lock()
	if t.failPublish {
		t.mu.Unlock()
		return errors.New("publish failed")
	}
	t.published = append(t.published, *msg)
	payload, err := realtime.EncodeMessageEvent(msg)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	subs := t.subscribersLocked(t.msgSubs, msg.ChannelID)
	t.mu.Unlock()

	for _, deliver := range subs {
		deliver(payload)
	}
	return nil
}

func (t *fakeTransport) SubscribeMessages(channelID string, deliver func([]byte), onError func(error)) (*realtime.Subscription, error) {
	return t.subscribe(t.msgSubs, channelID, deliver)
}

func (t *fakeTransport) SubscribePresence(channelID string, deliver func([]byte), onError func(error)) (*realtime.Subscription, error) {
	return t.subscribe(t.presSubs, channelID, deliver)
}

func (t *fakeTransport) subscribe(reg map[string]map[int]func([]byte), channelID string, deliver func([]byte)) (*realtime.Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	if reg[channelID] == nil {
		reg[channelID] = make(map[int]func([]byte))
	}
	reg[channelID][id] = deliver
	return realtime.NewSubscription(func() {
		t.mu.Lock()
		delete(reg[channelID], id)
		t.mu.Unlock()
	}), nil
}

func (t *fakeTransport) Announce(ctx context.Context, channelID string, entry models.PresenceEntry) error {
	t.mu.Lock()
	if t.presence[channelID] == nil {
		t.presence[channelID] = make(map[string]models.PresenceEntry)
	}
	t.presence[channelID][entry.UserID] = entry
	t.announces++
	t.mu.Unlock()
	return t.publishSnapshot(channelID)
}

func (t *fakeTransport) Depart(ctx context.Context, channelID, userID string) error {
	t.mu.Lock()
	delete(t.presence[channelID], userID)
	t.mu.Unlock()
	return t.publishSnapshot(channelID)
}

func (t *fakeTransport) publishSnapshot(channelID string) error {
	t.mu.Lock()
	entries := make([]models.PresenceEntry, 0, len(t.presence[channelID]))
	for _, e := range t.presence[channelID] {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].UserID < entries[j].UserID })
	payload, err := realtime.EncodePresenceEvent(entries)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	subs := t.subscribersLocked(t.presSubs, channelID)
	t.mu.Unlock()

	for _, deliver := range subs {
		deliver(payload)
	}
	return nil
}

func (t *fakeTransport) subscribersLocked(reg map[string]map[int]func([]byte), channelID string) []func([]byte) {
	out := make([]func([]byte), 0, len(reg[channelID]))
	for _, deliver := range reg[channelID] {
		out = append(out, deliver)
	}
	return out
}

func (t *fakeTransport) msgSubCount(channelID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.msgSubs[channelID])
}

func (t *fakeTransport) presSubCount(channelID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.presSubs[channelID])
}

func (t *fakeTransport) presentUsers(channelID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.presence[channelID])
}

func (t *fakeTransport) publishCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.published)
}

// fakeCompleter is a scripted Completer.
type fakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (c *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

const (
	generalID = "10000000-0000-0000-0000-000000000001"
	botChanID = "10000000-0000-0000-0000-000000000004"
)

func stockChannels() []models.Channel {
	return []models.Channel{
		{ID: generalID, Name: "global-vibe", Kind: models.ChannelPublic, CreatedAt: time.Unix(1, 0)},
		{ID: "10000000-0000-0000-0000-000000000002", Name: "frontend-gods", Kind: models.ChannelGroup, CreatedAt: time.Unix(2, 0)},
		{ID: botChanID, Name: "VibeBot", Kind: models.ChannelAI, CreatedAt: time.Unix(4, 0)},
	}
}

func testUser() *models.User {
	return &models.User{ID: "user-1", Username: "LuckyLyon"}
}

// newTestOrchestrator wires an orchestrator over in-memory fakes with the
// stock channels loaded. user may be nil for an anonymous session.
func newTestOrchestrator(t *testing.T, user *models.User) (*Orchestrator, *fakeStore, *fakeTransport, *fakeCompleter) {
	t.Helper()

	st := newFakeStore(stockChannels()...)
	ft := newFakeTransport()
	fc := &fakeCompleter{reply: "beep boop"}
	o := NewOrchestrator(session.New(user), st, ft, fc, zerolog.Nop())

	if err := o.LoadChannels(context.Background()); err != nil {
		t.Fatal(err)
	}
	return o, st, ft, fc
}

func seedMessages(st *fakeStore, channelID string, n int) []models.Message {
	msgs := make([]models.Message, n)
	for i := 0; i < n; i++ {
		msg := models.Message{
			ID:         ulid.Make().String(),
			ChannelID:  channelID,
			SenderID:   "user-9",
			SenderName: "NeoVibe",
			Content:    fmt.Sprintf("msg %d", i),
			Timestamp:  int64(1000 + i),
		}
		msgs[i] = msg
		st.messages[channelID] = append(st.messages[channelID], msg)
	}
	return msgs
}
