package realtime

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

// stubTransport records subscriptions and lets tests push raw payloads.
type stubTransport struct {
	mu        sync.Mutex
	nextID    int
	subs      map[string]map[int]func([]byte)
	announces []models.PresenceEntry
	departs   []string
}

func newStubTransport() *stubTransport {
	return &stubTransport{subs: make(map[string]map[int]func([]byte))}
}

func (s *stubTransport) PublishMessage(ctx context.Context, msg *models.Message) error {
	payload, err := EncodeMessageEvent(msg)
	if err != nil {
		return err
	}
	s.push(msg.ChannelID, payload)
	return nil
}

func (s *stubTransport) SubscribeMessages(channelID string, deliver func([]byte), onError func(error)) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	if s.subs[channelID] == nil {
		s.subs[channelID] = make(map[int]func([]byte))
	}
	s.subs[channelID][id] = deliver
	return NewSubscription(func() {
		s.mu.Lock()
		delete(s.subs[channelID], id)
		s.mu.Unlock()
	}), nil
}

func (s *stubTransport) SubscribePresence(channelID string, deliver func([]byte), onError func(error)) (*Subscription, error) {
	return s.SubscribeMessages(channelID, deliver, onError)
}

func (s *stubTransport) Announce(ctx context.Context, channelID string, entry models.PresenceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.announces = append(s.announces, entry)
	return nil
}

func (s *stubTransport) Depart(ctx context.Context, channelID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.departs = append(s.departs, userID)
	return nil
}

func (s *stubTransport) push(channelID string, payload []byte) {
	s.mu.Lock()
	delivers := make([]func([]byte), 0, len(s.subs[channelID]))
	for _, d := range s.subs[channelID] {
		delivers = append(delivers, d)
	}
	s.mu.Unlock()
	for _, d := range delivers {
		d(payload)
	}
}

func (s *stubTransport) liveCount(channelID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[channelID])
}

func TestManagerDeliversDecodedInserts(t *testing.T) {
	st := newStubTransport()
	m := NewManager(st, zerolog.Nop())

	var got []models.Message
	_, err := m.Subscribe("ch1", func(msg models.Message) { got = append(got, msg) }, func(error) {})
	if err != nil {
		t.Fatal(err)
	}

	st.PublishMessage(context.Background(), &models.Message{ID: "a", ChannelID: "ch1", Content: "hi"})

	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected one decoded insert, got %+v", got)
	}
}

func TestManagerDropsMalformedAndForeignEvents(t *testing.T) {
	st := newStubTransport()
	m := NewManager(st, zerolog.Nop())

	var got []models.Message
	if _, err := m.Subscribe("ch1", func(msg models.Message) { got = append(got, msg) }, func(error) {}); err != nil {
		t.Fatal(err)
	}

	st.push("ch1", []byte(`{broken`))
	st.push("ch1", []byte(`{"type":"INSERT","message":{"id":"x","channel_id":"other"}}`))

	if len(got) != 0 {
		t.Fatalf("malformed and cross-channel events must be dropped, got %+v", got)
	}
}

func TestManagerResubscribeCancelsPrevious(t *testing.T) {
	st := newStubTransport()
	m := NewManager(st, zerolog.Nop())

	if _, err := m.Subscribe("ch1", func(models.Message) {}, func(error) {}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Subscribe("ch1", func(models.Message) {}, func(error) {}); err != nil {
		t.Fatal(err)
	}

	if got := st.liveCount("ch1"); got != 1 {
		t.Fatalf("expected exactly 1 live transport subscription, got %d", got)
	}
	if got := m.ActiveCount(); got != 1 {
		t.Fatalf("expected 1 active managed subscription, got %d", got)
	}
}

func TestManagerCancelRemovesFromActiveSet(t *testing.T) {
	st := newStubTransport()
	m := NewManager(st, zerolog.Nop())

	sub, err := m.Subscribe("ch1", func(models.Message) {}, func(error) {})
	if err != nil {
		t.Fatal(err)
	}
	sub.Cancel()

	if got := m.ActiveCount(); got != 0 {
		t.Fatalf("expected 0 active subscriptions after cancel, got %d", got)
	}
	if got := st.liveCount("ch1"); got != 0 {
		t.Fatalf("expected transport subscription cancelled, got %d", got)
	}
}
