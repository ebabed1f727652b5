package chat

import (
	"context"
	"testing"

	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

func TestOpenDirectCreatesChannelNoticeAndSeed(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(t, testUser())
	ctx := context.Background()
	before := o.Directory().Len()

	if err := o.OpenDirect(ctx, DeepLink{Peer: "CodeNinja", Seed: "hello"}); err != nil {
		t.Fatal(err)
	}

	if o.Directory().Len() != before+1 {
		t.Fatalf("expected exactly one new channel, directory grew by %d", o.Directory().Len()-before)
	}

	active := o.ActiveChannel()
	if active == nil || active.Kind != models.ChannelDirect || active.Name != "CodeNinja" {
		t.Fatalf("expected active DM channel for CodeNinja, got %+v", active)
	}

	msgs := o.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected system notice plus seed, got %d messages", len(msgs))
	}
	if !msgs[0].IsSystem || msgs[0].SenderID != models.SenderSystem {
		t.Fatalf("first message should be the system notice, got %+v", msgs[0])
	}
	if msgs[1].Content != "hello" || msgs[1].SenderName != "LuckyLyon" {
		t.Fatalf("second message should be the sent seed, got %+v", msgs[1])
	}
}

func TestOpenDirectExistingChannelNoSecondNotice(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(t, testUser())
	ctx := context.Background()

	if err := o.OpenDirect(ctx, DeepLink{Peer: "CodeNinja"}); err != nil {
		t.Fatal(err)
	}
	channelID := o.ActiveChannelID()
	first := len(o.Messages())

	// Visit another channel and come back through a second deep link.
	if err := o.SwitchChannel(ctx, generalID); err != nil {
		t.Fatal(err)
	}
	if err := o.OpenDirect(ctx, DeepLink{Peer: "CodeNinja"}); err != nil {
		t.Fatal(err)
	}

	if o.ActiveChannelID() != channelID {
		t.Fatal("second deep link should reuse the existing DM channel")
	}
	if got := len(o.Messages()); got != first {
		t.Fatalf("notice repeated on revisit: %d messages, expected %d", got, first)
	}
}

func TestOpenDirectAnonymousSeedStagesComposer(t *testing.T) {
	o, st, _, _ := newTestOrchestrator(t, nil)
	ctx := context.Background()

	// The DM channel already exists, so resolution creates nothing and the
	// anonymous seed only lands in the composer.
	dm := models.Channel{
		ID:   "20000000-0000-0000-0000-000000000001",
		Name: "NeoVibe",
		Kind: models.ChannelDirect,
	}
	st.channels = append(st.channels, dm)
	if err := o.LoadChannels(ctx); err != nil {
		t.Fatal(err)
	}

	if err := o.OpenDirect(ctx, DeepLink{Peer: "NeoVibe", Seed: "wanna collab?"}); err != nil {
		t.Fatal(err)
	}

	if o.Composer() != "wanna collab?" {
		t.Fatalf("seed should be staged in the composer, got %q", o.Composer())
	}
	if got := len(o.Messages()); got != 0 {
		t.Fatalf("anonymous deep link must send nothing, got %d messages", got)
	}
	if st.count(dm.ID) != 0 {
		t.Fatal("anonymous deep link must persist nothing")
	}
	if o.ActiveChannelID() != dm.ID {
		t.Fatal("the DM channel should still open")
	}
}

func TestRequestDirectChatFirstWriteWins(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(t, testUser())

	o.RequestDirectChat(DeepLink{Peer: "CodeNinja"})
	o.RequestDirectChat(DeepLink{Peer: "NeoVibe"}) // ignored while one is pending

	if err := o.ResolveDeepLink(context.Background()); err != nil {
		t.Fatal(err)
	}

	active := o.ActiveChannel()
	if active == nil || active.Name != "CodeNinja" {
		t.Fatalf("expected the first request to win, active = %+v", active)
	}
}

func TestResolveDeepLinkConsumesRequest(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(t, testUser())
	ctx := context.Background()

	o.RequestDirectChat(DeepLink{Peer: "CodeNinja"})
	if err := o.ResolveDeepLink(ctx); err != nil {
		t.Fatal(err)
	}
	count := len(o.Messages())
	dirLen := o.Directory().Len()

	// A second resolution finds no pending request and does nothing.
	if err := o.ResolveDeepLink(ctx); err != nil {
		t.Fatal(err)
	}
	if len(o.Messages()) != count {
		t.Fatal("re-resolution must not produce new messages")
	}
	if o.Directory().Len() != dirLen {
		t.Fatal("re-resolution must not create channels")
	}
}

func TestRequestDirectChatEmptyPeerIgnored(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(t, testUser())
	ctx := context.Background()

	o.RequestDirectChat(DeepLink{Seed: "orphan seed"})
	if err := o.ResolveDeepLink(ctx); err != nil {
		t.Fatal(err)
	}
	if o.ActiveChannelID() != "" {
		t.Fatal("empty peer must not open anything")
	}
	if o.Composer() != "" {
		t.Fatal("empty peer must not stage the seed")
	}
}
