package chat

import (
	"testing"

	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

func TestDirectoryListPreservesOrder(t *testing.T) {
	channels := stockChannels()
	d := NewDirectory(channels)

	got := d.List()
	if len(got) != len(channels) {
		t.Fatalf("expected %d channels, got %d", len(channels), len(got))
	}
	for i := range got {
		if got[i].ID != channels[i].ID {
			t.Fatalf("position %d: expected %s, got %s", i, channels[i].ID, got[i].ID)
		}
	}
}

func TestDirectoryGet(t *testing.T) {
	d := NewDirectory(stockChannels())

	ch, ok := d.Get(generalID)
	if !ok {
		t.Fatal("expected to find the general channel")
	}
	if ch.Name != "global-vibe" {
		t.Fatalf("expected global-vibe, got %s", ch.Name)
	}

	if _, ok := d.Get("missing"); ok {
		t.Fatal("expected miss for unknown ID")
	}
}

func TestEnsureDirectChannelIdempotent(t *testing.T) {
	d := NewDirectory(stockChannels())
	before := d.Len()

	first, created := d.EnsureDirectChannel("CodeNinja")
	if !created {
		t.Fatal("first ensure should create the channel")
	}
	if first.Kind != models.ChannelDirect || first.Name != "CodeNinja" {
		t.Fatalf("unexpected channel %+v", first)
	}

	second, created := d.EnsureDirectChannel("CodeNinja")
	if created {
		t.Fatal("second ensure must not create another channel")
	}
	if second.ID != first.ID {
		t.Fatal("both ensures should yield the same channel")
	}
	if d.Len() != before+1 {
		t.Fatalf("directory should grow by exactly one, grew by %d", d.Len()-before)
	}
}

func TestEnsureDirectChannelIgnoresNonDirectNameClash(t *testing.T) {
	// A public channel named like a user must not be mistaken for the DM.
	d := NewDirectory([]models.Channel{
		{ID: "c1", Name: "CodeNinja", Kind: models.ChannelPublic},
	})

	ch, created := d.EnsureDirectChannel("CodeNinja")
	if !created {
		t.Fatal("expected a fresh DM channel despite the name clash")
	}
	if ch.ID == "c1" {
		t.Fatal("must not reuse the public channel")
	}
}
