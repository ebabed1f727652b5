package store

import (
	"context"
	"errors"

	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

// ErrNotFound is returned when a channel or message does not exist.
var ErrNotFound = errors.New("store: not found")

// DataStore defines the interface for persistent storage of channels and
// messages. Both PostgresStore and SQLiteStore implement this interface.
//
// ListMessages returns up to limit messages newest-first, older than the
// message identified by beforeID when beforeID is non-empty. Callers that
// present history oldest-first reverse the result themselves.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Channel operations
	ListChannels(ctx context.Context) ([]models.Channel, error) // ascending by creation
	GetChannel(ctx context.Context, id string) (*models.Channel, error)
	CreateChannel(ctx context.Context, ch *models.Channel) error

	// Message operations
	InsertMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, channelID string, limit int, beforeID string) ([]models.Message, error)
	DeleteMessage(ctx context.Context, messageID, senderID string) error
}
