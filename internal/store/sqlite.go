package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/vibe.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/vibe.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist and seeds the stock channels.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS channels (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'public',
		description TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		channel_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		sender_name TEXT NOT NULL,
		content TEXT NOT NULL,
		ts INTEGER NOT NULL,
		is_system INTEGER DEFAULT 0,
		is_bot INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_messages_channel_ts ON messages(channel_id, ts);
	CREATE INDEX IF NOT EXISTS idx_channels_created ON channels(created_at);

	-- Seed stock channels if not present
	INSERT OR IGNORE INTO channels (id, name, type, description, created_at) VALUES
		('00000000-0000-0000-0000-000000000001', 'global-vibe',   'public', 'Global chatter and hangout',   '2024-01-01 00:00:01'),
		('00000000-0000-0000-0000-000000000002', 'frontend-gods', 'public', 'React, Vue, CSS magic',        '2024-01-01 00:00:02'),
		('00000000-0000-0000-0000-000000000003', 'idea-storm',    'public', 'Brainstorm wild ideas',        '2024-01-01 00:00:03'),
		('00000000-0000-0000-0000-000000000004', 'VibeBot',       'ai',     'Your personal AI assistant',   '2024-01-01 00:00:04');
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ListChannels retrieves all channels in creation order.
func (s *SQLiteStore) ListChannels(ctx context.Context) ([]models.Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, description, created_at
		FROM channels ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var ch models.Channel
		var kind string
		if err := rows.Scan(&ch.ID, &ch.Name, &kind, &ch.Description, &ch.CreatedAt); err != nil {
			return nil, err
		}
		ch.Kind = models.ChannelKind(kind)
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// GetChannel retrieves a channel by ID.
func (s *SQLiteStore) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	ch := &models.Channel{}
	var kind string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, type, description, created_at
		FROM channels WHERE id = ?
	`, id).Scan(&ch.ID, &ch.Name, &kind, &ch.Description, &ch.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ch.Kind = models.ChannelKind(kind)
	return ch, nil
}

// CreateChannel inserts a channel, generating an ID if not set.
func (s *SQLiteStore) CreateChannel(ctx context.Context, ch *models.Channel) error {
	if ch.ID == "" {
		ch.ID = uuid.New().String()
	}
	if ch.CreatedAt.IsZero() {
		ch.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO channels (id, name, type, description, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, ch.ID, ch.Name, string(ch.Kind), ch.Description, ch.CreatedAt)
	return err
}

// InsertMessage stores a message, generating ID and timestamp if not set.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, channel_id, sender_id, sender_name, content, ts, is_system, is_bot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.ChannelID, msg.SenderID, msg.SenderName, msg.Content, msg.Timestamp, msg.IsSystem, msg.IsBot)
	return err
}

// ListMessages retrieves up to limit messages newest-first, older than the
// message identified by beforeID when set.
func (s *SQLiteStore) ListMessages(ctx context.Context, channelID string, limit int, beforeID string) ([]models.Message, error) {
	var beforeTS int64
	if beforeID != "" {
		err := s.db.QueryRowContext(ctx, `
			SELECT ts FROM messages WHERE id = ? AND channel_id = ?
		`, beforeID, channelID).Scan(&beforeTS)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	var rows *sql.Rows
	var err error
	if beforeTS > 0 {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, channel_id, sender_id, sender_name, content, ts, is_system, is_bot
			FROM messages WHERE channel_id = ? AND ts < ?
			ORDER BY ts DESC LIMIT ?
		`, channelID, beforeTS, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, channel_id, sender_id, sender_name, content, ts, is_system, is_bot
			FROM messages WHERE channel_id = ?
			ORDER BY ts DESC LIMIT ?
		`, channelID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.ChannelID, &msg.SenderID, &msg.SenderName,
			&msg.Content, &msg.Timestamp, &msg.IsSystem, &msg.IsBot); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// DeleteMessage deletes a message. Only the author may delete.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, messageID, senderID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM messages WHERE id = ? AND sender_id = ?
	`, messageID, senderID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
