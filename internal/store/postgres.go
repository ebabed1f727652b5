package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist and seeds the stock channels.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS channels (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'public',
		description TEXT DEFAULT '',
		created_at TIMESTAMPTZ DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		channel_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		sender_name TEXT NOT NULL,
		content TEXT NOT NULL,
		ts BIGINT NOT NULL,
		is_system BOOLEAN DEFAULT FALSE,
		is_bot BOOLEAN DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_messages_channel_ts ON messages(channel_id, ts);
	CREATE INDEX IF NOT EXISTS idx_channels_created ON channels(created_at);

	INSERT INTO channels (id, name, type, description, created_at) VALUES
		('00000000-0000-0000-0000-000000000001', 'global-vibe',   'public', 'Global chatter and hangout', '2024-01-01 00:00:01+00'),
		('00000000-0000-0000-0000-000000000002', 'frontend-gods', 'public', 'React, Vue, CSS magic',      '2024-01-01 00:00:02+00'),
		('00000000-0000-0000-0000-000000000003', 'idea-storm',    'public', 'Brainstorm wild ideas',      '2024-01-01 00:00:03+00'),
		('00000000-0000-0000-0000-000000000004', 'VibeBot',       'ai',     'Your personal AI assistant', '2024-01-01 00:00:04+00')
	ON CONFLICT (id) DO NOTHING;
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ListChannels retrieves all channels in creation order.
func (s *PostgresStore) ListChannels(ctx context.Context) ([]models.Channel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, type, COALESCE(description, ''), created_at
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
func (s *PostgresStore) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	ch := &models.Channel{}
	var kind string
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, type, COALESCE(description, ''), created_at
		FROM channels WHERE id = $1
	`, id).Scan(&ch.ID, &ch.Name, &kind, &ch.Description, &ch.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ch.Kind = models.ChannelKind(kind)
	return ch, nil
}

// CreateChannel inserts a channel, generating an ID if not set.
func (s *PostgresStore) CreateChannel(ctx context.Context, ch *models.Channel) error {
	if ch.ID == "" {
		ch.ID = uuid.New().String()
	}
	if ch.CreatedAt.IsZero() {
		ch.CreatedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO channels (id, name, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ch.ID, ch.Name, string(ch.Kind), ch.Description, ch.CreatedAt)
	return err
}

// InsertMessage stores a message, generating ID and timestamp if not set.
func (s *PostgresStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, channel_id, sender_id, sender_name, content, ts, is_system, is_bot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, msg.ID, msg.ChannelID, msg.SenderID, msg.SenderName, msg.Content, msg.Timestamp, msg.IsSystem, msg.IsBot)
	return err
}

// ListMessages retrieves up to limit messages newest-first, older than the
// message identified by beforeID when set.
func (s *PostgresStore) ListMessages(ctx context.Context, channelID string, limit int, beforeID string) ([]models.Message, error) {
	var beforeTS int64
	if beforeID != "" {
		err := s.pool.QueryRow(ctx, `
			SELECT ts FROM messages WHERE id = $1 AND channel_id = $2
		`, beforeID, channelID).Scan(&beforeTS)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}

	var rows pgx.Rows
	var err error
	if beforeTS > 0 {
		rows, err = s.pool.Query(ctx, `
			SELECT id, channel_id, sender_id, sender_name, content, ts, is_system, is_bot
			FROM messages WHERE channel_id = $1 AND ts < $2
			ORDER BY ts DESC LIMIT $3
		`, channelID, beforeTS, limit)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT id, channel_id, sender_id, sender_name, content, ts, is_system, is_bot
			FROM messages WHERE channel_id = $1
			ORDER BY ts DESC LIMIT $2
		`, channelID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]models.Message, error) {
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
func (s *PostgresStore) DeleteMessage(ctx context.Context, messageID, senderID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM messages WHERE id = $1 AND sender_id = $2
	`, messageID, senderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
