package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/currentslabs/currents"
)

// SQLite is a Store backed by a local SQLite database.
type SQLite struct {
	db    *sql.DB
	clock currents.Clock
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens or creates the database at path and ensures the
// schema exists.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	store := &SQLite{db: db, clock: currents.SystemClock{}}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// WithClock overrides the time source. Returns the same store for
// chaining.
func (s *SQLite) WithClock(clock currents.Clock) *SQLite {
	s.clock = clock
	return s
}

func (s *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, updated_at);
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY(conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close implements Store.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateConversation implements Store.
func (s *SQLite) CreateConversation(ctx context.Context, userID, title string) (*Conversation, error) {
	if userID == "" {
		return nil, fmt.Errorf("store: user id is required")
	}

	now := s.clock.Now().UTC()
	conversation := &Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		conversation.ID, conversation.UserID, conversation.Title, conversation.CreatedAt, conversation.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return conversation, nil
}

// Conversation implements Store.
func (s *SQLite) Conversation(ctx context.Context, userID, conversationID string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE id = ? AND user_id = ?`,
		conversationID, userID)

	conversation := &Conversation{}
	err := row.Scan(&conversation.ID, &conversation.UserID, &conversation.Title,
		&conversation.CreatedAt, &conversation.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return conversation, nil
}

// Conversations implements Store.
func (s *SQLite) Conversations(ctx context.Context, userID string) ([]*Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, created_at, updated_at FROM conversations
		 WHERE user_id = ? ORDER BY updated_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]*Conversation, 0)
	for rows.Next() {
		conversation := &Conversation{}
		if err := rows.Scan(&conversation.ID, &conversation.UserID, &conversation.Title,
			&conversation.CreatedAt, &conversation.UpdatedAt); err != nil {
			return nil, err
		}
		conversations = append(conversations, conversation)
	}
	return conversations, rows.Err()
}

// AppendMessage implements Store. The insert and the conversation
// recency bump commit together.
func (s *SQLite) AppendMessage(ctx context.Context, conversationID string, role currents.Role, content string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}

	if err := conversationExists(ctx, tx, conversationID); err != nil {
		tx.Rollback()
		return "", err
	}

	id := uuid.NewString()
	now := s.clock.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, conversationID, string(role), content, now); err != nil {
		tx.Rollback()
		return "", fmt.Errorf("insert message: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		now, conversationID); err != nil {
		tx.Rollback()
		return "", fmt.Errorf("update conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// Messages implements Store. Insertion order breaks created_at ties via
// rowid.
func (s *SQLite) Messages(ctx context.Context, conversationID string) ([]*Message, error) {
	if err := conversationExists(ctx, s.db, conversationID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at FROM messages
		 WHERE conversation_id = ? ORDER BY created_at, rowid`,
		conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]*Message, 0)
	for rows.Next() {
		message := &Message{}
		var role string
		if err := rows.Scan(&message.ID, &message.ConversationID, &role,
			&message.Content, &message.CreatedAt); err != nil {
			return nil, err
		}
		message.Role = currents.Role(role)
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

// History implements currents.ConversationStore. The newest rows are
// selected first and reversed into chronological order. A limit of zero
// or less returns the full transcript.
func (s *SQLite) History(ctx context.Context, conversationID string, limit int) ([]currents.Message, error) {
	if err := conversationExists(ctx, s.db, conversationID); err != nil {
		return nil, err
	}

	query := `SELECT role, content FROM messages
	 WHERE conversation_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []any{conversationID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]currents.Message, 0)
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}
		history = append(history, currents.Message{Role: currents.Role(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.Reverse(history)
	return history, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func conversationExists(ctx context.Context, q querier, conversationID string) error {
	var count int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE id = ?`, conversationID).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
