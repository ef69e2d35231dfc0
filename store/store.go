// Package store persists conversations and messages. Memory is the
// zero-setup backend for tests and local development; SQLite provides
// durable storage for single-node deployments.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/currentslabs/currents"
)

// ErrNotFound is returned when a conversation does not exist or is not
// visible to the requesting user.
var ErrNotFound = errors.New("store: not found")

// Conversation is one chat thread owned by a user.
type Conversation struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one persisted chat message.
type Message struct {
	ID             string
	ConversationID string
	Role           currents.Role
	Content        string
	CreatedAt      time.Time
}

// Store persists conversations and messages. Implementations are safe
// for concurrent use.
//
// The embedded currents.ConversationStore methods serve the agent loop:
// History returns the most recent messages in chronological order, and
// AppendMessage bumps the conversation's updated time so listings sort
// by recency.
type Store interface {
	currents.ConversationStore

	// CreateConversation starts a new thread for a user.
	CreateConversation(ctx context.Context, userID, title string) (*Conversation, error)

	// Conversation fetches a thread if it exists and belongs to the
	// user, otherwise ErrNotFound.
	Conversation(ctx context.Context, userID, conversationID string) (*Conversation, error)

	// Conversations lists a user's threads, most recently updated first.
	Conversations(ctx context.Context, userID string) ([]*Conversation, error)

	// Messages returns every message in a conversation in chronological
	// order.
	Messages(ctx context.Context, conversationID string) ([]*Message, error)

	// Close releases any resources held by the backend.
	Close() error
}
