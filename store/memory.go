package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/currentslabs/currents"
)

// Memory is an in-memory Store. All data is lost when the process
// exits.
type Memory struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	messages      map[string][]*Message
	clock         currents.Clock
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		conversations: make(map[string]*Conversation),
		messages:      make(map[string][]*Message),
		clock:         currents.SystemClock{},
	}
}

// WithClock overrides the time source. Returns the same store for
// chaining.
func (m *Memory) WithClock(clock currents.Clock) *Memory {
	m.clock = clock
	return m
}

// CreateConversation implements Store.
func (m *Memory) CreateConversation(ctx context.Context, userID, title string) (*Conversation, error) {
	if userID == "" {
		return nil, fmt.Errorf("store: user id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	conversation := &Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.conversations[conversation.ID] = conversation

	copied := *conversation
	return &copied, nil
}

// Conversation implements Store.
func (m *Memory) Conversation(ctx context.Context, userID, conversationID string) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conversation, ok := m.conversations[conversationID]
	if !ok || conversation.UserID != userID {
		return nil, ErrNotFound
	}

	copied := *conversation
	return &copied, nil
}

// Conversations implements Store.
func (m *Memory) Conversations(ctx context.Context, userID string) ([]*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conversations := make([]*Conversation, 0)
	for _, conversation := range m.conversations {
		if conversation.UserID != userID {
			continue
		}
		copied := *conversation
		conversations = append(conversations, &copied)
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

// AppendMessage implements Store.
func (m *Memory) AppendMessage(ctx context.Context, conversationID string, role currents.Role, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conversation, ok := m.conversations[conversationID]
	if !ok {
		return "", ErrNotFound
	}

	now := m.clock.Now()
	message := &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}
	m.messages[conversationID] = append(m.messages[conversationID], message)
	conversation.UpdatedAt = now

	return message.ID, nil
}

// Messages implements Store.
func (m *Memory) Messages(ctx context.Context, conversationID string) ([]*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.conversations[conversationID]; !ok {
		return nil, ErrNotFound
	}

	stored := m.messages[conversationID]
	messages := make([]*Message, 0, len(stored))
	for _, message := range stored {
		copied := *message
		messages = append(messages, &copied)
	}
	return messages, nil
}

// History implements currents.ConversationStore. A limit of zero or
// less returns the full transcript.
func (m *Memory) History(ctx context.Context, conversationID string, limit int) ([]currents.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.conversations[conversationID]; !ok {
		return nil, ErrNotFound
	}

	stored := m.messages[conversationID]
	if limit > 0 && len(stored) > limit {
		stored = stored[len(stored)-limit:]
	}

	history := make([]currents.Message, 0, len(stored))
	for _, message := range stored {
		history = append(history, currents.Message{Role: message.Role, Content: message.Content})
	}
	return history, nil
}

// Close implements Store. It is a no-op for the in-memory backend.
func (m *Memory) Close() error {
	return nil
}
