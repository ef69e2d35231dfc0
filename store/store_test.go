package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/currentslabs/currents"
)

// testStore runs the behavior suite both backends must satisfy. The
// opener receives the clock the suite advances between writes.
func testStore(t *testing.T, open func(t *testing.T, clock *currents.MockClock) Store) {
	t.Helper()

	ctx := context.Background()

	t.Run("ConversationLifecycle", func(t *testing.T) {
		clock := currents.NewMockClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
		s := open(t, clock)

		created, err := s.CreateConversation(ctx, "user-1", "First chat")
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		assert.Equal(t, "user-1", created.UserID)
		assert.Equal(t, "First chat", created.Title)
		assert.False(t, created.CreatedAt.IsZero())

		fetched, err := s.Conversation(ctx, "user-1", created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, fetched.ID)
		assert.Equal(t, "First chat", fetched.Title)

		_, err = s.Conversation(ctx, "someone-else", created.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.Conversation(ctx, "user-1", "no-such-id")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("RequiresUserID", func(t *testing.T) {
		clock := currents.NewMockClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
		s := open(t, clock)

		_, err := s.CreateConversation(ctx, "", "untitled")
		require.Error(t, err)
	})

	t.Run("ConversationsSortByRecency", func(t *testing.T) {
		clock := currents.NewMockClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
		s := open(t, clock)

		first, err := s.CreateConversation(ctx, "user-1", "older")
		require.NoError(t, err)
		clock.Advance(time.Minute)
		second, err := s.CreateConversation(ctx, "user-1", "newer")
		require.NoError(t, err)
		_, err = s.CreateConversation(ctx, "user-2", "other user")
		require.NoError(t, err)

		listed, err := s.Conversations(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, second.ID, listed[0].ID)
		assert.Equal(t, first.ID, listed[1].ID)

		// Appending to the older thread moves it to the front.
		clock.Advance(time.Minute)
		_, err = s.AppendMessage(ctx, first.ID, currents.RoleUser, "hello again")
		require.NoError(t, err)

		listed, err = s.Conversations(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, first.ID, listed[0].ID)
	})

	t.Run("AppendAndListMessages", func(t *testing.T) {
		clock := currents.NewMockClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
		s := open(t, clock)

		conversation, err := s.CreateConversation(ctx, "user-1", "chat")
		require.NoError(t, err)

		userID, err := s.AppendMessage(ctx, conversation.ID, currents.RoleUser, "hi")
		require.NoError(t, err)
		clock.Advance(time.Second)
		assistantID, err := s.AppendMessage(ctx, conversation.ID, currents.RoleAssistant, "hello")
		require.NoError(t, err)
		assert.NotEqual(t, userID, assistantID)

		messages, err := s.Messages(ctx, conversation.ID)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, currents.RoleUser, messages[0].Role)
		assert.Equal(t, "hi", messages[0].Content)
		assert.Equal(t, currents.RoleAssistant, messages[1].Role)
		assert.Equal(t, "hello", messages[1].Content)
		assert.Equal(t, conversation.ID, messages[0].ConversationID)
		assert.False(t, messages[0].CreatedAt.IsZero())
	})

	t.Run("AppendToUnknownConversation", func(t *testing.T) {
		clock := currents.NewMockClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
		s := open(t, clock)

		_, err := s.AppendMessage(ctx, "no-such-id", currents.RoleUser, "hi")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("MessagesUnknownConversation", func(t *testing.T) {
		clock := currents.NewMockClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
		s := open(t, clock)

		_, err := s.Messages(ctx, "no-such-id")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("HistoryWindow", func(t *testing.T) {
		clock := currents.NewMockClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
		s := open(t, clock)

		conversation, err := s.CreateConversation(ctx, "user-1", "long chat")
		require.NoError(t, err)

		for i := 1; i <= 25; i++ {
			role := currents.RoleUser
			if i%2 == 0 {
				role = currents.RoleAssistant
			}
			_, err := s.AppendMessage(ctx, conversation.ID, role, fmt.Sprintf("m%d", i))
			require.NoError(t, err)
			clock.Advance(time.Second)
		}

		recent, err := s.History(ctx, conversation.ID, 10)
		require.NoError(t, err)
		require.Len(t, recent, 10)
		assert.Equal(t, "m16", recent[0].Content)
		assert.Equal(t, "m25", recent[9].Content)
		assert.Equal(t, currents.RoleAssistant, recent[0].Role)

		full, err := s.History(ctx, conversation.ID, 0)
		require.NoError(t, err)
		assert.Len(t, full, 25)
		assert.Equal(t, "m1", full[0].Content)

		_, err = s.History(ctx, "no-such-id", 10)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("HistoryPreservesBurstOrder", func(t *testing.T) {
		// Messages appended within the same clock tick must still come
		// back in insertion order.
		clock := currents.NewMockClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
		s := open(t, clock)

		conversation, err := s.CreateConversation(ctx, "user-1", "burst")
		require.NoError(t, err)

		for i := 1; i <= 5; i++ {
			_, err := s.AppendMessage(ctx, conversation.ID, currents.RoleUser, fmt.Sprintf("b%d", i))
			require.NoError(t, err)
		}

		history, err := s.History(ctx, conversation.ID, 3)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, "b3", history[0].Content)
		assert.Equal(t, "b4", history[1].Content)
		assert.Equal(t, "b5", history[2].Content)
	})
}
