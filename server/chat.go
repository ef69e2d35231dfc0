package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/currentslabs/currents/store"
)

// Validation limits for the public API.
const (
	maxTitleChars   = 255
	maxContentChars = 4096
	maxBodyBytes    = 1 << 20
)

type createConversationRequest struct {
	Title string `json:"title"`
}

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

type conversationPayload struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messagePayload struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

func conversationJSON(c *store.Conversation) conversationPayload {
	return conversationPayload{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func messageJSON(m *store.Message) messagePayload {
	return messagePayload{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           string(m.Role),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

// userID extracts the caller identity from the X-User-ID header.
func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-ID"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes the API error envelope.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req createConversationRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if n := utf8.RuneCountInString(req.Title); n < 1 || n > maxTitleChars {
		writeError(w, http.StatusBadRequest, "Title must be between 1 and 255 characters")
		return
	}

	conversation, err := s.store.CreateConversation(r.Context(), user, req.Title)
	if err != nil {
		s.logger.Error("create conversation failed", "user_id", user, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create conversation")
		return
	}
	writeJSON(w, http.StatusCreated, conversationJSON(conversation))
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	conversations, err := s.store.Conversations(r.Context(), user)
	if err != nil {
		s.logger.Error("list conversations failed", "user_id", user, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list conversations")
		return
	}

	payload := make([]conversationPayload, 0, len(conversations))
	for _, c := range conversations {
		payload = append(payload, conversationJSON(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": payload,
		"count":         len(payload),
	})
}

func (s *Server) handleConversationMessages(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id := r.PathValue("id")
	if _, err := s.store.Conversation(r.Context(), user, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		s.logger.Error("load conversation failed", "conversation_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load conversation")
		return
	}

	messages, err := s.store.Messages(r.Context(), id)
	if err != nil {
		s.logger.Error("list messages failed", "conversation_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list messages")
		return
	}

	payload := make([]messagePayload, 0, len(messages))
	for _, m := range messages {
		payload = append(payload, messageJSON(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": id,
		"messages":        payload,
		"count":           len(payload),
	})
}

// handleSendMessage validates the request, then switches the response
// to an event stream and relays agent events until the run terminates
// or the client goes away. A disconnect cancels the stream, which
// abandons the run.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req sendMessageRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.ConversationID == "" {
		writeError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}
	if n := utf8.RuneCountInString(req.Content); n < 1 || n > maxContentChars {
		writeError(w, http.StatusBadRequest, "Content must be between 1 and 4096 characters")
		return
	}

	if _, err := s.store.Conversation(r.Context(), user, req.ConversationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		s.logger.Error("load conversation failed", "conversation_id", req.ConversationID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load conversation")
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	stream := s.agent.Respond(r.Context(), req.ConversationID, req.Content)
	defer stream.Cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-stream.Events():
			if !ok {
				return
			}
			if err := sse.Send(eventFrame(ev)); err != nil {
				s.logger.Warn("event write failed", "conversation_id", req.ConversationID, "error", err)
				return
			}
		}
	}
}
