package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/currentslabs/currents"
)

// sseWriter writes server-sent event frames and flushes after each one
// so tokens reach the client as they are produced.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter prepares w for an event stream. The X-Accel-Buffering
// header tells reverse proxies not to buffer the response. Fails when
// the underlying writer cannot flush incrementally.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	return &sseWriter{w: w, flusher: flusher}, nil
}

// Send writes one named frame with a JSON data line.
func (s *sseWriter) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// eventFrame maps a stream event to its wire name and payload.
func eventFrame(ev currents.Event) (string, any) {
	switch e := ev.(type) {
	case currents.TokenEvent:
		return "token", map[string]string{"token": e.Token}
	case currents.ToolActivityEvent:
		payload := map[string]string{"tool": e.Tool, "status": string(e.Phase)}
		if e.Err != "" {
			payload["error"] = e.Err
		}
		return "tool_activity", payload
	case currents.DoneEvent:
		return "done", map[string]string{"message_id": e.MessageID}
	case currents.ErrorEvent:
		return "error", map[string]string{"error": e.Message}
	default:
		return "message", map[string]string{}
	}
}
