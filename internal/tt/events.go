package tt

import (
	"strings"

	"github.com/currentslabs/currents"
)

// -----------------------------------------------------------------------------
// Event collection helpers
// -----------------------------------------------------------------------------

// CollectEvents drains the stream until it closes and returns every
// event in arrival order.
func CollectEvents(s *currents.EventStream) []currents.Event {
	var events []currents.Event
	for ev := range s.Events() {
		events = append(events, ev)
	}
	return events
}

// TokenText concatenates the payloads of all token events.
func TokenText(events []currents.Event) string {
	var b strings.Builder
	for _, ev := range events {
		if tok, ok := ev.(currents.TokenEvent); ok {
			b.WriteString(tok.Token)
		}
	}
	return b.String()
}

// ToolActivities returns the tool activity events in arrival order.
func ToolActivities(events []currents.Event) []currents.ToolActivityEvent {
	var out []currents.ToolActivityEvent
	for _, ev := range events {
		if ta, ok := ev.(currents.ToolActivityEvent); ok {
			out = append(out, ta)
		}
	}
	return out
}
