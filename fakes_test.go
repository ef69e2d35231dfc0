package currents

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// mockClient - implements CompletionClient with scripted responses
// -----------------------------------------------------------------------------

// mockClient is a configurable CompletionClient. Responses and errors
// are consumed in queue order across Complete and StreamComplete;
// StreamComplete chunks the scripted content through the token
// callback before returning it.
type mockClient struct {
	responses []*Completion
	errors    []error
	calls     int

	// CapturedMessages stores the transcript passed to each call, in
	// call order, streaming calls included.
	CapturedMessages [][]Message
}

func newMockClient() *mockClient {
	return &mockClient{}
}

// AddResponse queues a response with the given content and token
// counts.
func (m *mockClient) AddResponse(content string, inputTokens, outputTokens int) *mockClient {
	m.responses = append(m.responses, &Completion{
		Content: content,
		Info:    &GenerationInfo{InputTokens: inputTokens, OutputTokens: outputTokens},
	})
	return m
}

// AddError queues an error for the call at this queue position.
func (m *mockClient) AddError(err error) *mockClient {
	for len(m.responses) <= len(m.errors) {
		m.responses = append(m.responses, nil)
	}
	m.errors = append(m.errors, err)
	return m
}

// CallCount returns the number of completion calls made, streaming
// included.
func (m *mockClient) CallCount() int {
	return m.calls
}

func (m *mockClient) next(messages []Message) (*Completion, error) {
	idx := m.calls
	m.calls++
	m.CapturedMessages = append(m.CapturedMessages, messages)

	if idx < len(m.errors) && m.errors[idx] != nil {
		return nil, m.errors[idx]
	}
	if idx < len(m.responses) && m.responses[idx] != nil {
		return m.responses[idx], nil
	}
	return &Completion{
		Content: "I have nothing further to add.",
		Info:    &GenerationInfo{InputTokens: 10, OutputTokens: 5},
	}, nil
}

// Complete implements CompletionClient.
func (m *mockClient) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	return m.next(messages)
}

// StreamComplete implements CompletionClient.
func (m *mockClient) StreamComplete(ctx context.Context, messages []Message, onToken func(string) error) (*Completion, error) {
	completion, err := m.next(messages)
	if err != nil {
		return nil, err
	}
	for _, token := range splitTokens(completion.Content) {
		if err := onToken(token); err != nil {
			return nil, err
		}
	}
	return completion, nil
}

// Compile-time check that mockClient implements CompletionClient.
var _ CompletionClient = (*mockClient)(nil)

// splitTokens cuts text after each run of spaces, approximating how a
// provider chunks a streamed answer.
func splitTokens(s string) []string {
	var tokens []string
	start := 0
	inSpace := false
	for i, r := range s {
		if r == ' ' {
			inSpace = true
		} else if inSpace {
			tokens = append(tokens, s[start:i])
			start = i
			inSpace = false
		}
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

// -----------------------------------------------------------------------------
// Event helpers
// -----------------------------------------------------------------------------

// collectEvents drains the stream until it closes and returns every
// event in arrival order.
func collectEvents(s *EventStream) []Event {
	var events []Event
	for ev := range s.Events() {
		events = append(events, ev)
	}
	return events
}

// tokenText concatenates the payloads of all token events.
func tokenText(events []Event) string {
	var b strings.Builder
	for _, ev := range events {
		if tok, ok := ev.(TokenEvent); ok {
			b.WriteString(tok.Token)
		}
	}
	return b.String()
}

// toolActivities returns the tool activity events in arrival order.
func toolActivities(events []Event) []ToolActivityEvent {
	var out []ToolActivityEvent
	for _, ev := range events {
		if ta, ok := ev.(ToolActivityEvent); ok {
			out = append(out, ta)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Transcript helpers
// -----------------------------------------------------------------------------

// transcriptText renders messages one per line for diffing.
func transcriptText(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "[%s] %s\n", m.Role, m.Content)
	}
	return b.String()
}

// assertTranscript compares two transcripts and fails with a unified
// diff when they differ.
func assertTranscript(t *testing.T, want, got []Message) {
	t.Helper()
	wantText := transcriptText(want)
	gotText := transcriptText(got)
	if wantText == gotText {
		return
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(wantText),
		B:        difflib.SplitLines(gotText),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	})
	require.NoError(t, err)
	t.Fatalf("transcript mismatch:\n%s", diff)
}
