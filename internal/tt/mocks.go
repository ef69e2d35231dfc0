// Package tt provides test doubles shared by package tests.
package tt

import (
	"context"
	"sync"

	"github.com/currentslabs/currents"
)

// -----------------------------------------------------------------------------
// MockClient - implements currents.CompletionClient with scripted responses
// -----------------------------------------------------------------------------

// MockClient is a configurable CompletionClient. Responses and errors
// are consumed in queue order across Complete and StreamComplete;
// StreamComplete chunks the scripted content through the token callback
// before returning it. Safe for concurrent use.
type MockClient struct {
	mu        sync.Mutex
	responses []*currents.Completion
	errors    []error
	calls     int
	captured  [][]currents.Message
}

// NewMockClient creates an empty MockClient. Calls past the end of the
// queue return a plain final answer.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// AddResponse queues a response with the given content and token counts.
func (m *MockClient) AddResponse(content string, inputTokens, outputTokens int) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, &currents.Completion{
		Content: content,
		Info:    &currents.GenerationInfo{InputTokens: inputTokens, OutputTokens: outputTokens},
	})
	return m
}

// AddError queues an error for the call at this queue position.
func (m *MockClient) AddError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.responses) <= len(m.errors) {
		m.responses = append(m.responses, nil)
	}
	m.errors = append(m.errors, err)
	return m
}

// CallCount returns the number of completion calls made, streaming
// included.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Captured returns the transcript passed to each call, in call order.
func (m *MockClient) Captured() [][]currents.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]currents.Message, len(m.captured))
	copy(out, m.captured)
	return out
}

func (m *MockClient) next(messages []currents.Message) (*currents.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.calls
	m.calls++
	m.captured = append(m.captured, messages)

	if idx < len(m.errors) && m.errors[idx] != nil {
		return nil, m.errors[idx]
	}
	if idx < len(m.responses) && m.responses[idx] != nil {
		return m.responses[idx], nil
	}
	return &currents.Completion{
		Content: "I have nothing further to add.",
		Info:    &currents.GenerationInfo{InputTokens: 10, OutputTokens: 5},
	}, nil
}

// Complete implements currents.CompletionClient.
func (m *MockClient) Complete(ctx context.Context, messages []currents.Message) (*currents.Completion, error) {
	return m.next(messages)
}

// StreamComplete implements currents.CompletionClient.
func (m *MockClient) StreamComplete(ctx context.Context, messages []currents.Message, onToken func(string) error) (*currents.Completion, error) {
	completion, err := m.next(messages)
	if err != nil {
		return nil, err
	}
	for _, token := range SplitTokens(completion.Content) {
		if err := onToken(token); err != nil {
			return nil, err
		}
	}
	return completion, nil
}

var _ currents.CompletionClient = (*MockClient)(nil)

// SplitTokens cuts text after each run of spaces, approximating how a
// provider chunks a streamed answer.
func SplitTokens(s string) []string {
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
// MockTool - implements currents.Tool with a fixed or scripted result
// -----------------------------------------------------------------------------

// MockTool is a configurable Tool that records the inputs it was
// invoked with.
type MockTool struct {
	name        string
	description string
	fn          func(ctx context.Context, input string) (string, error)

	mu     sync.Mutex
	inputs []string
}

// NewMockTool creates a tool that always returns output.
func NewMockTool(name, output string) *MockTool {
	return &MockTool{
		name:        name,
		description: "mock tool " + name,
		fn: func(context.Context, string) (string, error) {
			return output, nil
		},
	}
}

// WithFunc replaces the tool body.
func (t *MockTool) WithFunc(fn func(ctx context.Context, input string) (string, error)) *MockTool {
	t.fn = fn
	return t
}

// WithError makes every invocation fail with err.
func (t *MockTool) WithError(err error) *MockTool {
	t.fn = func(context.Context, string) (string, error) {
		return "", err
	}
	return t
}

// Inputs returns the inputs passed to each invocation, in call order.
func (t *MockTool) Inputs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.inputs))
	copy(out, t.inputs)
	return out
}

// Name implements currents.Tool.
func (t *MockTool) Name() string { return t.name }

// Description implements currents.Tool.
func (t *MockTool) Description() string { return t.description }

// Invoke implements currents.Tool.
func (t *MockTool) Invoke(ctx context.Context, input string) (string, error) {
	t.mu.Lock()
	t.inputs = append(t.inputs, input)
	t.mu.Unlock()
	return t.fn(ctx, input)
}

var _ currents.Tool = (*MockTool)(nil)
