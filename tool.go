package currents

import (
	"context"
	"fmt"
	"time"

	"github.com/currentslabs/currents/metrics"
)

// DefaultToolTimeout bounds a single tool invocation unless the
// registry is configured with a different budget.
const DefaultToolTimeout = 10 * time.Second

// Tool represents a single callable capability: text in, text out.
//
// Responsibility design:
//   - Tool: accept textual input, execute logic, return raw output
//   - Registry: own the closed name-to-tool mapping; dispatch with a
//     time budget, emit activity events, normalize outcomes
//
// Tools focus on their upstream call only. Timeouts, panics, and
// failure conversion are handled by the Registry, so a tool may simply
// return whatever error its transport produced.
type Tool interface {
	// Name returns the tool's identifier used in action markers.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// Invoke executes the tool with the given input. The input may be
	// empty, signifying a parameterless call.
	Invoke(ctx context.Context, input string) (string, error)
}

// ToolFunc is a convenience type for creating tools from functions.
type ToolFunc struct {
	name        string
	description string
	fn          func(ctx context.Context, input string) (string, error)
}

// NewToolFunc creates a Tool from a function.
func NewToolFunc(name, description string, fn func(ctx context.Context, input string) (string, error)) *ToolFunc {
	return &ToolFunc{
		name:        name,
		description: description,
		fn:          fn,
	}
}

// Name returns the tool's identifier.
func (t *ToolFunc) Name() string {
	return t.name
}

// Description returns a human-readable description for the model.
func (t *ToolFunc) Description() string {
	return t.description
}

// Invoke executes the tool function with the given input.
func (t *ToolFunc) Invoke(ctx context.Context, input string) (string, error) {
	return t.fn(ctx, input)
}

// Compile-time check that ToolFunc implements Tool.
var _ Tool = (*ToolFunc)(nil)

// ToolResult is the normalized outcome of one tool invocation.
// Immutable after creation; the loop folds it into the transcript and
// the dispatcher reports it through the event stream.
type ToolResult struct {
	Tool      string
	Output    string
	Succeeded bool

	// Error describes the failure. Set only when Succeeded is false.
	Error string

	Duration time.Duration
}

// Registry maps tool names to capabilities. The mapping is closed:
// every tool is registered during startup, before the first dispatch,
// and an unknown name at runtime is handled as a failed invocation
// rather than a crash. Register is not safe for concurrent use;
// dispatching is.
type Registry struct {
	tools          map[string]Tool
	order          []string
	defaultTimeout time.Duration
	timeouts       map[string]time.Duration
	metrics        *metrics.Metrics
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDefaultTimeout sets the invocation time budget used for tools
// without a specific budget of their own.
func WithDefaultTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.defaultTimeout = d
	}
}

// WithToolTimeout sets a distinct invocation time budget for one tool.
func WithToolTimeout(name string, d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.timeouts[name] = d
	}
}

// WithToolMetrics sets the sink for tool invocation metrics. A nil
// sink disables recording.
func WithToolMetrics(m *metrics.Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tools:          make(map[string]Tool),
		timeouts:       make(map[string]time.Duration),
		defaultTimeout: DefaultToolTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool to the registry. An empty name or a name that is
// already taken is a configuration error.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if name == "" {
		return fmt.Errorf("register tool: empty name")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("register tool: %q already registered", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Has reports whether name is registered. Matching is exact.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Timeout returns the invocation time budget for name.
func (r *Registry) Timeout(name string) time.Duration {
	if d, ok := r.timeouts[name]; ok {
		return d
	}
	return r.defaultTimeout
}

// Dispatch executes the named tool under its time budget and
// normalizes the outcome. It never returns an error: an unknown name,
// a tool error, a timeout, and a panicking tool all come back as a
// failed ToolResult. Exactly one started activity event is emitted
// before invocation and exactly one completed or failed event after.
func (r *Registry) Dispatch(ctx context.Context, req ActionRequest, events *EventStream) ToolResult {
	events.send(ToolActivityEvent{Tool: req.Tool, Phase: ToolStarted})

	tool, ok := r.tools[req.Tool]
	if !ok {
		// Unreachable through the parser, which drops unregistered
		// names, but dispatch must hold its contract regardless.
		errText := fmt.Sprintf("unknown tool: %s", req.Tool)
		events.send(ToolActivityEvent{Tool: req.Tool, Phase: ToolFailed, Err: errText})
		r.metrics.RecordToolInvocation(req.Tool, string(ToolFailed), 0)
		return ToolResult{Tool: req.Tool, Error: errText}
	}

	start := time.Now()
	output, err := r.invoke(ctx, tool, req.Input)
	duration := time.Since(start)

	if err != nil {
		events.send(ToolActivityEvent{Tool: req.Tool, Phase: ToolFailed, Err: err.Error()})
		r.metrics.RecordToolInvocation(req.Tool, string(ToolFailed), duration.Seconds())
		return ToolResult{Tool: req.Tool, Error: err.Error(), Duration: duration}
	}

	events.send(ToolActivityEvent{Tool: req.Tool, Phase: ToolCompleted})
	r.metrics.RecordToolInvocation(req.Tool, string(ToolCompleted), duration.Seconds())
	return ToolResult{Tool: req.Tool, Output: output, Succeeded: true, Duration: duration}
}

// invoke runs the tool in its own goroutine so a tool that ignores
// context cancellation cannot hold the loop past its budget.
func (r *Registry) invoke(parent context.Context, tool Tool, input string) (string, error) {
	ctx, cancel := context.WithTimeout(parent, r.Timeout(tool.Name()))
	defer cancel()

	type outcome struct {
		output string
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("tool panicked: %v", rec)}
			}
		}()
		output, err := tool.Invoke(ctx, input)
		done <- outcome{output: output, err: err}
	}()

	select {
	case o := <-done:
		return o.output, o.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
