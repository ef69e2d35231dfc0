package currents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/currentslabs/currents/metrics"
)

// Default loop bounds.
const (
	DefaultMaxIterations = 10
	DefaultLoopTimeout   = 30 * time.Second
)

// errStreamCancelled aborts the final completion stream once the
// consumer has abandoned the event stream.
var errStreamCancelled = errors.New("event stream cancelled by consumer")

// LoopState is the explicit state of one loop execution: the iteration
// count, the accumulated transcript, when the execution started, and
// the final answer once set. Values are immutable; every transition
// returns a successor state with the change applied, so steps never
// observe a half-updated predecessor and nothing is shared across
// concurrent executions.
type LoopState struct {
	Iteration   int
	Messages    []Message
	StartedAt   time.Time
	FinalAnswer string
}

// newLoopState creates the initial state for a prepared transcript.
func newLoopState(messages []Message, now time.Time) LoopState {
	return LoopState{Messages: messages, StartedAt: now}
}

// withAssistant returns a successor state with the completion text
// appended as an assistant message.
func (s LoopState) withAssistant(text string) LoopState {
	next := s
	next.Messages = appendMessage(s.Messages, Message{Role: RoleAssistant, Content: text})
	return next
}

// withToolResult returns a successor state with the folded tool result
// appended and the iteration count advanced.
func (s LoopState) withToolResult(text string) LoopState {
	next := s
	next.Messages = appendMessage(s.Messages, Message{Role: RoleToolResult, Content: text})
	next.Iteration = s.Iteration + 1
	return next
}

// withFinalAnswer returns the terminal state carrying the answer.
func (s LoopState) withFinalAnswer(text string) LoopState {
	next := s
	next.FinalAnswer = text
	return next
}

// appendMessage copies before appending so sibling states never share
// a backing array.
func appendMessage(messages []Message, m Message) []Message {
	out := make([]Message, len(messages), len(messages)+1)
	copy(out, messages)
	return append(out, m)
}

// Result is the outcome of a loop execution that produced an answer.
type Result struct {
	// Answer is the final answer text as streamed to the consumer.
	Answer string

	// Messages is the transcript the final completion consumed,
	// including intermediate assistant turns and folded tool results.
	Messages []Message

	// Stats summarizes the execution.
	Stats Stats
}

// Loop drives the reasoning-and-acting cycle for one user message:
// complete, parse for an action, dispatch the tool, fold the result
// back into the transcript, repeat, then stream the final answer.
//
// Flow: Reason -> Act -> Observe -> Repeat until no action or budget
// exhausted, then Finalize with a streamed completion.
//
// A Loop holds configuration only; it is safe to share across
// concurrent executions.
type Loop struct {
	client        CompletionClient
	tools         *Registry
	maxIterations int
	timeout       time.Duration
	clock         Clock
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// NewLoop creates a Loop with the given completion client and tool
// registry and default settings.
// Defaults:
//   - MaxIterations: DefaultMaxIterations
//   - Timeout: DefaultLoopTimeout
//   - Clock: SystemClock{}
//   - Logger: slog.Default()
func NewLoop(client CompletionClient, tools *Registry) *Loop {
	return &Loop{
		client:        client,
		tools:         tools,
		maxIterations: DefaultMaxIterations,
		timeout:       DefaultLoopTimeout,
		clock:         SystemClock{},
		logger:        slog.Default(),
	}
}

// WithMaxIterations bounds the number of tool-invoking turns.
func (l *Loop) WithMaxIterations(n int) *Loop {
	if n < 0 {
		n = 0
	}
	l.maxIterations = n
	return l
}

// WithTimeout bounds the wall-clock duration of the whole execution,
// tool calls included.
func (l *Loop) WithTimeout(d time.Duration) *Loop {
	l.timeout = d
	return l
}

// WithClock sets the time source used for the wall-clock budget.
// Use this to inject a mock clock for testing.
func (l *Loop) WithClock(c Clock) *Loop {
	l.clock = c
	return l
}

// WithLogger sets the logger for loop progress.
func (l *Loop) WithLogger(logger *slog.Logger) *Loop {
	l.logger = logger
	return l
}

// WithMetrics sets the sink for streamed-token metrics. A nil sink
// disables recording.
func (l *Loop) WithMetrics(m *metrics.Metrics) *Loop {
	l.metrics = m
	return l
}

// Run executes the loop over a prepared transcript, emitting tool
// activity and token events on events, and returns the final answer.
//
// Tool failures fold into the transcript as context and never abort
// the run. Completion failures abort it with an error. Hitting the
// iteration or time budget is not an error either: the loop stops
// reasoning and finalizes with whatever context it has, so an answer
// is always produced when the completion service cooperates.
//
// Run emits token and tool activity events only. The terminal done or
// error event belongs to the caller that owns the stream.
func (l *Loop) Run(ctx context.Context, messages []Message, events *EventStream) (*Result, error) {
	state := newLoopState(messages, l.clock.Now())
	var stats Stats

	for {
		// Budget gate. Checked before every reasoning turn so that a
		// tool call which crossed a limit forces finalization without
		// spending another completion on a request that would be
		// discarded anyway.
		if exhausted, reason := l.exhausted(state); exhausted {
			l.logger.Info("loop budget exhausted, finalizing",
				"reason", reason,
				"iteration", state.Iteration,
				"elapsed", l.elapsed(state))
			break
		}

		// Reasoning turn: a full completion over the current
		// transcript, parsed for an action request.
		completion, err := l.client.Complete(ctx, state.Messages)
		if err != nil {
			return nil, fmt.Errorf("reasoning completion: %w", err)
		}
		stats.addUsage(completion.Info)

		req, hasAction := ParseAction(completion.Content, l.tools)
		if !hasAction {
			// The response is the final answer candidate. The answer
			// itself is regenerated below in streaming mode.
			break
		}
		if exhausted, reason := l.exhausted(state); exhausted {
			l.logger.Info("action requested past budget, finalizing",
				"reason", reason,
				"tool", req.Tool,
				"iteration", state.Iteration)
			break
		}

		// Acting turn: one synchronous tool call, its outcome folded
		// back into the transcript so the model can use or adapt to it.
		l.logger.Debug("dispatching tool",
			"tool", req.Tool,
			"iteration", state.Iteration)
		state = state.withAssistant(completion.Content)
		result := l.tools.Dispatch(ctx, req, events)
		stats.ToolCalls++
		if !result.Succeeded {
			stats.ToolErrors++
		}
		state = state.withToolResult(foldToolResult(result))
	}

	// Finalizing turn: re-issue the completion in streaming mode over
	// the same accumulated transcript, so the user-visible answer is
	// generated with full tool context and delivered incrementally.
	var streamed strings.Builder
	completion, err := l.client.StreamComplete(ctx, state.Messages, func(token string) error {
		if !events.send(TokenEvent{Token: token}) {
			return errStreamCancelled
		}
		l.metrics.TokenStreamed()
		streamed.WriteString(token)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("final completion: %w", err)
	}

	answer := streamed.String()
	if completion != nil {
		stats.addUsage(completion.Info)
		if completion.Content != "" {
			answer = completion.Content
		}
	}

	state = state.withFinalAnswer(answer)
	stats.Iterations = state.Iteration
	stats.Duration = l.elapsed(state)

	return &Result{
		Answer:   state.FinalAnswer,
		Messages: state.Messages,
		Stats:    stats,
	}, nil
}

// exhausted reports whether a loop budget has been spent, and which.
func (l *Loop) exhausted(state LoopState) (bool, string) {
	if state.Iteration >= l.maxIterations {
		return true, "max_iterations"
	}
	if l.elapsed(state) >= l.timeout {
		return true, "timeout"
	}
	return false, ""
}

func (l *Loop) elapsed(state LoopState) time.Duration {
	return l.clock.Now().Sub(state.StartedAt)
}

// foldToolResult renders a tool outcome as the context text the model
// sees on its next turn. Failures become adaptable context rather than
// a reason to abort.
func foldToolResult(result ToolResult) string {
	if result.Succeeded {
		return "Tool result:\n" + result.Output
	}
	return fmt.Sprintf(
		"Tool result:\n%s unavailable (API error: %s). I'll provide information based on my knowledge.",
		result.Tool, result.Error,
	)
}
