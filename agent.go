package currents

import (
	"context"
	"log/slog"

	"github.com/currentslabs/currents/metrics"
)

// genericErrorMessage is the only error text consumers ever see. The
// underlying cause is logged, not emitted, so upstream error bodies and
// stack traces never leak through the event stream.
const genericErrorMessage = "agent processing failed"

// ConversationStore is the storage collaborator boundary the agent
// needs: a bounded history window and an append that returns the
// storage-assigned message ID. The store package implements it.
type ConversationStore interface {
	// History returns up to limit most recent turns of the
	// conversation, oldest to newest.
	History(ctx context.Context, conversationID string, limit int) ([]Message, error)

	// AppendMessage persists one turn and returns its assigned ID.
	AppendMessage(ctx context.Context, conversationID string, role Role, content string) (string, error)
}

// Agent ties the pieces together for one inbound operation: process a
// user message within a conversation. It fetches the history window,
// persists the user turn, runs the loop, persists the answer, and owns
// the terminal event of the stream.
type Agent struct {
	loop    *Loop
	builder *ContextBuilder
	store   ConversationStore
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewAgent creates an Agent from its collaborators.
func NewAgent(loop *Loop, builder *ContextBuilder, store ConversationStore) *Agent {
	return &Agent{
		loop:    loop,
		builder: builder,
		store:   store,
		logger:  slog.Default(),
	}
}

// WithLogger sets the agent's logger.
func (a *Agent) WithLogger(logger *slog.Logger) *Agent {
	a.logger = logger
	return a
}

// WithMetrics sets the sink for loop outcome and token usage metrics.
// A nil sink disables recording.
func (a *Agent) WithMetrics(m *metrics.Metrics) *Agent {
	a.metrics = m
	return a
}

// Respond processes one user message and returns the event stream the
// execution reports on. The stream terminates with exactly one done or
// error event unless the consumer cancels first. Cancelling the stream
// or ctx abandons the execution.
func (a *Agent) Respond(ctx context.Context, conversationID, userText string) *EventStream {
	events := newEventStream()
	go a.respond(ctx, conversationID, userText, events)
	return events
}

func (a *Agent) respond(ctx context.Context, conversationID, userText string, events *EventStream) {
	logger := a.logger.With("conversation_id", conversationID)

	history, err := a.store.History(ctx, conversationID, a.builder.window)
	if err != nil {
		a.fail(logger, events, "fetch history", err)
		return
	}

	// The user turn is persisted before the loop starts, so it is part
	// of the record even when the execution fails or is abandoned.
	if _, err := a.store.AppendMessage(ctx, conversationID, RoleUser, userText); err != nil {
		a.fail(logger, events, "persist user message", err)
		return
	}

	messages := a.builder.Build(history, userText)
	result, err := a.loop.Run(ctx, messages, events)
	if err != nil {
		if events.Cancelled() {
			logger.Info("run abandoned by consumer", "error", err)
			a.metrics.RecordLoopOutcome("cancelled")
			return
		}
		a.fail(logger, events, "run loop", err)
		return
	}

	messageID, err := a.store.AppendMessage(ctx, conversationID, RoleAssistant, result.Answer)
	if err != nil {
		a.fail(logger, events, "persist assistant message", err)
		return
	}

	logger.Info("run complete",
		"message_id", messageID,
		"iterations", result.Stats.Iterations,
		"tool_calls", result.Stats.ToolCalls,
		"tool_errors", result.Stats.ToolErrors,
		"input_tokens", result.Stats.InputTokens,
		"output_tokens", result.Stats.OutputTokens,
		"duration", result.Stats.Duration)

	a.metrics.RecordLoopOutcome("done")
	a.metrics.ObserveLoopIterations(result.Stats.Iterations)
	a.metrics.AddLLMTokens(result.Stats.InputTokens, result.Stats.OutputTokens)

	events.send(DoneEvent{MessageID: messageID})
}

// fail logs the detailed cause and emits the generic terminal error.
func (a *Agent) fail(logger *slog.Logger, events *EventStream, step string, err error) {
	logger.Error("run failed", "step", step, "error", err)
	a.metrics.RecordLoopOutcome("error")
	events.send(ErrorEvent{Message: genericErrorMessage})
}
