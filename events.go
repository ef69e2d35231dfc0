package currents

// Event is implemented by every event type an agent run can emit.
// Consumers receive events through EventStream.Events and switch on the
// concrete type.
type Event interface {
	streamEvent()
}

// TokenEvent carries one streamed fragment of the final answer. Token
// events are only emitted during finalization, never for intermediate
// reasoning turns.
type TokenEvent struct {
	Token string
}

// ToolPhase marks the lifecycle stage reported by a ToolActivityEvent.
type ToolPhase string

const (
	ToolStarted   ToolPhase = "started"
	ToolCompleted ToolPhase = "completed"
	ToolFailed    ToolPhase = "failed"
)

// ToolActivityEvent reports tool execution progress. Every dispatch
// emits exactly one started event followed by exactly one completed or
// failed event for the same tool.
type ToolActivityEvent struct {
	Tool  string
	Phase ToolPhase

	// Err is a short description of the failure. Set only when Phase is
	// ToolFailed.
	Err string
}

// DoneEvent is the terminal event of a successful run. After it no
// further events are emitted.
type DoneEvent struct {
	// MessageID is the storage identifier of the persisted assistant
	// message, when the run was backed by a conversation store.
	MessageID string
}

// ErrorEvent is the terminal event of a failed run. The message is a
// generic description safe to show to end users; the underlying cause
// is logged, not emitted.
type ErrorEvent struct {
	Message string
}

func (TokenEvent) streamEvent()        {}
func (ToolActivityEvent) streamEvent() {}
func (DoneEvent) streamEvent()         {}
func (ErrorEvent) streamEvent()        {}
