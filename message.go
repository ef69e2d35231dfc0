package currents

// Role identifies who produced a message in a conversation transcript.
type Role string

const (
	// RoleSystem is the instruction prompt placed at the start of every
	// model context.
	RoleSystem Role = "system"

	// RoleUser is a message authored by the human end of the
	// conversation.
	RoleUser Role = "user"

	// RoleAssistant is a message authored by the model, including the
	// intermediate reasoning turns that request tool use.
	RoleAssistant Role = "assistant"

	// RoleToolResult carries the output of a tool invocation back into
	// the model context. Providers that have no native slot for tool
	// output send these as user-role messages.
	RoleToolResult Role = "tool_result"
)

// Message is a single entry in a model context or conversation history.
type Message struct {
	Role    Role
	Content string
}

// ActionRequest is a tool invocation the model asked for, extracted
// from its free-text response.
type ActionRequest struct {
	// Tool is the registered tool name, matched exactly.
	Tool string

	// Input is the raw input string for the tool. May be empty when the
	// model supplied an ACTION line without an INPUT line.
	Input string
}
