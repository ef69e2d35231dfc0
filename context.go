package currents

// DefaultHistoryWindow is the number of prior conversation turns
// included in a built context unless configured otherwise.
const DefaultHistoryWindow = 10

// ContextBuilder assembles the message list fed to the completion
// client at loop start: a fixed system instruction, a bounded window of
// prior conversation turns (oldest to newest), and the new user
// message. The prior turns are read-only here; how they were persisted
// and fetched is the storage collaborator's concern.
type ContextBuilder struct {
	system string
	window int
}

// NewContextBuilder creates a builder with the given system
// instruction and the default history window.
func NewContextBuilder(system string) *ContextBuilder {
	return &ContextBuilder{
		system: system,
		window: DefaultHistoryWindow,
	}
}

// WithWindow sets the maximum number of prior turns included. Zero
// means no history is carried over.
func (b *ContextBuilder) WithWindow(n int) *ContextBuilder {
	if n < 0 {
		n = 0
	}
	b.window = n
	return b
}

// Build returns the initial messages for one loop execution. The
// result is a fresh slice; callers may append to it freely.
func (b *ContextBuilder) Build(history []Message, userText string) []Message {
	if len(history) > b.window {
		history = history[len(history)-b.window:]
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: b.system})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: RoleUser, Content: userText})
	return messages
}
