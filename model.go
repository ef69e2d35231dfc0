package currents

import "context"

// CompletionClient is the model interface the loop runs against. It
// abstracts the underlying provider behind plain transcript messages so
// the loop never deals with provider message formats or option types.
type CompletionClient interface {
	// Complete generates a full response for the given messages and
	// returns it once the provider has finished.
	Complete(ctx context.Context, messages []Message) (*Completion, error)

	// StreamComplete generates a response for the given messages,
	// invoking onToken for each content fragment as it arrives. The
	// accumulated response is returned when the stream ends. Returning
	// an error from onToken aborts the generation and propagates that
	// error.
	StreamComplete(ctx context.Context, messages []Message, onToken func(token string) error) (*Completion, error)
}

// Completion is the response from a completion call.
type Completion struct {
	// Content is the textual content of the response.
	Content string

	// Info contains generation metadata including normalized token
	// counts. May be nil when the provider reported no usage.
	Info *GenerationInfo
}

// GenerationInfo contains metadata about a generation with token counts
// normalized across providers.
type GenerationInfo struct {
	// InputTokens is the number of input/prompt tokens used.
	InputTokens int

	// OutputTokens is the number of output/completion tokens generated.
	OutputTokens int
}
