package currents

import "time"

// Stats summarizes one loop execution. The loop populates it as it
// runs and returns it on the Result.
type Stats struct {
	// Iterations is the number of completed acting cycles, i.e. tool
	// invocations the loop performed before finalizing. Never exceeds
	// the configured maximum.
	Iterations int

	// ToolCalls counts dispatched tool invocations; ToolErrors counts
	// the subset that failed.
	ToolCalls  int
	ToolErrors int

	// InputTokens and OutputTokens aggregate provider-reported usage
	// across every completion call of the execution, including the
	// final streamed turn. Zero when the provider reports no usage.
	InputTokens  int
	OutputTokens int

	// Duration is the wall-clock time from loop start until the final
	// answer finished streaming.
	Duration time.Duration
}

// addUsage folds provider-reported token usage into the totals.
func (s *Stats) addUsage(info *GenerationInfo) {
	if info == nil {
		return
	}
	s.InputTokens += info.InputTokens
	s.OutputTokens += info.OutputTokens
}
