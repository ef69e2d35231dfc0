package currents

import (
	"regexp"
	"strings"
)

// Action marker patterns the model is prompted to emit. Marker matching
// is case-insensitive; the input runs to the end of its line.
var (
	actionPattern = regexp.MustCompile(`(?i)ACTION:\s*(\w+)`)
	inputPattern  = regexp.MustCompile(`(?is)INPUT:\s*(.+?)(?:\n|$)`)
)

// ParseAction extracts a tool invocation request from a model response.
// It reports false when the response carries no ACTION marker, or names
// a tool that is not registered. Both cases mean the response stands as
// the final answer; a malformed or unknown action never fails the run.
//
// The captured tool name must match a registered name exactly. The
// input is optional and arrives trimmed of surrounding whitespace.
func ParseAction(text string, tools *Registry) (ActionRequest, bool) {
	m := actionPattern.FindStringSubmatch(text)
	if m == nil {
		return ActionRequest{}, false
	}
	name := m[1]
	if !tools.Has(name) {
		return ActionRequest{}, false
	}

	var input string
	if im := inputPattern.FindStringSubmatch(text); im != nil {
		input = strings.TrimSpace(im[1])
	}
	return ActionRequest{Tool: name, Input: input}, true
}
