package review

import "fmt"

// UnknownCommandError is returned for an unrecognized keyword.
type UnknownCommandError struct {
	Keyword string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q (try y, c <line> <text>, g <n>, approve)", e.Keyword)
}

// InvalidCommandArgumentError is returned when a known command has bad or
// missing arguments, or cannot run in the current state.
type InvalidCommandArgumentError struct {
	Command string
	Reason  string
}

func (e *InvalidCommandArgumentError) Error() string {
	if e.Command == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

// NavigationRangeError is returned by `g n` for n outside [0, Count).
type NavigationRangeError struct {
	N     int
	Count int
}

func (e *NavigationRangeError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("g %d: no diffs to navigate", e.N)
	}
	return fmt.Sprintf("g %d: out of range, expected 0..%d", e.N, e.Count-1)
}
