package tle

import "fmt"

// FormatError reports a structural problem with a TLE block: the wrong
// number of lines, or a line of the wrong length.
type FormatError struct {
	Line   int // 0-based line index, -1 for the block as a whole
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line < 0 {
		return "tle: " + e.Reason
	}
	return fmt.Sprintf("tle: line %d: %s", e.Line, e.Reason)
}

// ValidationError reports a token or value that the named field rejects,
// or a cross-field inconsistency.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tle: invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }
