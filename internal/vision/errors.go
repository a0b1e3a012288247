package vision

import "fmt"

// ParseError reports a model response that could not be turned into
// a valid decision. Callers treat it as a recoverable per-attempt
// failure rather than a fatal condition.
type ParseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vision: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("vision: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }
