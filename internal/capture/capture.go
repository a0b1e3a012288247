// File: internal/capture/capture.go
package capture

import (
	"context"
	"fmt"
	"time"
)

// Shot is one screen capture: an exact snapshot at call time. Captures are
// never cached; every Capture call re-captures.
type Shot struct {
	PNG     []byte
	TakenAt time.Time
}

// Capturer produces a timestamped image of the current display state.
type Capturer interface {
	Capture(ctx context.Context) (Shot, error)
}

// IOError reports a capture read/write failure (disk full, permission).
// The control loop treats it as a retryable condition, not fatal to the
// session.
type IOError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("screen capture i/o failure: %v", e.Err)
	}
	return fmt.Sprintf("screen capture i/o failure at %s: %v", e.Path, e.Err)
}

// Unwrap provides the underlying error for use with errors.Is/As.
func (e *IOError) Unwrap() error {
	return e.Err
}
