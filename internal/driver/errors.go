// File: internal/driver/errors.go
package driver

import (
	"fmt"

	"github.com/voidreach/screenpilot/api/schemas"
)

// OutOfBoundsError reports a coordinate outside the cached screen geometry.
// The driver never clamps: clamping would mask drift bugs from DPI scaling
// or multi-monitor offsets, so the caller must be told instead.
type OutOfBoundsError struct {
	Coordinate schemas.Coordinate
	Geometry   Geometry
}

// Error implements the error interface.
func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("coordinate (%d,%d) is outside screen geometry %dx%d",
		e.Coordinate.X, e.Coordinate.Y, e.Geometry.Width, e.Geometry.Height)
}
