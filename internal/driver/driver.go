// File: internal/driver/driver.go
package driver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/voidreach/screenpilot/api/schemas"
)

// Geometry is the screen size in pixels, captured once at driver
// initialization. It is not refreshed if the display configuration changes
// mid-session; that staleness is a documented limitation.
type Geometry struct {
	Width  int
	Height int
}

// Button identifies a pointer button.
type Button string

const (
	ButtonLeft  Button = "left"
	ButtonRight Button = "right"
)

// MouseEventType is the low-level pointer event kind the executor dispatches.
type MouseEventType string

const (
	MouseMoved    MouseEventType = "moved"
	MousePressed  MouseEventType = "pressed"
	MouseReleased MouseEventType = "released"
)

// MouseEvent is a single pointer event in absolute screen coordinates.
type MouseEvent struct {
	Type       MouseEventType
	Coordinate schemas.Coordinate
	Button     Button
	ClickCount int
}

// Executor defines the contract for the underlying input transport, allowing
// for mocking during tests. Production implementations drive either the native
// desktop or a DevTools-protocol surface.
type Executor interface {
	// DispatchMouse sends one raw pointer event.
	DispatchMouse(ctx context.Context, ev MouseEvent) error

	// InsertText types the given text into whatever currently has focus.
	InsertText(ctx context.Context, text string) error

	// ScreenSize reports the current display dimensions in pixels.
	ScreenSize(ctx context.Context) (Geometry, error)
}

// Driver issues pointer and keyboard primitives against absolute screen
// coordinates. It validates every coordinate against the geometry cached at
// construction and refuses out-of-bounds input instead of clamping.
//
// The driver provides no concurrent-call safety of its own: two sessions
// driving one physical desktop must be serialized by the hosting system.
type Driver struct {
	exec   Executor
	geom   Geometry
	logger *zap.Logger
}

// New constructs a Driver, querying and caching the screen geometry once.
func New(ctx context.Context, exec Executor, logger *zap.Logger) (*Driver, error) {
	geom, err := exec.ScreenSize(ctx)
	if err != nil {
		return nil, fmt.Errorf("query screen geometry: %w", err)
	}
	if geom.Width <= 0 || geom.Height <= 0 {
		return nil, fmt.Errorf("executor reported degenerate screen geometry %dx%d", geom.Width, geom.Height)
	}
	l := logger.Named("driver")
	l.Info("input driver initialized",
		zap.Int("screen_width", geom.Width),
		zap.Int("screen_height", geom.Height))
	return &Driver{exec: exec, geom: geom, logger: l}, nil
}

// ScreenGeometry returns the geometry cached at initialization.
func (d *Driver) ScreenGeometry() Geometry {
	return d.geom
}

func (d *Driver) validate(c schemas.Coordinate) error {
	if c.X < 0 || c.Y < 0 || c.X >= d.geom.Width || c.Y >= d.geom.Height {
		return &OutOfBoundsError{Coordinate: c, Geometry: d.geom}
	}
	return nil
}

// MoveTo moves the pointer to the given coordinate.
func (d *Driver) MoveTo(ctx context.Context, c schemas.Coordinate) error {
	if err := d.validate(c); err != nil {
		return err
	}
	return d.exec.DispatchMouse(ctx, MouseEvent{Type: MouseMoved, Coordinate: c})
}

// Click moves the pointer to the coordinate, then presses and releases the
// given button. Move completes before press; there is no suspension point
// between press and release.
func (d *Driver) Click(ctx context.Context, c schemas.Coordinate, button Button) error {
	if err := d.validate(c); err != nil {
		return err
	}
	return d.pressRelease(ctx, c, button, 1)
}

// DoubleClick performs two press/release pairs at the coordinate, the second
// carrying click count 2 so DevTools-protocol surfaces register it natively.
func (d *Driver) DoubleClick(ctx context.Context, c schemas.Coordinate) error {
	if err := d.validate(c); err != nil {
		return err
	}
	if err := d.pressRelease(ctx, c, ButtonLeft, 1); err != nil {
		return err
	}
	press := MouseEvent{Type: MousePressed, Coordinate: c, Button: ButtonLeft, ClickCount: 2}
	if err := d.exec.DispatchMouse(ctx, press); err != nil {
		return fmt.Errorf("double-click press: %w", err)
	}
	release := press
	release.Type = MouseReleased
	if err := d.exec.DispatchMouse(ctx, release); err != nil {
		return fmt.Errorf("double-click release: %w", err)
	}
	return nil
}

// Drag presses at from, moves to to, and releases at to. No intermediate
// waypoints: callers needing curved drags issue their own moves first.
func (d *Driver) Drag(ctx context.Context, from, to schemas.Coordinate) error {
	if err := d.validate(from); err != nil {
		return err
	}
	if err := d.validate(to); err != nil {
		return err
	}
	if err := d.exec.DispatchMouse(ctx, MouseEvent{Type: MouseMoved, Coordinate: from}); err != nil {
		return fmt.Errorf("drag move to origin: %w", err)
	}
	if err := d.exec.DispatchMouse(ctx, MouseEvent{Type: MousePressed, Coordinate: from, Button: ButtonLeft, ClickCount: 1}); err != nil {
		return fmt.Errorf("drag press: %w", err)
	}
	if err := d.exec.DispatchMouse(ctx, MouseEvent{Type: MouseMoved, Coordinate: to, Button: ButtonLeft}); err != nil {
		return fmt.Errorf("drag move to target: %w", err)
	}
	if err := d.exec.DispatchMouse(ctx, MouseEvent{Type: MouseReleased, Coordinate: to, Button: ButtonLeft, ClickCount: 1}); err != nil {
		return fmt.Errorf("drag release: %w", err)
	}
	return nil
}

// TypeText types the given text into the currently focused element.
func (d *Driver) TypeText(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	return d.exec.InsertText(ctx, text)
}

func (d *Driver) pressRelease(ctx context.Context, c schemas.Coordinate, button Button, count int) error {
	if err := d.exec.DispatchMouse(ctx, MouseEvent{Type: MouseMoved, Coordinate: c}); err != nil {
		return fmt.Errorf("click move: %w", err)
	}
	press := MouseEvent{Type: MousePressed, Coordinate: c, Button: button, ClickCount: count}
	if err := d.exec.DispatchMouse(ctx, press); err != nil {
		return fmt.Errorf("click press: %w", err)
	}
	release := press
	release.Type = MouseReleased
	if err := d.exec.DispatchMouse(ctx, release); err != nil {
		return fmt.Errorf("click release: %w", err)
	}
	d.logger.Debug("click dispatched",
		zap.Int("x", c.X), zap.Int("y", c.Y), zap.String("button", string(button)))
	return nil
}
