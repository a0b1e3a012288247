// File: internal/driver/host_executor.go
package driver

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// commandRunner executes one host command and returns combined output.
// Injectable so tests never touch the real desktop.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runHostCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// HostExecutor drives the native macOS desktop through the cliclick and
// osascript automation tools. Accessibility permissions are assumed to be
// granted already.
type HostExecutor struct {
	run    commandRunner
	logger *zap.Logger
}

// NewHostExecutor builds the native-desktop executor.
func NewHostExecutor(logger *zap.Logger) *HostExecutor {
	return &HostExecutor{run: runHostCommand, logger: logger.Named("host_executor")}
}

func (e *HostExecutor) DispatchMouse(ctx context.Context, ev MouseEvent) error {
	var spec string
	switch ev.Type {
	case MouseMoved:
		spec = fmt.Sprintf("m:%d,%d", ev.Coordinate.X, ev.Coordinate.Y)
	case MousePressed:
		if ev.Button == ButtonRight {
			// cliclick exposes no raw right-button down/up pair.
			return fmt.Errorf("host backend does not support raw right-button events")
		}
		spec = fmt.Sprintf("dd:%d,%d", ev.Coordinate.X, ev.Coordinate.Y)
	case MouseReleased:
		if ev.Button == ButtonRight {
			return fmt.Errorf("host backend does not support raw right-button events")
		}
		spec = fmt.Sprintf("du:%d,%d", ev.Coordinate.X, ev.Coordinate.Y)
	default:
		return fmt.Errorf("unknown mouse event type %q", ev.Type)
	}

	out, err := e.run(ctx, "cliclick", spec)
	if err != nil {
		return fmt.Errorf("cliclick %s: %w (output: %s)", spec, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (e *HostExecutor) InsertText(ctx context.Context, text string) error {
	out, err := e.run(ctx, "cliclick", "t:"+text)
	if err != nil {
		return fmt.Errorf("cliclick type: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// ScreenSize asks Finder for the desktop bounds. The reply has the form
// "0, 0, 1920, 1080".
func (e *HostExecutor) ScreenSize(ctx context.Context) (Geometry, error) {
	out, err := e.run(ctx, "osascript", "-e",
		`tell application "Finder" to get bounds of window of desktop`)
	if err != nil {
		return Geometry{}, fmt.Errorf("query desktop bounds: %w", err)
	}
	return parseDesktopBounds(string(out))
}

func parseDesktopBounds(raw string) (Geometry, error) {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	if len(parts) != 4 {
		return Geometry{}, fmt.Errorf("unexpected desktop bounds reply %q", strings.TrimSpace(raw))
	}
	width, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return Geometry{}, fmt.Errorf("parse desktop width from %q: %w", raw, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[3]))
	if err != nil {
		return Geometry{}, fmt.Errorf("parse desktop height from %q: %w", raw, err)
	}
	return Geometry{Width: width, Height: height}, nil
}
