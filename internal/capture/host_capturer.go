// File: internal/capture/host_capturer.go
package capture

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HostCapturer snapshots the native macOS display via the screencapture tool.
// Screen-recording permission is assumed to be granted already.
type HostCapturer struct {
	run    func(ctx context.Context, name string, args ...string) ([]byte, error)
	logger *zap.Logger
}

// NewHostCapturer builds the native-display capturer.
func NewHostCapturer(logger *zap.Logger) *HostCapturer {
	return &HostCapturer{
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
		logger: logger.Named("host_capturer"),
	}
}

func (c *HostCapturer) Capture(ctx context.Context) (Shot, error) {
	// screencapture writes to a file only, so route through a scratch path.
	scratch := filepath.Join(os.TempDir(), fmt.Sprintf("screenpilot-cap-%s.png", uuid.NewString()[:8]))
	defer os.Remove(scratch)

	takenAt := time.Now()
	out, err := c.run(ctx, "screencapture", "-x", "-t", "png", scratch)
	if err != nil {
		return Shot{}, &IOError{Path: scratch,
			Err: fmt.Errorf("screencapture: %w (output: %s)", err, strings.TrimSpace(string(out)))}
	}

	png, err := os.ReadFile(scratch)
	if err != nil {
		return Shot{}, &IOError{Path: scratch, Err: err}
	}
	return Shot{PNG: png, TakenAt: takenAt}, nil
}
