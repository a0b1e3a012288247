// File: internal/lifecycle/mounter.go
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// commandRunner executes one host command and returns combined output.
// Injectable so tests never touch hdiutil or the real filesystem layout.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runHostCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Mounter attaches a disk image and later releases it.
type Mounter interface {
	Mount(ctx context.Context, imagePath string) (string, error)
	Unmount(ctx context.Context, mountPoint string) error
}

// MountError reports an attach or detach failure with the tool output.
type MountError struct {
	ImagePath string
	Output    string
	Err       error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("lifecycle: mount operation on %q failed: %v (output: %s)", e.ImagePath, e.Err, e.Output)
}

func (e *MountError) Unwrap() error { return e.Err }

// HdiutilMounter attaches disk images with the macOS hdiutil tool.
type HdiutilMounter struct {
	run    commandRunner
	stat   func(name string) (os.FileInfo, error)
	logger *zap.Logger
}

// NewHdiutilMounter builds the hdiutil-backed mounter.
func NewHdiutilMounter(logger *zap.Logger) *HdiutilMounter {
	return &HdiutilMounter{
		run:    runHostCommand,
		stat:   os.Stat,
		logger: logger.Named("lifecycle.mounter"),
	}
}

// Mount attaches the image without surfacing Finder windows and returns
// the mount point.
func (m *HdiutilMounter) Mount(ctx context.Context, imagePath string) (string, error) {
	out, err := m.run(ctx, "hdiutil", "attach", "-nobrowse", "-noautoopen", imagePath)
	if err != nil {
		return "", &MountError{ImagePath: imagePath, Output: strings.TrimSpace(string(out)), Err: err}
	}

	mountPoint, err := parseAttachOutput(string(out))
	if err != nil {
		return "", &MountError{ImagePath: imagePath, Output: strings.TrimSpace(string(out)), Err: err}
	}

	m.logger.Info("Disk image attached",
		zap.String("image", imagePath),
		zap.String("mount_point", mountPoint),
	)
	return mountPoint, nil
}

// Unmount detaches the mount point. Detaching a mount point that is
// already gone is a no-op, so release paths can call it unconditionally.
func (m *HdiutilMounter) Unmount(ctx context.Context, mountPoint string) error {
	if _, err := m.stat(mountPoint); os.IsNotExist(err) {
		m.logger.Debug("Mount point already released", zap.String("mount_point", mountPoint))
		return nil
	}

	out, err := m.run(ctx, "hdiutil", "detach", mountPoint)
	if err != nil {
		return &MountError{ImagePath: mountPoint, Output: strings.TrimSpace(string(out)), Err: err}
	}

	m.logger.Info("Disk image detached", zap.String("mount_point", mountPoint))
	return nil
}

// parseAttachOutput extracts the mount point from hdiutil attach output.
// The last line looks like:
//
//	/dev/disk4s2   Apple_HFS   /Volumes/Acme Installer
func parseAttachOutput(out string) (string, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if idx := strings.Index(lines[i], "/Volumes/"); idx != -1 {
			return strings.TrimSpace(lines[i][idx:]), nil
		}
	}
	return "", fmt.Errorf("no mount point found in hdiutil output")
}
