// File: internal/lifecycle/manager.go
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/voidreach/screenpilot/api/schemas"
	"github.com/voidreach/screenpilot/internal/acquire"
	"github.com/voidreach/screenpilot/internal/config"
	"github.com/voidreach/screenpilot/internal/loop"
)

// Runner drives a guided control loop to a terminal state.
type Runner interface {
	Run(ctx context.Context, instruction string) loop.Result
}

// SessionError reports a guided install that ended without completing.
type SessionError struct {
	State     loop.State
	Reasoning string
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("lifecycle: guided install ended %s: %s", e.State, e.Reasoning)
}

// Manager owns the installation session: detect, acquire, mount, guide
// the installer to completion, release the mount.
type Manager struct {
	platform Platform
	source   acquire.Source
	mounter  Mounter
	runner   Runner
	cfg      config.LifecycleConfig
	logger   *zap.Logger
}

// NewManager assembles an installation-session manager.
func NewManager(platform Platform, source acquire.Source, mounter Mounter, runner Runner, cfg config.LifecycleConfig, logger *zap.Logger) *Manager {
	return &Manager{
		platform: platform,
		source:   source,
		mounter:  mounter,
		runner:   runner,
		cfg:      cfg,
		logger:   logger.Named("lifecycle"),
	}
}

// EnsureInstalled returns nil when the application is present, either
// already or after a guided install. The mount acquired for a session
// is released exactly once on every exit path.
func (m *Manager) EnsureInstalled(ctx context.Context, desc schemas.AppDescriptor) (err error) {
	installed, err := m.platform.IsInstalled(ctx, desc)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}
	if installed {
		m.logger.Info("Application already installed", zap.String("bundle_id", desc.BundleID))
		return nil
	}

	artifactPath, cleanupArtifact, err := m.source.Acquire(ctx, desc)
	if err != nil {
		return err
	}
	if cleanupArtifact != nil {
		// Registered first so it runs after the image is detached.
		defer cleanupArtifact()
	}

	mountCtx, cancelMount := context.WithTimeout(ctx, m.cfg.MountTimeout)
	mountPoint, err := m.mounter.Mount(mountCtx, artifactPath)
	cancelMount()
	if err != nil {
		return err
	}

	defer func() {
		// Release must survive a cancelled session context.
		detachCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if unmountErr := m.mounter.Unmount(detachCtx, mountPoint); unmountErr != nil {
			m.logger.Error("Failed to release mount point", zap.String("mount_point", mountPoint), zap.Error(unmountErr))
			if err == nil {
				err = unmountErr
			}
		}
	}()

	watchCtx, stopWatch := context.WithCancel(ctx)
	g := new(errgroup.Group)
	if m.cfg.InstallLogPath != "" {
		watcher := newInstallLogWatcher(m.cfg.InstallLogPath, m.logger)
		g.Go(func() error { return watcher.watch(watchCtx, desc) })
	}

	instruction := fmt.Sprintf(
		"Install the application %q. Its installer volume is mounted at %s. Open the installer, accept defaults, and proceed until the application is fully installed.",
		desc.Name, mountPoint,
	)

	m.logger.Info("Starting guided install",
		zap.String("bundle_id", desc.BundleID),
		zap.String("mount_point", mountPoint),
	)
	result := m.runner.Run(ctx, instruction)

	stopWatch()
	_ = g.Wait()

	if result.State != loop.StateCompleted {
		return &SessionError{State: result.State, Reasoning: result.Reasoning}
	}

	m.logger.Info("Guided install completed",
		zap.String("bundle_id", desc.BundleID),
		zap.Int("attempts", result.Attempts),
	)
	return nil
}

// EnsureRunning installs the application if needed, then launches it.
func (m *Manager) EnsureRunning(ctx context.Context, desc schemas.AppDescriptor) error {
	if err := m.EnsureInstalled(ctx, desc); err != nil {
		return err
	}
	return m.platform.Launch(ctx, desc)
}
