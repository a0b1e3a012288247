// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/voidreach/screenpilot/internal/acquire"
	"github.com/voidreach/screenpilot/internal/capture"
	"github.com/voidreach/screenpilot/internal/config"
	"github.com/voidreach/screenpilot/internal/driver"
	"github.com/voidreach/screenpilot/internal/lifecycle"
	"github.com/voidreach/screenpilot/internal/loop"
	"github.com/voidreach/screenpilot/internal/vision"
)

// Stack holds the assembled components for one session. It centralizes
// wiring so the commands stay thin.
type Stack struct {
	Driver   *driver.Driver
	Capturer capture.Capturer
	Store    *capture.Store
	Engine   *vision.Engine
	Loop     *loop.Loop
	Mounter  lifecycle.Mounter
	Platform lifecycle.Platform

	cdpCancel context.CancelFunc
}

// NewStack builds the full component stack for the configured backend.
func NewStack(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stack, error) {
	s := &Stack{}

	var exec driver.Executor
	switch cfg.Driver.Backend {
	case "cdp":
		cdpCtx, cancel, err := driver.Attach(ctx, cfg.Driver.CDPURL)
		if err != nil {
			return nil, err
		}
		s.cdpCancel = cancel
		exec = driver.NewCDPExecutor(cdpCtx)
		s.Capturer = capture.NewCDPCapturer(cdpCtx)
	case "host":
		exec = driver.NewHostExecutor(logger)
		s.Capturer = capture.NewHostCapturer(logger)
	default:
		return nil, fmt.Errorf("unknown driver backend %q", cfg.Driver.Backend)
	}

	d, err := driver.New(ctx, exec, logger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("initialize input driver: %w", err)
	}
	s.Driver = d

	store, err := capture.NewStore(cfg.Capture.Dir, logger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("initialize screenshot store: %w", err)
	}
	s.Store = store

	client, err := vision.NewAnthropicClient(cfg.Vision, logger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("initialize vision client: %w", err)
	}
	s.Engine = vision.NewEngine(client, cfg.Vision, logger)
	s.Loop = loop.New(s.Capturer, s.Engine, s.Driver, s.Store, cfg.Loop, logger)

	s.Mounter = lifecycle.NewHdiutilMounter(logger)
	s.Platform = lifecycle.NewDarwinPlatform(logger)

	return s, nil
}

// NewSessionManager wires an installation-session manager on top of the
// stack, using the given acquisition source.
func (s *Stack) NewSessionManager(source acquire.Source, cfg config.LifecycleConfig, logger *zap.Logger) *lifecycle.Manager {
	return lifecycle.NewManager(s.Platform, source, s.Mounter, s.Loop, cfg, logger)
}

// Close releases any session-scoped connections.
func (s *Stack) Close() {
	if s.cdpCancel != nil {
		s.cdpCancel()
		s.cdpCancel = nil
	}
}
