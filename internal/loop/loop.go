// File: internal/loop/loop.go
package loop

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voidreach/screenpilot/api/schemas"
	"github.com/voidreach/screenpilot/internal/capture"
	"github.com/voidreach/screenpilot/internal/config"
	"github.com/voidreach/screenpilot/internal/driver"
	"github.com/voidreach/screenpilot/internal/vision"
)

// State is the terminal classification of a loop run.
type State string

const (
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateExhausted State = "exhausted"
)

// Result summarizes a finished run. Reasoning carries the model's own
// explanation for the terminal decision where one exists.
type Result struct {
	State     State  `json:"state"`
	Attempts  int    `json:"attempts"`
	Reasoning string `json:"reasoning"`
}

// Capturer produces the current screen contents.
type Capturer interface {
	Capture(ctx context.Context) (capture.Shot, error)
}

// Engine turns a screenshot and instruction into the next decision.
type Engine interface {
	Decide(ctx context.Context, instruction string, imagePNG []byte) (schemas.Decision, error)
}

// Actor dispatches validated input actions to the screen.
type Actor interface {
	Click(ctx context.Context, c schemas.Coordinate, button driver.Button) error
	TypeText(ctx context.Context, text string) error
}

// Loop runs the capture, decide, act cycle until a terminal decision
// arrives or the attempt ceiling is hit. Every iteration consumes one
// attempt, including iterations that fail before an action dispatches.
type Loop struct {
	capturer Capturer
	engine   Engine
	actor    Actor
	store    *capture.Store
	cfg      config.LoopConfig
	logger   *zap.Logger

	// sleep is swappable so tests never block on real timers.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option adjusts loop construction.
type Option func(*Loop)

// WithSleep replaces the pause used for wait decisions. Tests use it to
// observe pauses without real timers.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Loop) { l.sleep = fn }
}

// New assembles a loop. store may be nil to disable screenshot persistence.
func New(capturer Capturer, engine Engine, actor Actor, store *capture.Store, cfg config.LoopConfig, logger *zap.Logger, opts ...Option) *Loop {
	l := &Loop{
		capturer: capturer,
		engine:   engine,
		actor:    actor,
		store:    store,
		cfg:      cfg,
		logger:   logger.Named("loop"),
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run drives the loop for a single instruction. It returns a Result
// rather than an error: recoverable per-iteration failures are logged
// and retried, and only context cancellation or a terminal decision
// ends the run early.
func (l *Loop) Run(ctx context.Context, instruction string) Result {
	sessionID := uuid.NewString()
	logger := l.logger.With(zap.String("session_id", sessionID))
	logger.Info("Starting control loop",
		zap.String("instruction", instruction),
		zap.Int("max_attempts", l.cfg.MaxAttempts),
	)

	var lastReasoning string

	for attempt := 1; attempt <= l.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("Run cancelled", zap.Int("attempt", attempt), zap.Error(err))
			return Result{State: StateFailed, Attempts: attempt - 1, Reasoning: "run cancelled: " + err.Error()}
		}

		attemptLogger := logger.With(zap.Int("attempt", attempt))

		decision, err := l.observe(ctx, attemptLogger, instruction)
		if err != nil {
			if ctx.Err() != nil {
				return Result{State: StateFailed, Attempts: attempt, Reasoning: "run cancelled: " + ctx.Err().Error()}
			}
			var parseErr *vision.ParseError
			if errors.As(err, &parseErr) {
				attemptLogger.Warn("Model response did not parse into a decision", zap.String("reason", parseErr.Reason), zap.Error(err))
			} else {
				attemptLogger.Warn("Iteration failed before a decision was reached", zap.Error(err))
			}
			continue
		}

		// The production engine validates before returning, but the
		// contract holds for any Engine wired in: a malformed decision
		// consumes the attempt, it never dereferences nil.
		if err := decision.Validate(); err != nil {
			attemptLogger.Warn("Decision violates the action contract", zap.Error(err))
			continue
		}

		lastReasoning = decision.Reasoning
		attemptLogger.Info("Decision received",
			zap.String("action", string(decision.Action)),
			zap.String("reasoning", decision.Reasoning),
		)

		switch decision.Action {
		case schemas.ActionComplete:
			logger.Info("Goal reached", zap.Int("attempts", attempt))
			return Result{State: StateCompleted, Attempts: attempt, Reasoning: decision.Reasoning}

		case schemas.ActionError:
			logger.Error("Model declared the goal unreachable", zap.Int("attempts", attempt), zap.String("reasoning", decision.Reasoning))
			return Result{State: StateFailed, Attempts: attempt, Reasoning: decision.Reasoning}

		case schemas.ActionWait:
			if err := l.sleep(ctx, l.cfg.WaitBackoff); err != nil {
				return Result{State: StateFailed, Attempts: attempt, Reasoning: "run cancelled: " + err.Error()}
			}

		case schemas.ActionClick:
			if err := l.act(ctx, func(callCtx context.Context) error {
				return l.actor.Click(callCtx, *decision.Coordinate, driver.ButtonLeft)
			}); err != nil {
				if ctx.Err() != nil {
					return Result{State: StateFailed, Attempts: attempt, Reasoning: "run cancelled: " + ctx.Err().Error()}
				}
				attemptLogger.Warn("Click dispatch failed", zap.Error(err))
			}

		case schemas.ActionTypeText:
			if err := l.act(ctx, func(callCtx context.Context) error {
				return l.actor.TypeText(callCtx, decision.Text)
			}); err != nil {
				if ctx.Err() != nil {
					return Result{State: StateFailed, Attempts: attempt, Reasoning: "run cancelled: " + ctx.Err().Error()}
				}
				attemptLogger.Warn("Text dispatch failed", zap.Error(err))
			}
		}
	}

	if lastReasoning == "" {
		lastReasoning = "attempt ceiling reached before a terminal decision"
	}
	logger.Error("Attempt ceiling reached", zap.Int("attempts", l.cfg.MaxAttempts))
	return Result{State: StateExhausted, Attempts: l.cfg.MaxAttempts, Reasoning: lastReasoning}
}

// observe performs the capture and decide steps of one iteration.
func (l *Loop) observe(ctx context.Context, logger *zap.Logger, instruction string) (schemas.Decision, error) {
	captureCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	shot, err := l.capturer.Capture(captureCtx)
	cancel()
	if err != nil {
		return schemas.Decision{}, err
	}

	if l.store != nil {
		if path, err := l.store.Save(shot); err != nil {
			logger.Warn("Failed to persist screenshot", zap.Error(err))
		} else {
			logger.Debug("Screenshot persisted", zap.String("path", path))
		}
	}

	decideCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	defer cancel()
	return l.engine.Decide(decideCtx, instruction, shot.PNG)
}

func (l *Loop) act(ctx context.Context, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	defer cancel()
	return fn(callCtx)
}
