package loop

import (
	"context"
	"sync"
	"time"

	"github.com/voidreach/screenpilot/api/schemas"
	"github.com/voidreach/screenpilot/internal/capture"
	"github.com/voidreach/screenpilot/internal/driver"
)

// mockCapturer returns canned shots, or per-call errors.
type mockCapturer struct {
	mu    sync.Mutex
	calls int
	errs  map[int]error // 1-based call index -> error
}

func (m *mockCapturer) Capture(_ context.Context) (capture.Shot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err, ok := m.errs[m.calls]; ok {
		return capture.Shot{}, err
	}
	return capture.Shot{PNG: []byte("png"), TakenAt: time.Now()}, nil
}

func (m *mockCapturer) captureCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockEngine replays a scripted sequence of decisions. Once the script
// is exhausted the final entry repeats.
type mockEngine struct {
	mu     sync.Mutex
	calls  int
	script []decisionStep
}

type decisionStep struct {
	decision schemas.Decision
	err      error
}

func (m *mockEngine) Decide(_ context.Context, _ string, _ []byte) (schemas.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	idx := m.calls - 1
	if idx >= len(m.script) {
		idx = len(m.script) - 1
	}
	step := m.script[idx]
	return step.decision, step.err
}

func (m *mockEngine) decideCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockActor records dispatched actions.
type mockActor struct {
	mu       sync.Mutex
	clicks   []schemas.Coordinate
	typed    []string
	clickErr error
	typeErr  error
}

func (m *mockActor) Click(_ context.Context, c schemas.Coordinate, _ driver.Button) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks = append(m.clicks, c)
	return m.clickErr
}

func (m *mockActor) TypeText(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typed = append(m.typed, text)
	return m.typeErr
}

func (m *mockActor) clickedAt() []schemas.Coordinate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]schemas.Coordinate(nil), m.clicks...)
}

func (m *mockActor) typedText() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.typed...)
}
