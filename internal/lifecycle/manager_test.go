package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voidreach/screenpilot/api/schemas"
	"github.com/voidreach/screenpilot/internal/acquire"
	"github.com/voidreach/screenpilot/internal/config"
	"github.com/voidreach/screenpilot/internal/loop"
)

var acmeApp = schemas.AppDescriptor{BundleID: "com.acme.app", Name: "Acme"}

type fakePlatform struct {
	installed    bool
	detectErr    error
	launched     []string
	launchErr    error
	detectCalled int
}

func (p *fakePlatform) IsInstalled(_ context.Context, _ schemas.AppDescriptor) (bool, error) {
	p.detectCalled++
	return p.installed, p.detectErr
}

func (p *fakePlatform) Launch(_ context.Context, desc schemas.AppDescriptor) error {
	p.launched = append(p.launched, desc.BundleID)
	return p.launchErr
}

type fakeSource struct {
	path     string
	err      error
	calls    int
	cleanups int
}

func (s *fakeSource) Acquire(_ context.Context, desc schemas.AppDescriptor) (string, func(), error) {
	s.calls++
	if s.err != nil {
		return "", nil, &acquire.Error{Descriptor: desc, Err: s.err}
	}
	return s.path, func() { s.cleanups++ }, nil
}

type fakeMounter struct {
	mountPoint string
	mountErr   error
	mounts     int
	unmounts   int
	unmountErr error
}

func (m *fakeMounter) Mount(_ context.Context, _ string) (string, error) {
	m.mounts++
	return m.mountPoint, m.mountErr
}

func (m *fakeMounter) Unmount(_ context.Context, _ string) error {
	m.unmounts++
	return m.unmountErr
}

type fakeLoopRunner struct {
	result      loop.Result
	instruction string
	calls       int
}

func (r *fakeLoopRunner) Run(_ context.Context, instruction string) loop.Result {
	r.calls++
	r.instruction = instruction
	return r.result
}

func testLifecycleConfig() config.LifecycleConfig {
	return config.LifecycleConfig{MountTimeout: time.Second}
}

func newTestManager(platform *fakePlatform, source *fakeSource, mounter *fakeMounter, runner *fakeLoopRunner) *Manager {
	return NewManager(platform, source, mounter, runner, testLifecycleConfig(), zap.NewNop())
}

func TestEnsureInstalled_AlreadyInstalledSkipsSession(t *testing.T) {
	platform := &fakePlatform{installed: true}
	source := &fakeSource{}
	mounter := &fakeMounter{}
	runner := &fakeLoopRunner{}

	err := newTestManager(platform, source, mounter, runner).EnsureInstalled(context.Background(), acmeApp)
	require.NoError(t, err)

	assert.Zero(t, source.calls)
	assert.Zero(t, mounter.mounts)
	assert.Zero(t, runner.calls)
}

func TestEnsureInstalled_GuidedInstallSuccess(t *testing.T) {
	platform := &fakePlatform{}
	source := &fakeSource{path: "/tmp/app.img"}
	mounter := &fakeMounter{mountPoint: "/Volumes/app"}
	runner := &fakeLoopRunner{result: loop.Result{State: loop.StateCompleted, Attempts: 3, Reasoning: "installed"}}

	err := newTestManager(platform, source, mounter, runner).EnsureInstalled(context.Background(), acmeApp)
	require.NoError(t, err)

	assert.Equal(t, 1, mounter.mounts)
	assert.Equal(t, 1, mounter.unmounts, "mount must be released exactly once")
	assert.Equal(t, 1, source.cleanups, "acquired artifact must be released with the session")
	assert.Contains(t, runner.instruction, "Acme")
	assert.Contains(t, runner.instruction, "/Volumes/app")
}

func TestEnsureInstalled_FailedRunReleasesMountAndReportsSessionError(t *testing.T) {
	mounter := &fakeMounter{mountPoint: "/Volumes/app"}
	source := &fakeSource{path: "/tmp/app.img"}
	runner := &fakeLoopRunner{result: loop.Result{State: loop.StateFailed, Attempts: 1, Reasoning: "installer crashed"}}

	err := newTestManager(&fakePlatform{}, source, mounter, runner).
		EnsureInstalled(context.Background(), acmeApp)
	require.Error(t, err)

	var sessionErr *SessionError
	require.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, loop.StateFailed, sessionErr.State)
	assert.Equal(t, "installer crashed", sessionErr.Reasoning)
	assert.Equal(t, 1, mounter.unmounts, "failed sessions still release the mount exactly once")
	assert.Equal(t, 1, source.cleanups, "failed sessions still release the artifact")
}

func TestEnsureInstalled_ExhaustedRunReportsSessionError(t *testing.T) {
	mounter := &fakeMounter{mountPoint: "/Volumes/app"}
	runner := &fakeLoopRunner{result: loop.Result{State: loop.StateExhausted, Attempts: 60, Reasoning: "never finished"}}

	err := newTestManager(&fakePlatform{}, &fakeSource{path: "/tmp/app.img"}, mounter, runner).
		EnsureInstalled(context.Background(), acmeApp)

	var sessionErr *SessionError
	require.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, loop.StateExhausted, sessionErr.State)
	assert.Equal(t, 1, mounter.unmounts)
}

func TestEnsureInstalled_AcquireFailureIsFatal(t *testing.T) {
	mounter := &fakeMounter{}
	runner := &fakeLoopRunner{}

	err := newTestManager(&fakePlatform{}, &fakeSource{err: errors.New("404")}, mounter, runner).
		EnsureInstalled(context.Background(), acmeApp)
	require.Error(t, err)

	var acqErr *acquire.Error
	require.ErrorAs(t, err, &acqErr)
	assert.Zero(t, mounter.mounts)
	assert.Zero(t, runner.calls)
}

func TestEnsureInstalled_MountFailureSkipsRunAndUnmount(t *testing.T) {
	mounter := &fakeMounter{mountErr: &MountError{ImagePath: "/tmp/app.img", Err: errors.New("attach failed")}}
	runner := &fakeLoopRunner{}

	err := newTestManager(&fakePlatform{}, &fakeSource{path: "/tmp/app.img"}, mounter, runner).
		EnsureInstalled(context.Background(), acmeApp)
	require.Error(t, err)

	var mountErr *MountError
	require.ErrorAs(t, err, &mountErr)
	assert.Zero(t, runner.calls)
	assert.Zero(t, mounter.unmounts, "nothing to release when attach never succeeded")
}

func TestEnsureInstalled_DetectionErrorPropagates(t *testing.T) {
	platform := &fakePlatform{detectErr: errors.New("mdfind unavailable")}

	err := newTestManager(platform, &fakeSource{}, &fakeMounter{}, &fakeLoopRunner{}).
		EnsureInstalled(context.Background(), acmeApp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detection failed")
}

func TestEnsureRunning_LaunchesAfterInstall(t *testing.T) {
	platform := &fakePlatform{installed: true}

	err := newTestManager(platform, &fakeSource{}, &fakeMounter{}, &fakeLoopRunner{}).
		EnsureRunning(context.Background(), acmeApp)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.acme.app"}, platform.launched)
}

func TestEnsureRunning_InstallFailureSkipsLaunch(t *testing.T) {
	platform := &fakePlatform{}
	runner := &fakeLoopRunner{result: loop.Result{State: loop.StateFailed, Reasoning: "installer crashed"}}

	err := newTestManager(platform, &fakeSource{path: "/tmp/app.img"}, &fakeMounter{mountPoint: "/Volumes/app"}, runner).
		EnsureRunning(context.Background(), acmeApp)
	require.Error(t, err)
	assert.Empty(t, platform.launched)
}
