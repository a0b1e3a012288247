// File: internal/acquire/source.go
package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voidreach/screenpilot/api/schemas"
)

// Source produces a local artifact path for an application descriptor.
// The returned cleanup releases any storage the source allocated for the
// artifact and is safe to call exactly once after the session ends.
// Acquisition failures are fatal to the session that requested them.
type Source interface {
	Acquire(ctx context.Context, desc schemas.AppDescriptor) (path string, cleanup func(), err error)
}

// Error wraps any acquisition failure. The cause stays inspectable
// through Unwrap but callers classify on the type alone.
type Error struct {
	Descriptor schemas.AppDescriptor
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("acquire: failed to obtain artifact for %q: %v", e.Descriptor.BundleID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPSource downloads a disk image over HTTP(S) into a temp file.
type HTTPSource struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPSource creates a source for a fixed artifact URL.
func NewHTTPSource(url string, timeout time.Duration, logger *zap.Logger) *HTTPSource {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &HTTPSource{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("acquire.http"),
	}
}

// Acquire downloads the artifact into a temp file and returns its path.
// The cleanup removes the temp file; the session calls it after the
// image is detached.
func (s *HTTPSource) Acquire(ctx context.Context, desc schemas.AppDescriptor) (string, func(), error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", nil, &Error{Descriptor: desc, Err: err}
	}

	startTime := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", nil, &Error{Descriptor: desc, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, &Error{Descriptor: desc, Err: fmt.Errorf("unexpected status %d from %s", resp.StatusCode, s.url)}
	}

	out, err := os.CreateTemp("", fmt.Sprintf("screenpilot-artifact-%s-*.dmg", uuid.NewString()[:8]))
	if err != nil {
		return "", nil, &Error{Descriptor: desc, Err: err}
	}

	written, err := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(out.Name())
		return "", nil, &Error{Descriptor: desc, Err: err}
	}

	s.logger.Info("Artifact downloaded",
		zap.String("bundle_id", desc.BundleID),
		zap.String("path", out.Name()),
		zap.Int64("bytes", written),
		zap.Duration("duration", time.Since(startTime)),
	)

	path := out.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove downloaded artifact", zap.String("path", path), zap.Error(err))
		}
	}
	return path, cleanup, nil
}

// LocalSource serves an artifact already present on disk.
type LocalSource struct {
	path string
}

// NewLocalSource wraps a pre-downloaded artifact path.
func NewLocalSource(path string) *LocalSource {
	return &LocalSource{path: path}
}

// Acquire verifies the artifact exists. The file belongs to the user,
// so the cleanup is a no-op.
func (s *LocalSource) Acquire(_ context.Context, desc schemas.AppDescriptor) (string, func(), error) {
	if _, err := os.Stat(s.path); err != nil {
		return "", nil, &Error{Descriptor: desc, Err: err}
	}
	return s.path, func() {}, nil
}
