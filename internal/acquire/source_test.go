package acquire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voidreach/screenpilot/api/schemas"
)

var testDescriptor = schemas.AppDescriptor{BundleID: "com.acme.app", Name: "Acme"}

func TestHTTPSource_AcquireDownloadsArtifact(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("disk-image-bytes"))
	}))
	t.Cleanup(server.Close)

	source := NewHTTPSource(server.URL, 5*time.Second, zap.NewNop())
	path, cleanup, err := source.Acquire(context.Background(), testDescriptor)
	require.NoError(t, err)
	require.NotNil(t, cleanup)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("disk-image-bytes"), data)

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "cleanup must remove the downloaded temp file")
}

func TestHTTPSource_CleanupToleratesAlreadyRemovedFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	t.Cleanup(server.Close)

	source := NewHTTPSource(server.URL, 5*time.Second, zap.NewNop())
	path, cleanup, err := source.Acquire(context.Background(), testDescriptor)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	cleanup()
}

func TestHTTPSource_AcquireWrapsHTTPFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	source := NewHTTPSource(server.URL, 5*time.Second, zap.NewNop())
	_, _, err := source.Acquire(context.Background(), testDescriptor)
	require.Error(t, err)

	var acqErr *Error
	require.ErrorAs(t, err, &acqErr)
	assert.Equal(t, "com.acme.app", acqErr.Descriptor.BundleID)
}

func TestHTTPSource_AcquireRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	source := NewHTTPSource(server.URL, 5*time.Second, zap.NewNop())
	_, _, err := source.Acquire(ctx, testDescriptor)
	require.Error(t, err)

	var acqErr *Error
	assert.ErrorAs(t, err, &acqErr)
}

func TestLocalSource_Acquire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.dmg")
	require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))

	got, cleanup, err := NewLocalSource(path).Acquire(context.Background(), testDescriptor)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	// The user's file stays put.
	cleanup()
	_, err = os.Stat(path)
	assert.NoError(t, err)

	_, _, err = NewLocalSource(filepath.Join(t.TempDir(), "missing.dmg")).Acquire(context.Background(), testDescriptor)
	var acqErr *Error
	assert.ErrorAs(t, err, &acqErr)
}
