package lifecycle

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMatchesApp(t *testing.T) {
	needles := relevantNeedles(acmeApp)

	assert.True(t, matchesApp("Installer[123]: installing com.acme.app payload", needles))
	assert.True(t, matchesApp("PackageKit: Acme installation succeeded", needles))
	assert.False(t, matchesApp("Installer[123]: unrelated package", needles))
}

func TestRelevantNeedles_SkipsEmptyFields(t *testing.T) {
	needles := relevantNeedles(acmeApp)
	assert.Len(t, needles, 2)

	partial := acmeApp
	partial.Name = ""
	assert.Len(t, relevantNeedles(partial), 1)
}

func TestWatch_StopsOnCancellation(t *testing.T) {
	w := newInstallLogWatcher(filepath.Join(t.TempDir(), "does-not-exist.log"), zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, w.watch(ctx, acmeApp))
}
