// internal/observability/logger_test.go
package observability

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/voidreach/screenpilot/internal/config"
)

// memorySink collects log output in memory so assertions don't depend on
// process-wide stdout swapping.
type memorySink struct {
	strings.Builder
}

func (s *memorySink) Sync() error { return nil }

func TestInitializeConsoleLoggerWithColors(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	sink := &memorySink{}
	cfg := config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "testsvc",
		Colors:      config.ColorConfig{Info: "green"},
	}
	Initialize(cfg, zapcore.Lock(zapcore.AddSync(sink)))

	logger := GetLogger()
	logger.Info("this is a test message")
	require.NoError(t, logger.Sync())

	output := sink.String()
	assert.Contains(t, output, "INFO")
	assert.Contains(t, output, "this is a test message")
	assert.Contains(t, output, colorGreen)
	assert.Contains(t, output, colorReset)
	assert.Contains(t, output, "testsvc.")
}

func TestInitializeJSONLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	sink := &memorySink{}
	cfg := config.LoggerConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "testsvc",
	}
	Initialize(cfg, zapcore.Lock(zapcore.AddSync(sink)))

	GetLogger().Info("structured entry")
	require.NoError(t, GetLogger().Sync())

	line := strings.TrimSpace(sink.String())
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "structured entry", entry["msg"])
}

func TestInitializeIsIdempotent(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	first := &memorySink{}
	second := &memorySink{}
	Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.AddSync(first))
	Initialize(config.LoggerConfig{Level: "debug", Format: "console"}, zapcore.AddSync(second))

	GetLogger().Info("only the first initialization wins")
	_ = GetLogger().Sync()

	assert.NotEmpty(t, first.String())
	assert.Empty(t, second.String())
}

func TestGetLoggerBeforeInitializeFallsBack(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
}

func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	sink := &memorySink{}
	Initialize(config.LoggerConfig{Level: "shouting", Format: "json"}, zapcore.AddSync(sink))

	GetLogger().Debug("should be suppressed")
	GetLogger().Info("should appear")
	_ = GetLogger().Sync()

	output := sink.String()
	assert.NotContains(t, output, "should be suppressed")
	assert.Contains(t, output, "should appear")
}
