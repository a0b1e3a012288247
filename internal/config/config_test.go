package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestNewConfigFromViperDefaults(t *testing.T) {
	cfg, err := NewConfigFromViper(newDefaultViper())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "screenpilot", cfg.Logger.ServiceName)
	assert.Equal(t, 60, cfg.Loop.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Loop.WaitBackoff)
	assert.Equal(t, 60*time.Second, cfg.Loop.CallTimeout)
	assert.Equal(t, "host", cfg.Driver.Backend)
	assert.Equal(t, "https://api.anthropic.com/v1/messages", cfg.Vision.Endpoint)
	assert.Equal(t, "/var/log/install.log", cfg.Lifecycle.InstallLogPath)
}

func TestValidateRejectsBadValues(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(v *viper.Viper)
		wantErr string
	}{
		{
			name:    "zero max attempts",
			mutate:  func(v *viper.Viper) { v.Set("loop.max_attempts", 0) },
			wantErr: "loop.max_attempts",
		},
		{
			name:    "negative wait backoff",
			mutate:  func(v *viper.Viper) { v.Set("loop.wait_backoff", "-1s") },
			wantErr: "loop.wait_backoff",
		},
		{
			name:    "unknown backend",
			mutate:  func(v *viper.Viper) { v.Set("driver.backend", "telekinesis") },
			wantErr: "driver.backend",
		},
		{
			name: "cdp backend without url",
			mutate: func(v *viper.Viper) {
				v.Set("driver.backend", "cdp")
				v.Set("driver.cdp_url", "")
			},
			wantErr: "driver.cdp_url",
		},
		{
			name:    "empty vision model",
			mutate:  func(v *viper.Viper) { v.Set("vision.model", "") },
			wantErr: "vision.model",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := newDefaultViper()
			tc.mutate(v)
			_, err := NewConfigFromViper(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
