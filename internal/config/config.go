// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Vision    VisionConfig    `mapstructure:"vision" yaml:"vision"`
	Driver    DriverConfig    `mapstructure:"driver" yaml:"driver"`
	Capture   CaptureConfig   `mapstructure:"capture" yaml:"capture"`
	Loop      LoopConfig      `mapstructure:"loop" yaml:"loop"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle" yaml:"lifecycle"`
}

// LoggerConfig configures structured logging output.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the console color names for different log levels.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// VisionConfig defines the connection to the vision-capable inference provider.
type VisionConfig struct {
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"api_key"`
	Endpoint          string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout        time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature       float32       `mapstructure:"temperature" yaml:"temperature"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	// MaxRetryElapsed bounds the exponential backoff for a single generation.
	MaxRetryElapsed time.Duration `mapstructure:"max_retry_elapsed" yaml:"max_retry_elapsed"`
}

// DriverConfig selects and configures the input backend.
type DriverConfig struct {
	// Backend is "host" (native desktop via cliclick/osascript) or "cdp"
	// (a Chromium or Electron surface reached over the DevTools protocol).
	Backend string `mapstructure:"backend" yaml:"backend"`
	// CDPURL is the DevTools websocket/HTTP endpoint for the cdp backend,
	// e.g. "http://127.0.0.1:9222".
	CDPURL string `mapstructure:"cdp_url" yaml:"cdp_url"`
}

// CaptureConfig configures screenshot persistence.
type CaptureConfig struct {
	// Dir is the process-wide screenshot directory. Empty selects
	// ~/.screenpilot/screenshots.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LoopConfig bounds the control loop.
type LoopConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	WaitBackoff time.Duration `mapstructure:"wait_backoff" yaml:"wait_backoff"`
	// CallTimeout applies independently to each external call (capture,
	// decision request, input action).
	CallTimeout time.Duration `mapstructure:"call_timeout" yaml:"call_timeout"`
}

// LifecycleConfig configures the installation-session manager.
type LifecycleConfig struct {
	MountTimeout   time.Duration `mapstructure:"mount_timeout" yaml:"mount_timeout"`
	InstallLogPath string        `mapstructure:"install_log_path" yaml:"install_log_path"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "screenpilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Vision --
	v.SetDefault("vision.model", "claude-sonnet-4-20250514")
	v.SetDefault("vision.endpoint", "https://api.anthropic.com/v1/messages")
	v.SetDefault("vision.api_timeout", "60s")
	v.SetDefault("vision.max_tokens", 1024)
	v.SetDefault("vision.temperature", 0.2)
	v.SetDefault("vision.requests_per_minute", 30)
	v.SetDefault("vision.max_retry_elapsed", "2m")

	// -- Driver --
	v.SetDefault("driver.backend", "host")
	v.SetDefault("driver.cdp_url", "http://127.0.0.1:9222")

	// -- Capture --
	v.SetDefault("capture.dir", "")

	// -- Loop --
	v.SetDefault("loop.max_attempts", 60)
	v.SetDefault("loop.wait_backoff", "5s")
	v.SetDefault("loop.call_timeout", "60s")

	// -- Lifecycle --
	v.SetDefault("lifecycle.mount_timeout", "2m")
	v.SetDefault("lifecycle.install_log_path", "/var/log/install.log")
}

// NewConfigFromViper creates a validated configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data.
	_ = v.BindEnv("vision.api_key", "SCREENPILOT_VISION_API_KEY", "ANTHROPIC_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Manually load the key if Unmarshal didn't pick it up.
	if cfg.Vision.APIKey == "" {
		cfg.Vision.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the control loop cannot run safely with.
func (c *Config) Validate() error {
	if c.Loop.MaxAttempts <= 0 {
		return fmt.Errorf("loop.max_attempts must be positive, got %d", c.Loop.MaxAttempts)
	}
	if c.Loop.WaitBackoff <= 0 {
		return fmt.Errorf("loop.wait_backoff must be positive, got %s", c.Loop.WaitBackoff)
	}
	if c.Loop.CallTimeout <= 0 {
		return fmt.Errorf("loop.call_timeout must be positive, got %s", c.Loop.CallTimeout)
	}
	switch c.Driver.Backend {
	case "host", "cdp":
	default:
		return fmt.Errorf("driver.backend must be \"host\" or \"cdp\", got %q", c.Driver.Backend)
	}
	if c.Driver.Backend == "cdp" && c.Driver.CDPURL == "" {
		return fmt.Errorf("driver.cdp_url is required for the cdp backend")
	}
	if c.Vision.Model == "" {
		return fmt.Errorf("vision.model must not be empty")
	}
	return nil
}
