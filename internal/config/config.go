// Package config loads recall's configuration from a YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the complete recall configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Reasoning ReasoningConfig `koanf:"reasoning"`
	Capture   CaptureConfig   `koanf:"capture"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig locates the artifact store.
type StorageConfig struct {
	DataDir string `koanf:"data_dir"`
}

// ReasoningConfig configures the language model client.
type ReasoningConfig struct {
	APIKey            Secret  `koanf:"api_key"`
	Model             string  `koanf:"model"`
	BaseURL           string  `koanf:"base_url"`
	MaxTokens         int     `koanf:"max_tokens"`
	DescribeMaxTokens int     `koanf:"describe_max_tokens"`
	RateLimit         float64 `koanf:"rate_limit"` // requests per second
	Burst             int     `koanf:"burst"`
}

// CaptureConfig configures the NATS capture bridge. An empty URL disables it.
type CaptureConfig struct {
	NATSURL       string `koanf:"nats_url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// Enabled reports whether the bridge should be started.
func (c CaptureConfig) Enabled() bool {
	return strings.TrimSpace(c.NATSURL) != ""
}

// LogConfig holds the logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds the OpenTelemetry exporter settings.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	Protocol    string  `koanf:"protocol"` // "grpc" or "http/protobuf"
	Insecure    bool    `koanf:"insecure"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            9090,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Reasoning: ReasoningConfig{
			Model:             "claude-3-5-sonnet-20241022",
			MaxTokens:         1024,
			DescribeMaxTokens: 1024,
			RateLimit:         2,
			Burst:             4,
		},
		Capture: CaptureConfig{
			SubjectPrefix: "recall.capture",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			Insecure:    true,
			ServiceName: "recall",
			SampleRate:  1.0,
		},
	}
}

// Validate validates the configuration.
//
// A missing reasoning API key is not an error here: operations that need the
// model fail on first use instead.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		return errors.New("storage.data_dir is required")
	}
	if c.Reasoning.Model == "" {
		return errors.New("reasoning.model is required")
	}
	if c.Reasoning.MaxTokens <= 0 || c.Reasoning.DescribeMaxTokens <= 0 {
		return errors.New("reasoning token budgets must be positive")
	}
	if c.Reasoning.RateLimit <= 0 || c.Reasoning.Burst <= 0 {
		return errors.New("reasoning.rate_limit and reasoning.burst must be positive")
	}
	if c.Capture.Enabled() && c.Capture.SubjectPrefix == "" {
		return errors.New("capture.subject_prefix is required when capture.nats_url is set")
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log.format must be 'json' or 'console', got %q", c.Log.Format)
	}
	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return errors.New("telemetry.endpoint is required when telemetry is enabled")
		}
		if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
			return fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got %f", c.Telemetry.SampleRate)
		}
	}
	return nil
}

// DataDir returns the storage root with a leading "~/" expanded.
func (c *Config) DataDir(home string) string {
	dir := c.Storage.DataDir
	if home != "" && (dir == "~" || strings.HasPrefix(dir, "~/")) {
		return filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	return dir
}
