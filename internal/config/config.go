// Package config loads and validates application configuration from
// YAML files with environment variable expansion.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/jtlapenna/multi-agent-content-system/internal/types"
	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

// Config is the root application configuration.
type Config struct {
	Core     CoreConfig     `mapstructure:"core" yaml:"core"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Notify   NotifyConfig   `mapstructure:"notify" yaml:"notify"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Tracing  TracingConfig  `mapstructure:"tracing" yaml:"tracing"`
}

// CoreConfig holds paths and pacing shared across components.
type CoreConfig struct {
	// DataDir is the root for post artifact directories.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
	// StepDelay paces sequential runs between agent invocations.
	StepDelay time.Duration `mapstructure:"step_delay" yaml:"step_delay"`
}

// StoreConfig configures the dual persistence layer.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `mapstructure:"path" yaml:"path"`
	// BusyTimeout is the SQLite busy timeout in milliseconds.
	BusyTimeout int `mapstructure:"busy_timeout" yaml:"busy_timeout"`
	// MirrorDir holds the per-record JSON mirror documents.
	MirrorDir string `mapstructure:"mirror_dir" yaml:"mirror_dir"`
}

// NotifyConfig configures hand-off notification delivery.
type NotifyConfig struct {
	Enabled    bool          `mapstructure:"enabled" yaml:"enabled"`
	WebhookURL string        `mapstructure:"webhook_url" yaml:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Buffer     int           `mapstructure:"buffer" yaml:"buffer"`
}

// PipelineStep is one configured phase of the pipeline.
type PipelineStep struct {
	Phase string `mapstructure:"phase" yaml:"phase"`
	Agent string `mapstructure:"agent" yaml:"agent"`
}

// PipelineConfig overrides the default phase graph. An empty step list
// selects the built-in five-agent pipeline.
type PipelineConfig struct {
	Steps []PipelineStep `mapstructure:"steps" yaml:"steps"`
}

// Graph materializes the configured pipeline, falling back to the
// default graph when no steps are configured.
func (p PipelineConfig) Graph() (*workflow.Graph, error) {
	if len(p.Steps) == 0 {
		return workflow.DefaultGraph(), nil
	}
	steps := make([]workflow.Step, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = workflow.Step{Phase: workflow.Phase(s.Phase), Agent: s.Agent}
	}
	return workflow.NewGraph(steps)
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`
	// Format is text or json.
	Format string `mapstructure:"format" yaml:"format"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	SampleRate  float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure" yaml:"insecure"`
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Core: CoreConfig{
			DataDir:   "data/posts",
			StepDelay: 0,
		},
		Store: StoreConfig{
			Path:        "data/contentbot.db",
			BusyTimeout: 5000,
			MirrorDir:   "data/mirror",
		},
		Notify: NotifyConfig{
			Enabled: false,
			Timeout: 5 * time.Second,
			Buffer:  64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			SampleRate:  1.0,
			Insecure:    true,
			ServiceName: "contentbot",
		},
	}
}

// Load reads a YAML configuration file, expanding ${VAR} references
// from the environment before parsing. Unset fields keep their
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	expanded := os.Expand(string(raw), func(key string) string {
		return os.Getenv(key)
	})

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader([]byte(expanded))); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints the decoder cannot express.
func (c *Config) Validate() error {
	if c.Core.DataDir == "" {
		return types.NewValidationError("core.data_dir must not be empty")
	}
	if c.Store.Path == "" {
		return types.NewValidationError("store.path must not be empty")
	}
	if c.Store.MirrorDir == "" {
		return types.NewValidationError("store.mirror_dir must not be empty")
	}
	if c.Store.BusyTimeout < 0 {
		return types.NewValidationError("store.busy_timeout must not be negative")
	}
	if c.Notify.Enabled && c.Notify.WebhookURL == "" {
		return types.NewValidationError("notify.webhook_url is required when notifications are enabled")
	}
	if c.Notify.Buffer < 0 {
		return types.NewValidationError("notify.buffer must not be negative")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return types.NewValidationError("logging.level must be one of debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return types.NewValidationError("logging.format must be text or json")
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return types.NewValidationError("tracing.endpoint is required when tracing is enabled")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return types.NewValidationError("tracing.sample_rate must be between 0 and 1")
	}
	if _, err := c.Pipeline.Graph(); err != nil {
		return err
	}
	return nil
}
