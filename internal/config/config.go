// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Layout() LayoutConfig
	Measure() MeasureConfig
	Output() OutputConfig
	Watch() WatchConfig

	// Layout Setters
	SetLayoutViewport(width, height float64)
	SetLayoutDebug(bool)
	SetLayoutPolicy(string)

	// Output Setters
	SetOutputFormat(string)
	SetOutputPath(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	LayoutCfg  LayoutConfig  `mapstructure:"layout" yaml:"layout"`
	MeasureCfg MeasureConfig `mapstructure:"measure" yaml:"measure"`
	OutputCfg  OutputConfig  `mapstructure:"output" yaml:"output"`
	WatchCfg   WatchConfig   `mapstructure:"watch" yaml:"watch"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Layout() LayoutConfig   { return c.LayoutCfg }
func (c *Config) Measure() MeasureConfig { return c.MeasureCfg }
func (c *Config) Output() OutputConfig   { return c.OutputCfg }
func (c *Config) Watch() WatchConfig     { return c.WatchCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetLayoutViewport(width, height float64) {
	c.LayoutCfg.ViewportWidth = width
	c.LayoutCfg.ViewportHeight = height
}
func (c *Config) SetLayoutDebug(b bool)    { c.LayoutCfg.Debug = b }
func (c *Config) SetLayoutPolicy(p string) { c.LayoutCfg.Policy = p }
func (c *Config) SetOutputFormat(f string) { c.OutputCfg.Format = f }
func (c *Config) SetOutputPath(p string)   { c.OutputCfg.Path = p }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
	// Color enables ANSI level colors in the console format.
	Color bool `mapstructure:"color" yaml:"color"`
}

// LayoutConfig controls the viewport and scheduling of layout passes.
type LayoutConfig struct {
	ViewportWidth  float64 `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight float64 `mapstructure:"viewport_height" yaml:"viewport_height"`
	// Scale converts layout units to physical pixels in reports.
	Scale float64 `mapstructure:"scale" yaml:"scale"`
	// Debug logs every unresolvable constraint.
	Debug bool `mapstructure:"debug" yaml:"debug"`
	// Policy is "boundary" or "root".
	Policy string `mapstructure:"policy" yaml:"policy"`
	// Concurrency bounds how many documents are laid out at once.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// MeasureConfig parameterizes the monospace text measurer.
type MeasureConfig struct {
	CellWidth  float64 `mapstructure:"cell_width" yaml:"cell_width"`
	LineHeight float64 `mapstructure:"line_height" yaml:"line_height"`
}

// OutputConfig selects the geometry report.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Path   string `mapstructure:"path" yaml:"path"`
	// Pixels reports geometry scaled by layout.scale.
	Pixels bool `mapstructure:"pixels" yaml:"pixels"`
	// Hidden includes nodes removed from layout.
	Hidden bool `mapstructure:"hidden" yaml:"hidden"`
}

// WatchConfig throttles re-layout in watch mode.
type WatchConfig struct {
	MinInterval time.Duration `mapstructure:"min_interval" yaml:"min_interval"`
	Burst       int           `mapstructure:"burst" yaml:"burst"`
	// Debounce coalesces bursts of file events into one re-layout.
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "boxflow")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.color", true)

	// -- Layout --
	v.SetDefault("layout.viewport_width", 800)
	v.SetDefault("layout.viewport_height", 600)
	v.SetDefault("layout.scale", 1.0)
	v.SetDefault("layout.debug", false)
	v.SetDefault("layout.policy", "boundary")
	v.SetDefault("layout.concurrency", 4)

	// -- Measure --
	v.SetDefault("measure.cell_width", 8)
	v.SetDefault("measure.line_height", 16)

	// -- Output --
	v.SetDefault("output.format", "text")
	v.SetDefault("output.path", "")
	v.SetDefault("output.pixels", false)
	v.SetDefault("output.hidden", false)

	// -- Watch --
	v.SetDefault("watch.min_interval", "250ms")
	v.SetDefault("watch.burst", 1)
	v.SetDefault("watch.debounce", "50ms")
}

// NewConfigFromViper unmarshals and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.LayoutCfg.Validate(); err != nil {
		return fmt.Errorf("layout configuration invalid: %w", err)
	}
	if c.MeasureCfg.CellWidth <= 0 || c.MeasureCfg.LineHeight <= 0 {
		return fmt.Errorf("measure.cell_width and measure.line_height must be positive")
	}
	switch strings.ToLower(c.OutputCfg.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("output.format must be one of text, json (got %q)", c.OutputCfg.Format)
	}
	if c.WatchCfg.MinInterval < 0 || c.WatchCfg.Debounce < 0 {
		return fmt.Errorf("watch.min_interval and watch.debounce must not be negative")
	}
	if c.WatchCfg.Burst <= 0 {
		return fmt.Errorf("watch.burst must be a positive integer")
	}
	return nil
}

// Validate checks the layout section.
func (l *LayoutConfig) Validate() error {
	if l.ViewportWidth < 0 || l.ViewportHeight < 0 {
		return fmt.Errorf("viewport dimensions must not be negative")
	}
	if l.Scale <= 0 {
		return fmt.Errorf("scale must be positive")
	}
	switch l.Policy {
	case "boundary", "root":
	default:
		return fmt.Errorf("policy must be boundary or root (got %q)", l.Policy)
	}
	if l.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be a positive integer")
	}
	return nil
}
