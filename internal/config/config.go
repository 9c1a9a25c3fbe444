package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" envconfig:"SERVER"`
	Logging     LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Paths       PathsConfig       `yaml:"paths" envconfig:"PATHS"`
	Aggregation AggregationConfig `yaml:"aggregation" envconfig:"AGGREGATION"`
	Chart       ChartConfig       `yaml:"chart" envconfig:"CHART"`
}

// ServerConfig contains HTTP server configuration for the data API
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8091"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"text" validate:"oneof=text json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/csviz.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data" validate:"required"`
	ExportDir string `yaml:"export_dir" envconfig:"EXPORT_DIR" default:"exports"`
}

// AggregationConfig controls how same-metric CSV files are grouped and merged.
type AggregationConfig struct {
	// EnableFileAggregation turns the whole grouping/merging feature on or off.
	// When off every file is presented individually.
	EnableFileAggregation bool `yaml:"enable_file_aggregation" envconfig:"ENABLE_FILE_AGGREGATION" default:"true"`

	// ShowSingleFileGroups keeps groups with exactly one member instead of
	// dropping them from the group listing.
	ShowSingleFileGroups bool `yaml:"show_single_file_groups" envconfig:"SHOW_SINGLE_FILE_GROUPS" default:"false"`

	// AddFileMetadataColumns appends _source_file, _file_start_date and
	// _file_end_date provenance columns to merged tables.
	AddFileMetadataColumns bool `yaml:"add_file_metadata_columns" envconfig:"ADD_FILE_METADATA_COLUMNS" default:"false"`

	// DuplicateStrategy decides which row survives when two files carry the
	// same (date, Breakdown) key: "last", "first" or "average".
	DuplicateStrategy string `yaml:"duplicate_strategy" envconfig:"DUPLICATE_STRATEGY" default:"last" validate:"oneof=last first average"`
}

// ChartConfig carries defaults consumed by the rendering layer.
type ChartConfig struct {
	DefaultTimePeriodDays int `yaml:"default_time_period_days" envconfig:"DEFAULT_TIME_PERIOD_DAYS" default:"30" validate:"gt=0"`
	MaxChartPoints        int `yaml:"max_chart_points" envconfig:"MAX_CHART_POINTS" default:"2000" validate:"gt=0"`
	MaxRecentFiles        int `yaml:"max_recent_files" envconfig:"MAX_RECENT_FILES" default:"10" validate:"gte=0"`
}

// Load builds the configuration in three layers: struct-tag defaults,
// environment variables (CSVIZ_*), then the optional YAML settings file on
// top. The file wins because it is what the settings dialog of the UI layer
// persists. The result is validated before being returned.
func Load(configFile string) (*Config, error) {
	var cfg Config

	// Defaults and environment overrides.
	if err := envconfig.Process("CSVIZ", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Defaults are static and always valid.
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return cfg
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
