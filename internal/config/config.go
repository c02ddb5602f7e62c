package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/rtupulse.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	ExecutableDir string `yaml:"executable_dir" envconfig:"EXECUTABLE_DIR"`
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// ProcessingConfig contains the merge and KPI tuning knobs. The defaults
// match the telemetry export cadence: 15-minute samples, 1-minute clock
// skew between controllers.
type ProcessingConfig struct {
	JoinToleranceSeconds int     `yaml:"join_tolerance_seconds" envconfig:"JOIN_TOLERANCE_SECONDS" default:"60" validate:"min=1"`
	MaxIntervalSeconds   float64 `yaml:"max_interval_seconds" envconfig:"MAX_INTERVAL_SECONDS" default:"960" validate:"gt=0"`
	DefaultNominalFlow   float64 `yaml:"default_nominal_flow" envconfig:"DEFAULT_NOMINAL_FLOW" default:"9600" validate:"gt=0"`
	PercentileBand       float64 `yaml:"percentile_band" envconfig:"PERCENTILE_BAND" default:"0.05" validate:"gt=0,lt=1"`
	UsePercentileBand    bool    `yaml:"use_percentile_band" envconfig:"USE_PERCENTILE_BAND" default:"false"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process("RTU", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config, env takes precedence
func mergeConfigs(fileCfg, envCfg Config) Config {
	merged := fileCfg

	if envCfg.Logging.Level != "" {
		merged.Logging.Level = envCfg.Logging.Level
	}
	if envCfg.Logging.Format != "" {
		merged.Logging.Format = envCfg.Logging.Format
	}
	if envCfg.Logging.Output != "" {
		merged.Logging.Output = envCfg.Logging.Output
	}
	if envCfg.Logging.FilePath != "" {
		merged.Logging.FilePath = envCfg.Logging.FilePath
	}

	if envCfg.Paths.ExecutableDir != "" {
		merged.Paths.ExecutableDir = envCfg.Paths.ExecutableDir
	}
	if envCfg.Paths.DataDir != "" {
		merged.Paths.DataDir = envCfg.Paths.DataDir
	}
	if envCfg.Paths.LogsDir != "" {
		merged.Paths.LogsDir = envCfg.Paths.LogsDir
	}

	if envCfg.Processing.JoinToleranceSeconds != 0 {
		merged.Processing.JoinToleranceSeconds = envCfg.Processing.JoinToleranceSeconds
	}
	if envCfg.Processing.MaxIntervalSeconds != 0 {
		merged.Processing.MaxIntervalSeconds = envCfg.Processing.MaxIntervalSeconds
	}
	if envCfg.Processing.DefaultNominalFlow != 0 {
		merged.Processing.DefaultNominalFlow = envCfg.Processing.DefaultNominalFlow
	}
	if envCfg.Processing.PercentileBand != 0 {
		merged.Processing.PercentileBand = envCfg.Processing.PercentileBand
	}
	if envCfg.Processing.UsePercentileBand {
		merged.Processing.UsePercentileBand = true
	}

	return merged
}

// Validate checks the configuration against the struct tags
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DefaultConfig returns a configuration with all defaults applied. Used by
// the CLI when no config file or environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/rtupulse.log",
		},
		Paths: PathsConfig{
			DataDir: DefaultDataDir,
			LogsDir: DefaultLogsDir,
		},
		Processing: ProcessingConfig{
			JoinToleranceSeconds: DefaultJoinToleranceSeconds,
			MaxIntervalSeconds:   DefaultMaxIntervalSeconds,
			DefaultNominalFlow:   DefaultNominalFlowCFM,
			PercentileBand:       DefaultPercentileBand,
		},
	}
}

// getConfigFilePath returns the path to the YAML config file, resolved
// next to the executable like every other path in the application
func getConfigFilePath() string {
	exe, err := os.Executable()
	if err != nil {
		return ConfigFileName
	}
	return filepath.Join(filepath.Dir(exe), ConfigFileName)
}
