package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 60, cfg.Processing.JoinToleranceSeconds)
	assert.Equal(t, float64(960), cfg.Processing.MaxIntervalSeconds)
	assert.Equal(t, float64(9600), cfg.Processing.DefaultNominalFlow)
	assert.Equal(t, 0.05, cfg.Processing.PercentileBand)
	assert.False(t, cfg.Processing.UsePercentileBand)

	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "bad output mode",
			mutate:  func(c *Config) { c.Logging.Output = "syslog" },
			wantErr: true,
		},
		{
			name:    "zero tolerance",
			mutate:  func(c *Config) { c.Processing.JoinToleranceSeconds = 0 },
			wantErr: true,
		},
		{
			name:    "negative nominal flow",
			mutate:  func(c *Config) { c.Processing.DefaultNominalFlow = -1 },
			wantErr: true,
		},
		{
			name:    "percentile band out of range",
			mutate:  func(c *Config) { c.Processing.PercentileBand = 1.5 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeConfigs_EnvTakesPrecedence(t *testing.T) {
	fileCfg := *DefaultConfig()
	fileCfg.Logging.Level = "debug"
	fileCfg.Processing.JoinToleranceSeconds = 120

	envCfg := Config{}
	envCfg.Logging.Level = "warn"

	merged := mergeConfigs(fileCfg, envCfg)

	assert.Equal(t, "warn", merged.Logging.Level)
	// Unset env values keep the file values
	assert.Equal(t, 120, merged.Processing.JoinToleranceSeconds)
	assert.Equal(t, "json", merged.Logging.Format)
}

func TestPathsFromBase(t *testing.T) {
	base := t.TempDir()
	paths := PathsFromBase(base)

	assert.Equal(t, base, paths.ExecutableDir)
	assert.Equal(t, filepath.Join(base, "data", "input"), paths.InputDir)
	assert.Equal(t, filepath.Join(base, "data", "output", "combined"), paths.CombinedDir)
	assert.Equal(t, filepath.Join(base, "data", "output", "clean"), paths.CleanDir)
	assert.Equal(t, filepath.Join(base, "data", "output", "results", ResultsCSVName), paths.ResultsCSV)
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths := PathsFromBase(base)

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.InputDir, paths.CombinedDir, paths.CleanDir, paths.ResultsDir, paths.LogsDir} {
		assert.DirExists(t, dir)
	}
}

func TestPaths_Helpers(t *testing.T) {
	paths := PathsFromBase("/base")

	assert.Equal(t, filepath.Join("/base", "data", "output", "combined", "BLD01_RTU 3.xlsx"),
		paths.GetCombinedPath("BLD01_RTU 3.xlsx"))
	assert.Equal(t, filepath.Join("/base", "logs", "process.log"),
		paths.GetLogPath("process.log"))
}
