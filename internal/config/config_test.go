package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "career.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.InDelta(t, 0.7, cfg.Detection.Threshold, 0.001)
	assert.InDelta(t, 0.9, cfg.Detection.HighConfidence, 0.001)
	assert.InDelta(t, 0.30, cfg.Detection.Weights.Title, 0.001)
	assert.InDelta(t, 0.10, cfg.Detection.Weights.Description, 0.001)
	assert.Equal(t, 180, cfg.Grouping.BoomerangGapDays)
	assert.InDelta(t, 0.75, cfg.Grouping.StrongUpwardScore, 0.001)
	assert.Equal(t, 3, cfg.Merge.DateMismatchMonths)
	assert.InDelta(t, 0.85, cfg.Merge.ExcellentScore, 0.001)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 200, cfg.Retry.InitialBackoffMs)

	assert.NoError(t, cfg.Validate("serve"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/career
log:
  level: debug
  format: console
detection:
  threshold: 0.8
grouping:
  boomerang_gap_days: 90
merge:
  field_strategies:
    title: prefer_longest
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.InDelta(t, 0.8, cfg.Detection.Threshold, 0.001)
	assert.Equal(t, 90, cfg.Grouping.BoomerangGapDays)
	assert.Equal(t, "prefer_longest", cfg.Merge.FieldStrategies["title"])
	// Defaults still apply for unset values
	assert.InDelta(t, 0.9, cfg.Detection.HighConfidence, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("CAREER_LOG_LEVEL", "warn")
	t.Setenv("CAREER_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "invalid", Format: "json"}))
}

func validConfig() *Config {
	return &Config{
		Store:  StoreConfig{Driver: "sqlite", DatabaseURL: "career.db"},
		Server: ServerConfig{Port: 8080},
		Detection: DetectionConfig{
			Threshold:        0.7,
			HighConfidence:   0.9,
			MediumConfidence: 0.7,
			Weights:          DetectionWeights{Title: 0.3, Org: 0.25, Dates: 0.2, Skills: 0.15, Description: 0.1},
		},
		Grouping: GroupingConfig{BoomerangGapDays: 180, StrongUpwardScore: 0.75, UpwardScore: 0.25},
		Merge:    MergeConfig{DateMismatchMonths: 3, ExcellentScore: 0.85, GoodScore: 0.7, FairScore: 0.5},
	}
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, validConfig().Validate("serve"))
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "mysql"
	cfg.Server.Port = 0
	cfg.Server.RateLimit = -1
	cfg.Retry.MaxAttempts = -2

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "server.rate_limit")
	assert.Contains(t, err.Error(), "retry.max_attempts")
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidate_ServerChecksOnlyInServeMode(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0

	assert.NoError(t, cfg.Validate(""))
	assert.Error(t, cfg.Validate("serve"))
}
