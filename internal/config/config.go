// Package config loads the career-cli configuration and initializes logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Detection DetectionConfig `yaml:"detection" mapstructure:"detection"`
	Grouping  GroupingConfig  `yaml:"grouping" mapstructure:"grouping"`
	Merge     MergeConfig     `yaml:"merge" mapstructure:"merge"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second, 0 disables
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MergeWorkers   int      `yaml:"merge_workers" mapstructure:"merge_workers"`
}

// RetryConfig configures retries of transient store failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DetectionWeights weights the similarity components of a job pair.
type DetectionWeights struct {
	Title       float64 `yaml:"title" mapstructure:"title"`
	Org         float64 `yaml:"org" mapstructure:"org"`
	Dates       float64 `yaml:"dates" mapstructure:"dates"`
	Skills      float64 `yaml:"skills" mapstructure:"skills"`
	Description float64 `yaml:"description" mapstructure:"description"`
}

// DetectionConfig configures duplicate detection.
type DetectionConfig struct {
	Threshold          float64          `yaml:"threshold" mapstructure:"threshold"`
	HighConfidence     float64          `yaml:"high_confidence" mapstructure:"high_confidence"`
	MediumConfidence   float64          `yaml:"medium_confidence" mapstructure:"medium_confidence"`
	MatchedFieldCutoff float64          `yaml:"matched_field_cutoff" mapstructure:"matched_field_cutoff"`
	// SeparateStintGapDays: two dated records further apart than this are separate stints, never duplicates.
	SeparateStintGapDays int `yaml:"separate_stint_gap_days" mapstructure:"separate_stint_gap_days"`
	Weights            DetectionWeights `yaml:"weights" mapstructure:"weights"`
}

// GroupingConfig configures company grouping, progression and boomerang detection.
type GroupingConfig struct {
	BoomerangGapDays      int     `yaml:"boomerang_gap_days" mapstructure:"boomerang_gap_days"`
	StrongUpwardScore     float64 `yaml:"strong_upward_score" mapstructure:"strong_upward_score"`
	UpwardScore           float64 `yaml:"upward_score" mapstructure:"upward_score"`
	HighlightTenureMonths int     `yaml:"highlight_tenure_months" mapstructure:"highlight_tenure_months"`
	StableTenureMonths    int     `yaml:"stable_tenure_months" mapstructure:"stable_tenure_months"`
	ModerateTenureMonths  int     `yaml:"moderate_tenure_months" mapstructure:"moderate_tenure_months"`
	TopSkills             int     `yaml:"top_skills" mapstructure:"top_skills"`
	LadderFile            string  `yaml:"ladder_file" mapstructure:"ladder_file"`
}

// MergeConfig configures the smart merge engine.
type MergeConfig struct {
	FieldStrategies          map[string]string `yaml:"field_strategies" mapstructure:"field_strategies"`
	DateMismatchMonths       int               `yaml:"date_mismatch_months" mapstructure:"date_mismatch_months"`
	ContentDivergenceOverlap float64           `yaml:"content_divergence_overlap" mapstructure:"content_divergence_overlap"`
	SkillsMismatchOverlap    float64           `yaml:"skills_mismatch_overlap" mapstructure:"skills_mismatch_overlap"`
	ExcellentScore           float64           `yaml:"excellent_score" mapstructure:"excellent_score"`
	GoodScore                float64           `yaml:"good_score" mapstructure:"good_score"`
	FairScore                float64           `yaml:"fair_score" mapstructure:"fair_score"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CAREER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "career.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.merge_workers", 4)

	v.SetDefault("detection.threshold", 0.7)
	v.SetDefault("detection.high_confidence", 0.9)
	v.SetDefault("detection.medium_confidence", 0.7)
	v.SetDefault("detection.matched_field_cutoff", 0.8)
	v.SetDefault("detection.separate_stint_gap_days", 180)
	v.SetDefault("detection.weights.title", 0.30)
	v.SetDefault("detection.weights.org", 0.25)
	v.SetDefault("detection.weights.dates", 0.20)
	v.SetDefault("detection.weights.skills", 0.15)
	v.SetDefault("detection.weights.description", 0.10)

	v.SetDefault("grouping.boomerang_gap_days", 180)
	v.SetDefault("grouping.strong_upward_score", 0.75)
	v.SetDefault("grouping.upward_score", 0.25)
	v.SetDefault("grouping.highlight_tenure_months", 60)
	v.SetDefault("grouping.stable_tenure_months", 48)
	v.SetDefault("grouping.moderate_tenure_months", 18)
	v.SetDefault("grouping.top_skills", 5)

	v.SetDefault("merge.date_mismatch_months", 3)
	v.SetDefault("merge.content_divergence_overlap", 0.3)
	v.SetDefault("merge.skills_mismatch_overlap", 0.1)
	v.SetDefault("merge.excellent_score", 0.85)
	v.SetDefault("merge.good_score", 0.7)
	v.SetDefault("merge.fair_score", 0.5)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 200)
	v.SetDefault("retry.max_backoff_ms", 5000)
}

// Validate checks the store and server settings a command depends on. Mode selects
// the command-specific checks ("serve", "postgres"). The analysis sections are
// validated by the packages that consume them.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.Driver == "postgres" || mode == "postgres" {
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	}
	if mode == "serve" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
	}
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, "retry.max_attempts must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
