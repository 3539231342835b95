// Package config loads tool configuration from config.yaml and CONCART_*
// environment variables, and owns logger initialization.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trondarild/ConCart/internal/kb"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Resolver  ResolverConfig  `yaml:"resolver" mapstructure:"resolver"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects and configures the table backend.
type StoreConfig struct {
	// Driver is one of: csv, sqlite, postgres.
	Driver string `yaml:"driver" mapstructure:"driver"`
	// CSV paths are used by the csv driver (and overridable per command
	// via flags).
	CSV kb.CSVPaths `yaml:"csv" mapstructure:"csv"`
	// DSN is the sqlite path or postgres URL for the other drivers.
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

// AnthropicConfig holds API credentials and model selection.
type AnthropicConfig struct {
	Key                string `yaml:"key" mapstructure:"key"`
	Model              string `yaml:"model" mapstructure:"model"`
	AnalyzeTimeoutSecs int    `yaml:"analyze_timeout_secs" mapstructure:"analyze_timeout_secs"`
}

// ResolverConfig tunes the findurl pipeline.
type ResolverConfig struct {
	Input       string `yaml:"input" mapstructure:"input"`
	Output      string `yaml:"output" mapstructure:"output"`
	PacingMS    int    `yaml:"pacing_ms" mapstructure:"pacing_ms"`
	MaxAttempts int    `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// IngestConfig tunes the document ingestion pipeline.
type IngestConfig struct {
	PacingMS    int `yaml:"pacing_ms" mapstructure:"pacing_ms"`
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// ServerConfig configures the read-only API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CONCART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "csv")
	v.SetDefault("store.csv.papers", "data/papers.csv")
	v.SetDefault("store.csv.objects", "data/c_objects.csv")
	v.SetDefault("store.csv.morphisms", "data/c_morphisms.csv")
	v.SetDefault("store.csv.evidence", "data/c_evidence.csv")
	v.SetDefault("store.dsn", "data/concart.db")
	// Registered so AutomaticEnv picks up CONCART_ANTHROPIC_KEY.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.analyze_timeout_secs", 300)
	v.SetDefault("resolver.input", "data/paper_database.csv")
	v.SetDefault("resolver.output", "papers_with_urls.csv")
	v.SetDefault("resolver.pacing_ms", 1500)
	v.SetDefault("resolver.max_attempts", 5)
	v.SetDefault("ingest.pacing_ms", 2000)
	v.SetDefault("ingest.max_attempts", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
