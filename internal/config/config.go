package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "BABYWEIGHT"

	DefaultAppName         = "babyweight-service"
	DefaultLogLevel        = "INFO"
	DefaultPort            = 8080
	DefaultBaseURL         = "https://ml.googleapis.com"
	DefaultProject         = "asl-ml-immersion"
	DefaultModel           = "babyweight"
	DefaultVersion         = "v1"
	DefaultTimeout         = 5 * time.Minute
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 60 * time.Second
	DefaultMultiplier      = 1.5
	DefaultRandomization   = 0.5
	DefaultMaxElapsed      = 15 * time.Minute
	DefaultBatchSize       = 100
	DefaultMetricsAddress  = "localhost:8125"

	AuthGoogle = "google"
	AuthNone   = "none"

	SourceCSV      = "csv"
	SourcePostgres = "postgres"

	SinkStdout   = "stdout"
	SinkPostgres = "postgres"
)

var ErrInvalidConfig = errors.New("invalid config")

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	Port     int    `mapstructure:"port"`
}

type BackOffConfig struct {
	InitialInterval     time.Duration `mapstructure:"initial_interval"`
	MaxInterval         time.Duration `mapstructure:"max_interval"`
	Multiplier          float64       `mapstructure:"multiplier"`
	RandomizationFactor float64       `mapstructure:"randomization_factor"`
	MaxElapsed          time.Duration `mapstructure:"max_elapsed"`
	MaxTries            uint          `mapstructure:"max_tries"`
}

type PredictorConfig struct {
	Mock        bool          `mapstructure:"mock"`
	BaseURL     string        `mapstructure:"base_url"`
	Project     string        `mapstructure:"project"`
	Model       string        `mapstructure:"model"`
	Version     string        `mapstructure:"version"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SkipInvalid bool          `mapstructure:"skip_invalid"`
	Auth        string        `mapstructure:"auth"`
	BackOff     BackOffConfig `mapstructure:"backoff"`
}

type SourceConfig struct {
	Kind        string `mapstructure:"kind"`
	CSVPath     string `mapstructure:"csv_path"`
	PostgresURL string `mapstructure:"postgres_url"`
}

type BatchConfig struct {
	Size int  `mapstructure:"size"`
	Save bool `mapstructure:"save"`
}

type SinkConfig struct {
	Kind string `mapstructure:"kind"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Predictor PredictorConfig `mapstructure:"predictor"`
	Source    SourceConfig    `mapstructure:"source"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Sink      SinkConfig      `mapstructure:"sink"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// SetDefaults registers every default on v. Load calls it; cmd calls it
// before binding flags so flag defaults don't shadow the config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.name", DefaultAppName)
	v.SetDefault("app.log_level", DefaultLogLevel)
	v.SetDefault("app.port", DefaultPort)

	v.SetDefault("predictor.mock", false)
	v.SetDefault("predictor.base_url", DefaultBaseURL)
	v.SetDefault("predictor.project", DefaultProject)
	v.SetDefault("predictor.model", DefaultModel)
	v.SetDefault("predictor.version", DefaultVersion)
	v.SetDefault("predictor.timeout", DefaultTimeout)
	v.SetDefault("predictor.skip_invalid", false)
	v.SetDefault("predictor.auth", AuthGoogle)
	v.SetDefault("predictor.backoff.initial_interval", DefaultInitialInterval)
	v.SetDefault("predictor.backoff.max_interval", DefaultMaxInterval)
	v.SetDefault("predictor.backoff.multiplier", DefaultMultiplier)
	v.SetDefault("predictor.backoff.randomization_factor", DefaultRandomization)
	v.SetDefault("predictor.backoff.max_elapsed", DefaultMaxElapsed)
	v.SetDefault("predictor.backoff.max_tries", 0)

	v.SetDefault("source.kind", SourceCSV)
	v.SetDefault("source.csv_path", "")
	v.SetDefault("source.postgres_url", "")

	v.SetDefault("batch.size", DefaultBatchSize)
	v.SetDefault("batch.save", true)

	v.SetDefault("sink.kind", SinkStdout)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", DefaultMetricsAddress)
}

// Load reads defaults, an optional config file (when set on v) and
// BABYWEIGHT_* environment overrides into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("%w: app.name is empty", ErrInvalidConfig)
	}
	if c.Batch.Size <= 0 {
		return fmt.Errorf("%w: batch.size must be positive, got %d", ErrInvalidConfig, c.Batch.Size)
	}
	if err := c.Predictor.validate(); err != nil {
		return err
	}

	switch c.Source.Kind {
	case SourceCSV:
	case SourcePostgres:
		if c.Source.PostgresURL == "" {
			return fmt.Errorf("%w: source.postgres_url is required for postgres source", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported source.kind %q", ErrInvalidConfig, c.Source.Kind)
	}

	switch c.Sink.Kind {
	case SinkStdout:
	case SinkPostgres:
		if c.Source.PostgresURL == "" {
			return fmt.Errorf("%w: source.postgres_url is required for postgres sink", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported sink.kind %q", ErrInvalidConfig, c.Sink.Kind)
	}
	return nil
}

func (p PredictorConfig) validate() error {
	if p.Mock {
		return nil
	}
	if p.BaseURL == "" || p.Project == "" || p.Model == "" || p.Version == "" {
		return fmt.Errorf("%w: predictor base_url, project, model and version are required", ErrInvalidConfig)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("%w: predictor.timeout must be positive, got %s", ErrInvalidConfig, p.Timeout)
	}
	if p.Auth != AuthGoogle && p.Auth != AuthNone {
		return fmt.Errorf("%w: unsupported predictor.auth %q", ErrInvalidConfig, p.Auth)
	}
	if p.BackOff.InitialInterval <= 0 || p.BackOff.MaxInterval < p.BackOff.InitialInterval {
		return fmt.Errorf("%w: predictor.backoff intervals are inconsistent", ErrInvalidConfig)
	}
	if p.BackOff.Multiplier < 1 {
		return fmt.Errorf("%w: predictor.backoff.multiplier must be >= 1", ErrInvalidConfig)
	}
	if p.BackOff.RandomizationFactor < 0 || p.BackOff.RandomizationFactor >= 1 {
		return fmt.Errorf("%w: predictor.backoff.randomization_factor must be in [0, 1)", ErrInvalidConfig)
	}
	return nil
}
