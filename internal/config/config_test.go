package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DefaultAppName, cfg.App.Name)
	assert.Equal(t, DefaultProject, cfg.Predictor.Project)
	assert.Equal(t, DefaultModel, cfg.Predictor.Model)
	assert.Equal(t, DefaultVersion, cfg.Predictor.Version)
	assert.Equal(t, 300*time.Second, cfg.Predictor.Timeout)
	assert.Equal(t, AuthGoogle, cfg.Predictor.Auth)
	assert.False(t, cfg.Predictor.Mock)
	assert.False(t, cfg.Predictor.SkipInvalid)
	assert.Equal(t, DefaultInitialInterval, cfg.Predictor.BackOff.InitialInterval)
	assert.Equal(t, DefaultMaxElapsed, cfg.Predictor.BackOff.MaxElapsed)
	assert.Equal(t, DefaultBatchSize, cfg.Batch.Size)
	assert.Equal(t, SourceCSV, cfg.Source.Kind)
	assert.Equal(t, SinkStdout, cfg.Sink.Kind)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BABYWEIGHT_PREDICTOR_MOCK", "true")
	t.Setenv("BABYWEIGHT_PREDICTOR_TIMEOUT", "10s")
	t.Setenv("BABYWEIGHT_BATCH_SIZE", "7")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.True(t, cfg.Predictor.Mock)
	assert.Equal(t, 10*time.Second, cfg.Predictor.Timeout)
	assert.Equal(t, 7, cfg.Batch.Size)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
predictor:
  project: other-project
  model: weights
  version: v3
  auth: none
source:
  kind: postgres
  postgres_url: postgres://localhost/natality
sink:
  kind: postgres
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "other-project", cfg.Predictor.Project)
	assert.Equal(t, "weights", cfg.Predictor.Model)
	assert.Equal(t, "v3", cfg.Predictor.Version)
	assert.Equal(t, AuthNone, cfg.Predictor.Auth)
	assert.Equal(t, SourcePostgres, cfg.Source.Kind)
	assert.Equal(t, SinkPostgres, cfg.Sink.Kind)
}

func TestLoad_MissingFile(t *testing.T) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load(v)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		v := viper.New()
		cfg, err := Load(v)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		wantOK bool
	}{
		{name: "defaults", mutate: func(c *Config) {}, wantOK: true},
		{name: "zero batch size", mutate: func(c *Config) { c.Batch.Size = 0 }, wantOK: false},
		{name: "empty project", mutate: func(c *Config) { c.Predictor.Project = "" }, wantOK: false},
		{name: "empty project with mock", mutate: func(c *Config) {
			c.Predictor.Project = ""
			c.Predictor.Mock = true
		}, wantOK: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Predictor.Timeout = 0 }, wantOK: false},
		{name: "unknown auth", mutate: func(c *Config) { c.Predictor.Auth = "basic" }, wantOK: false},
		{name: "multiplier below one", mutate: func(c *Config) { c.Predictor.BackOff.Multiplier = 0.5 }, wantOK: false},
		{name: "randomization out of range", mutate: func(c *Config) { c.Predictor.BackOff.RandomizationFactor = 1 }, wantOK: false},
		{name: "max interval below initial", mutate: func(c *Config) {
			c.Predictor.BackOff.MaxInterval = time.Millisecond
		}, wantOK: false},
		{name: "postgres source without url", mutate: func(c *Config) { c.Source.Kind = SourcePostgres }, wantOK: false},
		{name: "unknown source", mutate: func(c *Config) { c.Source.Kind = "kafka" }, wantOK: false},
		{name: "postgres sink without url", mutate: func(c *Config) { c.Sink.Kind = SinkPostgres }, wantOK: false},
		{name: "unknown sink", mutate: func(c *Config) { c.Sink.Kind = "s3" }, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}
