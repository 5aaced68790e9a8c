package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/scoutlens.db", cfg.Database.Path)
	assert.Equal(t, int64(20<<20), cfg.Storage.MaxUploadBytes)
	assert.Equal(t, 1000, cfg.Pipeline.BatchSize)
	assert.Equal(t, 90*time.Second, cfg.AI.Timeout)
	require.NoError(t, cfg.validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "negative upload limit",
			mutate:  func(c *Config) { c.Storage.MaxUploadBytes = -1 },
			wantErr: "max upload bytes",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Pipeline.Workers = 0 },
			wantErr: "pipeline workers",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Pipeline.BatchSize = 0 },
			wantErr: "batch size",
		},
		{
			name:    "unknown log output",
			mutate:  func(c *Config) { c.Logging.Output = "syslog" },
			wantErr: "Output",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "Level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateRepairsAIAttempts(t *testing.T) {
	cfg := Default()
	cfg.AI.MaxAttempts = 0
	require.NoError(t, cfg.validate())
	assert.Equal(t, 1, cfg.AI.MaxAttempts)
}
