package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1536, cfg.Dimensions)
	assert.Equal(t, 8, cfg.BatchSize)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestConfig_Options(t *testing.T) {
	cfg := NewConfig(
		WithEmbeddingHost("http://embed.internal:9100"),
		WithEmbeddingModel("text-embedding-3-large"),
		WithDimensions(3072),
		WithBatchSize(16),
		WithRetryDelay(500*time.Millisecond),
	)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://embed.internal:9100/v1", cfg.EmbeddingHost, "normalize appends /v1")
	assert.Equal(t, 3072, cfg.Dimensions)
}

func TestConfig_NormalizeTrimsTrailingSlash(t *testing.T) {
	cfg := NewConfig(WithEmbeddingHost("http://localhost:11434/"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
}

func TestConfig_ValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"empty model", func(c *Config) { c.EmbeddingModel = "" }},
		{"zero dimensions", func(c *Config) { c.Dimensions = 0 }},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }},
		{"zero delay", func(c *Config) { c.RetryDelay = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
