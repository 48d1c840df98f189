package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "does-not-exist.toml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "avidoc", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.False(t, cfg.Auth.Required)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, 1024, cfg.LLM.EmbeddingDimension)
	assert.Equal(t, "memory", cfg.Vector.Driver)
	assert.Equal(t, 512, cfg.Ingest.ChunkSize)
	assert.Equal(t, 64, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 0.3, cfg.Retrieval.MinScore)
	assert.Equal(t, 5, cfg.Graph.MaxDepth)
	assert.Equal(t, 365, cfg.Validation.StaleAfterDays)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "does-not-exist.toml")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("VECTOR_DRIVER", "qdrant")
	t.Setenv("INGEST_CHUNK_SIZE", "256")
	t.Setenv("RETRIEVAL_MIN_SCORE", "0.55")
	t.Setenv("AUTH_REQUIRED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "qdrant", cfg.Vector.Driver)
	assert.Equal(t, 256, cfg.Ingest.ChunkSize)
	assert.Equal(t, 0.55, cfg.Retrieval.MinScore)
	assert.True(t, cfg.Auth.Required)
}

func TestEnvOverrideIgnoresUnparsable(t *testing.T) {
	t.Setenv("CONFIG_FILE", "does-not-exist.toml")
	t.Setenv("APP_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
}

func TestMySQLDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.MySQL.User = "svc"
	cfg.MySQL.Password = "secret"
	cfg.MySQL.Host = "db.internal"
	cfg.MySQL.Port = 3307
	cfg.MySQL.DB = "docs"
	cfg.MySQL.Params = "parseTime=true"

	assert.Equal(t, "svc:secret@tcp(db.internal:3307)/docs?parseTime=true", cfg.MySQLDSN())
}

func TestHTTPAddr(t *testing.T) {
	cfg := defaultConfig()
	cfg.App.Host = "127.0.0.1"
	cfg.App.Port = 8090
	assert.Equal(t, "127.0.0.1:8090", cfg.HTTPAddr())
}
