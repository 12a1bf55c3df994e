package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "REDIS_URL", "CANDIDATE_LIMIT", "CANDIDATE_CACHE_TTL", "MIGRATE_ON_START"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, 8082, cfg.Port)
	assert.Equal(t, 20, cfg.CandidateLimit)
	assert.Equal(t, 10*time.Minute, cfg.CandidateCacheTTL)
	assert.True(t, cfg.MigrateOnStart)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, int64(256<<20), cfg.MaxUploadBytes())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOW_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("CANDIDATE_LIMIT", "5")
	t.Setenv("CANDIDATE_CACHE_TTL", "30s")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/pricebid?sslmode=disable")

	cfg := Load()
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowOrigins)
	assert.Equal(t, 5, cfg.CandidateLimit)
	assert.Equal(t, 30*time.Second, cfg.CandidateCacheTTL)
	assert.False(t, cfg.MigrateOnStart)
	assert.NotEmpty(t, cfg.DatabaseURL)
}

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger := SetupLogger(Config{LogLevel: "debug", LogFormat: "json", LogFile: path})
	logger.Info().Str("k", "v").Msg("hello")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"message":"hello"`)
	assert.Contains(t, string(b), `"service":"pricebid-recon"`)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}
