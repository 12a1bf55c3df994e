package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	LogFormat    string // "console" or "json"
	MaxUploadMB  int
	LogFile      string

	// DatabaseURL empty means the in-memory catalog, seeded from CatalogFixture if set.
	DatabaseURL    string
	MigrateOnStart bool
	CatalogFixture string

	// RedisURL empty disables the candidate cache.
	RedisURL          string
	CandidateCacheTTL time.Duration
	CandidateLimit    int
}

// Load reads the environment; a .env file in the working directory is applied first
// and never overrides variables that are already set.
func Load() Config {
	_ = godotenv.Load()

	port, _ := strconv.Atoi(getenv("PORT", "8082"))
	mb, _ := strconv.Atoi(getenv("MAX_UPLOAD_MB", "256"))
	limit, _ := strconv.Atoi(getenv("CANDIDATE_LIMIT", "20"))
	migrateOnStart, _ := strconv.ParseBool(getenv("MIGRATE_ON_START", "true"))
	ttl, err := time.ParseDuration(getenv("CANDIDATE_CACHE_TTL", "10m"))
	if err != nil {
		ttl = 10 * time.Minute
	}
	origins := strings.Split(getenv("ALLOW_ORIGINS", "*"), ",")
	return Config{
		Host:              getenv("HOST", "127.0.0.1"),
		Port:              port,
		AllowOrigins:      origins,
		LogLevel:          getenv("LOG_LEVEL", "info"),
		LogFormat:         strings.ToLower(getenv("LOG_FORMAT", "console")),
		MaxUploadMB:       mb,
		LogFile:           getenv("LOG_FILE", "logs/pricebid-recon.log"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		MigrateOnStart:    migrateOnStart,
		CatalogFixture:    os.Getenv("CATALOG_FIXTURE"),
		RedisURL:          os.Getenv("REDIS_URL"),
		CandidateCacheTTL: ttl,
		CandidateLimit:    limit,
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func (c Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) * 1024 * 1024 }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
