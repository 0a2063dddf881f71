// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every tunable the server reads from the environment.
// Load it once in main; packages receive the values they need, not the struct.
type Config struct {
	Port string

	// DatabaseURL is the Postgres DSN for the track catalog. Empty disables
	// the Postgres provider (the server then starts with an empty catalog
	// unless one is injected, which is how tests run).
	DatabaseURL string

	RedisAddr string
	RedisDB   int

	// AudioBaseURL is the base URL of the audio blob store; a track's audio
	// ref is appended to it to form the fetch URL.
	AudioBaseURL        string
	AudioResolveTimeout time.Duration
	AudioCacheTTL       time.Duration

	CatalogRefreshInterval time.Duration

	// SessionSecret signs rejoin tokens. Generated fresh at startup when
	// unset, which invalidates outstanding tokens across restarts.
	SessionSecret string

	LogLevel string
}

// Load reads the environment with defaults suitable for local development.
func Load() Config {
	return Config{
		Port:                   getEnv("BARGEBO_PORT", "2137"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:                getEnvInt("REDIS_DB", 0),
		AudioBaseURL:           getEnv("AUDIO_BASE_URL", "http://localhost:9000/audio"),
		AudioResolveTimeout:    getEnvDuration("AUDIO_RESOLVE_TIMEOUT", 10*time.Second),
		AudioCacheTTL:          getEnvDuration("AUDIO_CACHE_TTL", 6*time.Hour),
		CatalogRefreshInterval: getEnvDuration("CATALOG_REFRESH_INTERVAL", 30*time.Minute),
		SessionSecret:          os.Getenv("SESSION_SECRET"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
