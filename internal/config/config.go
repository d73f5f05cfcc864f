package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr         string
	AllowedHosts []string
	WSEnabled    bool
}

// DatabaseConfig holds Postgres connection configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL        string
	StreamName string
}

// ESPNConfig holds upstream ESPN API client configuration
type ESPNConfig struct {
	SiteBaseURL string
	CoreBaseURL string
	Timeout     time.Duration
	MaxRetries  int
	Backoff     time.Duration
}

// SchedulerConfig holds periodic refresh configuration
type SchedulerConfig struct {
	Enabled            bool
	ScoreboardInterval time.Duration
	TeamsInterval      time.Duration
	LivePollInterval   time.Duration
	LivePollingEnabled bool
}

// JobsConfig holds ingestion job queue configuration
type JobsConfig struct {
	Workers int
}

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	ESPN      ESPNConfig
	Scheduler SchedulerConfig
	Jobs      JobsConfig
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present, without overriding
// variables already set in the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Addr:         getEnv("HTTP_ADDR", ":8000"),
			AllowedHosts: splitList(getEnv("ALLOWED_HOSTS", "")),
			WSEnabled:    getEnvBool("WS_ENABLED", true),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "postgres://localhost:5432/pressbox?sslmode=disable"),
		},
		Redis: RedisConfig{
			URL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
			StreamName: getEnv("STREAM_NAME", "pressbox:updates"),
		},
		ESPN: ESPNConfig{
			SiteBaseURL: getEnv("ESPN_SITE_API_URL", "https://site.api.espn.com/apis/site/v2/sports"),
			CoreBaseURL: getEnv("ESPN_CORE_API_URL", "https://sports.core.api.espn.com"),
			Timeout:     getEnvDuration("ESPN_TIMEOUT", 30*time.Second),
			MaxRetries:  getEnvInt("ESPN_MAX_RETRIES", 3),
			Backoff:     getEnvDuration("ESPN_BACKOFF", time.Second),
		},
		Scheduler: SchedulerConfig{
			Enabled:            getEnvBool("ENABLE_SCHEDULER", true),
			ScoreboardInterval: getEnvDuration("SCOREBOARD_REFRESH_INTERVAL", time.Hour),
			TeamsInterval:      getEnvDuration("TEAMS_REFRESH_INTERVAL", 168*time.Hour),
			LivePollInterval:   getEnvDuration("LIVE_POLL_INTERVAL", time.Minute),
			LivePollingEnabled: getEnvBool("ENABLE_LIVE_POLLING", true),
		},
		Jobs: JobsConfig{
			Workers: getEnvInt("JOB_WORKERS", 1),
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvDuration gets a duration environment variable (e.g. "30s", "1h")
// or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// splitList splits a comma-separated environment value, trimming
// whitespace and dropping empty entries.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
