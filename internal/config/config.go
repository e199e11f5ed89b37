// Package config loads daemon configuration from the environment and
// account secrets from a credentials file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all daemon configuration
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DatabaseURL   string
	Port          int
	ESPNBaseURL   string
	CORSOrigins   []string

	ActivePollInterval    time.Duration
	IdlePollInterval      time.Duration
	ScoreboardRefreshHour int
	SummaryConcurrency    int

	SeasonYear      int
	NinetyThreshold float64
	CancelThreshold float64

	PollDurationMinutes int
	CancelCheckDelay    time.Duration
	HeartbeatInterval   time.Duration

	TweetBucketCapacity int
	TweetBucketRefill   time.Duration
}

// Load reads configuration from environment variables
func Load() Config {
	return Config{
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		DatabaseURL:   getEnv("DATABASE_URL", "postgres://localhost/surrender_index?sslmode=disable"),
		Port:          getEnvInt("PORT", 8080),
		ESPNBaseURL:   getEnv("ESPN_BASE_URL", "https://site.api.espn.com/apis/site/v2/sports/football/nfl"),
		CORSOrigins:   getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		ActivePollInterval:    getEnvDuration("ACTIVE_POLL_INTERVAL", 30*time.Second),
		IdlePollInterval:      getEnvDuration("IDLE_POLL_INTERVAL", 15*time.Minute),
		ScoreboardRefreshHour: getEnvInt("SCOREBOARD_REFRESH_HOUR", 5),
		SummaryConcurrency:    getEnvInt("SUMMARY_CONCURRENCY", 4),

		SeasonYear:      getEnvInt("SEASON_YEAR", CurrentSeason(time.Now())),
		NinetyThreshold: getEnvFloat("NINETY_THRESHOLD", 90.0),
		CancelThreshold: getEnvFloat("CANCEL_THRESHOLD", 66.67),

		PollDurationMinutes: getEnvInt("POLL_DURATION_MINUTES", 60),
		CancelCheckDelay:    getEnvDuration("CANCEL_CHECK_DELAY", 61*time.Minute),
		HeartbeatInterval:   getEnvDuration("HEARTBEAT_INTERVAL", 24*time.Hour),

		TweetBucketCapacity: getEnvInt("TWEET_BUCKET_CAPACITY", 50),
		TweetBucketRefill:   getEnvDuration("TWEET_BUCKET_REFILL", 30*time.Minute),
	}
}

// CurrentSeason returns the NFL season a date belongs to. Seasons run
// September through February, so January playoff games still count toward
// the prior year's season.
func CurrentSeason(now time.Time) int {
	if now.Month() >= time.August {
		return now.Year()
	}
	return now.Year() - 1
}

func getEnv(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
