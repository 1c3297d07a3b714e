// Package config loads the settings of the demo server from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by cmd/server.
type Config struct {
	HTTP     HTTPConfig
	Logger   LoggerConfig
	Envelope EnvelopeConfig
	Probes   ProbeConfig
}

// HTTPConfig holds the listener and request handling settings.
type HTTPConfig struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// LoggerConfig holds the minimum level of the JSON slog handler.
type LoggerConfig struct {
	Level slog.Level
}

// EnvelopeConfig tunes the envelope renderer shared by handlers and router.
type EnvelopeConfig struct {
	ValidationMessage string
	InPlace           bool
}

// ProbeConfig lists the optional readiness dependencies. Empty URLs disable
// the matching check.
type ProbeConfig struct {
	MongoURI          string
	UpstreamHealthURL string
	Timeout           time.Duration
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults so the server boots without any setup.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	level, err := parseLevel(getString("APP_LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Addr:            getString("APP_ADDR", ":8080"),
			RequestTimeout:  getDuration("APP_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDuration("APP_SHUTDOWN_TIMEOUT", 15*time.Second),
			CORSOrigins:     getList("APP_CORS_ORIGINS"),
		},
		Logger: LoggerConfig{Level: level},
		Envelope: EnvelopeConfig{
			ValidationMessage: getString("APP_VALIDATION_MESSAGE", "Validation failed"),
			InPlace:           getBool("APP_ENVELOPE_IN_PLACE", false),
		},
		Probes: ProbeConfig{
			MongoURI:          os.Getenv("APP_MONGO_URI"),
			UpstreamHealthURL: os.Getenv("APP_UPSTREAM_HEALTH_URL"),
			Timeout:           getDuration("APP_PROBE_TIMEOUT", 2*time.Second),
		},
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: APP_LOG_LEVEL: %w", err)
	}
	return level, nil
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// getList splits a comma separated variable, dropping blank entries.
func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
