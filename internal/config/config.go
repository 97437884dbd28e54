// Package config loads server settings from the environment once at startup.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mmynk/carpool/internal/calculator"
)

// Mode selects between the single implicit legacy group and named groups.
type Mode string

const (
	// ModeLegacy pins every request to the implicit group "".
	ModeLegacy Mode = "legacy"
	// ModeMulti requires a group id on group-scoped requests.
	ModeMulti Mode = "multi"
)

// ParseMode parses a CARPOOL_MODE value. Empty means multi.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeMulti:
		return ModeMulti, nil
	case ModeLegacy:
		return ModeLegacy, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want legacy or multi)", s)
	}
}

// Config holds all configuration for the server and CLI.
type Config struct {
	// Storage
	DBPath string

	// Server
	ServerAddr         string
	CORSAllowedOrigins []string

	// Logging
	LogLevel string

	// Accounting
	Mode   Mode
	Policy calculator.Policy

	// Write rate limit, per second
	WriteRateLimit float64
	WriteRateBurst int
}

// Load reads an optional .env file, then the environment.
// Invalid enum values are errors; malformed numbers fall back to defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:             getEnvString("DB_PATH", "./data/carpool.db"),
		ServerAddr:         getEnvString("SERVER_ADDR", ":8080"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:           getEnvString("LOG_LEVEL", "info"),
		WriteRateLimit:     getEnvFloat("WRITE_RATE_LIMIT", 5),
		WriteRateBurst:     getEnvInt("WRITE_RATE_BURST", 10),
	}

	mode, err := ParseMode(os.Getenv("CARPOOL_MODE"))
	if err != nil {
		return nil, fmt.Errorf("CARPOOL_MODE: %w", err)
	}
	cfg.Mode = mode

	policy, err := calculator.ParsePolicy(os.Getenv("CREDIT_POLICY"))
	if err != nil {
		return nil, fmt.Errorf("CREDIT_POLICY: %w", err)
	}
	cfg.Policy = policy

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
