// internal/config/config.go
//
// Environment-driven configuration. main loads .env (godotenv) first, so
// values here come from the process environment or that file.
//
// Environment variables (defaults in parentheses):
//   PORT (5175), LOG_LEVEL (info), DB_PATH (./data/seabattle.db),
//   GAME_STORE (sqlite | memory), STORE_TIMEOUT_MS (2000),
//   BOARD_STRICT (true), BOARD_RETRY_BUDGET (200),
//   JWT_SECRET, JWT_EXPIRES_DAYS (14), COOKIE_NAME (seabattle_token),
//   CLIENT_ORIGIN (http://localhost:5173), NODE_ENV.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     string
	LogLevel string

	DBPath       string
	GameStore    string // "sqlite" or "memory"
	StoreTimeout time.Duration

	BoardStrict      bool
	BoardRetryBudget int

	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	ClientOrigin   string
	Production     bool
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Port:             getEnv("PORT", "5175"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DBPath:           getEnv("DB_PATH", "./data/seabattle.db"),
		GameStore:        strings.ToLower(getEnv("GAME_STORE", "sqlite")),
		StoreTimeout:     time.Duration(envInt("STORE_TIMEOUT_MS", 2000)) * time.Millisecond,
		BoardStrict:      envBool("BOARD_STRICT", true),
		BoardRetryBudget: envInt("BOARD_RETRY_BUDGET", 200),
		JWTSecret:        getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiresDays:   envInt("JWT_EXPIRES_DAYS", 14),
		CookieName:       getEnv("COOKIE_NAME", "seabattle_token"),
		ClientOrigin:     getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Production:       os.Getenv("NODE_ENV") == "production",
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
