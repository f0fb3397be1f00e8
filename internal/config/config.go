package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration loaded from environment
// variables. It is the single source of truth for both binaries; each one
// reads only its own section.
type Config struct {
	Env string

	Console ConsoleConfig
	Sandbox SandboxConfig
}

// ConsoleConfig configures the admin console binary.
type ConsoleConfig struct {
	APIBaseURL    string
	SessionDBPath string
	HTTPTimeout   time.Duration
}

// SandboxConfig configures the local sandbox backend.
type SandboxConfig struct {
	Port      string
	JWTSecret string
	DBPath    string
	TokenTTL  time.Duration
}

// Load reads configuration from environment variables. If a .env file
// exists in the working directory, it is loaded first.
func Load() (*Config, error) {
	// Ignore a missing .env so environments relying solely on real
	// environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Env = getEnv("ENV", "development")

	cfg.Console = ConsoleConfig{
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:8080"),
		SessionDBPath: getEnv("SESSION_DB_PATH", defaultSessionPath()),
	}

	cfg.Sandbox = SandboxConfig{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", ""),
		DBPath:    getEnv("SANDBOX_DB_PATH", "sandbox.db"),
	}

	var err error
	if cfg.Console.HTTPTimeout, err = parseDurationEnv("HTTP_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	if cfg.Sandbox.TokenTTL, err = parseDurationEnv("TOKEN_TTL", "12h"); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	return cfg, nil
}

// defaultSessionPath puts the session database under the user's home
// directory, falling back to the working directory when home is unknown.
func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "payconsole-session.db"
	}
	return filepath.Join(home, ".payconsole", "session.db")
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseDurationEnv reads an environment variable and parses it as
// time.Duration, falling back to the provided default when unset.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
