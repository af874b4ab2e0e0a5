// Package config holds process configuration and the hierarchy profile
// loader.
package config

import "os"

// Config holds engine process configuration.
type Config struct {
	LogLevel    string
	DatabaseURL string
	ProfileDir  string
	Telemetry   bool
}

// Load loads configuration from environment variables.
func Load() *Config {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	// Empty means the in-memory policy store; set to a sqlite path to persist.
	dbURL := os.Getenv("DATABASE_URL")

	profileDir := os.Getenv("PROFILE_DIR")
	if profileDir == "" {
		profileDir = "profiles"
	}

	telemetry := os.Getenv("TELEMETRY") == "true"

	return &Config{
		LogLevel:    logLevel,
		DatabaseURL: dbURL,
		ProfileDir:  profileDir,
		Telemetry:   telemetry,
	}
}
