/*
Package config reads the process configuration from the environment.
A local .env file is loaded automatically when present.
*/
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Config groups every setting the API needs at startup.
type Config struct {
	Port   int
	AppEnv string

	LLM        LLMConfig
	Compressor CompressorConfig
	Fitbit     FitbitConfig

	// SessionSecret signs the short-lived OAuth state cookie.
	SessionSecret string

	// StoreDriver selects the storage adapter: memory, sqlite or postgres.
	StoreDriver string
	SQLitePath  string
	Postgres    PostgresConfig
}

// LLMConfig configures the OpenAI-compatible chat completion provider.
type LLMConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	MaxTokens int64
	Referer   string
	Title     string
}

// CompressorConfig configures the optional remote context compressor.
type CompressorConfig struct {
	APIKey string
	URL    string
}

type FitbitConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	FrontendURL  string
}

type PostgresConfig struct {
	Database string
	Password string
	Username string
	Port     string
	Host     string
	Schema   string
}

// Load builds a Config from environment variables, applying defaults for
// anything unset or unparsable.
func Load() Config {
	return Config{
		Port:   envInt("PORT", 8000),
		AppEnv: envString("APP_ENV", "development"),
		LLM: LLMConfig{
			APIKey:    os.Getenv("OPENROUTER_API_KEY"),
			BaseURL:   envString("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:     envString("OPENROUTER_MODEL", "google/gemini-2.0-flash-001"),
			Timeout:   envDuration("LLM_TIMEOUT", 15*time.Second),
			MaxTokens: int64(envInt("LLM_MAX_TOKENS", 2500)),
			Referer:   envString("LLM_REFERER", "http://localhost:5173"),
			Title:     envString("LLM_TITLE", "VitaState"),
		},
		Compressor: CompressorConfig{
			APIKey: os.Getenv("SCALEDOWN_API_KEY"),
			URL:    os.Getenv("SCALEDOWN_URL"),
		},
		Fitbit: FitbitConfig{
			ClientID:     envString("FITBIT_CLIENT_ID", "23XXXX"),
			ClientSecret: envString("FITBIT_CLIENT_SECRET", "xxxxxxxx"),
			RedirectURI:  envString("FITBIT_REDIRECT_URI", "http://localhost:8000/auth/fitbit/callback"),
			FrontendURL:  envString("FRONTEND_URL", "http://localhost:5173"),
		},
		SessionSecret: envString("SESSION_SECRET", "vitastate-dev-session-secret"),
		StoreDriver:   strings.ToLower(envString("STORE_DRIVER", "memory")),
		SQLitePath:    envString("SQLITE_PATH", "vitastate.db"),
		Postgres: PostgresConfig{
			Database: os.Getenv("VITA_DB_DATABASE"),
			Password: os.Getenv("VITA_DB_PASSWORD"),
			Username: os.Getenv("VITA_DB_USERNAME"),
			Port:     envString("VITA_DB_PORT", "5432"),
			Host:     envString("VITA_DB_HOST", "localhost"),
			Schema:   envString("VITA_DB_SCHEMA", "public"),
		},
	}
}

// IsProduction reports whether the process runs with APP_ENV=production.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MockMode reports whether the Fitbit credentials are unset placeholders.
// Real credentials never enable the mock token path.
func (f FitbitConfig) MockMode() bool {
	return f.ClientID == "" || f.ClientSecret == "" || strings.Contains(f.ClientID, "XXXX")
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}
