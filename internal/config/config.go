package config

import (
	"os"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Provider ProviderConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port string
	Env  string
	// BaseURL is the externally visible origin, used for OAuth redirects.
	BaseURL string
	// FrontendURL is where browser-facing redirects (landing, onboarding)
	// point.
	FrontendURL string
}

type DatabaseConfig struct {
	// URL empty means the in-memory store (development only).
	URL string
}

type SessionConfig struct {
	Secret     string
	Expiry     time.Duration
	CookieName string
}

type ProviderConfig struct {
	AuthURL        string
	TokenURL       string
	SessionDataURL string
	ClientID       string
	ClientSecret   string
	// GoogleClientIDs accepted when verifying Google ID tokens on the
	// callback path. Comma separated.
	GoogleClientIDs []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	sessionExpiry, err := time.ParseDuration(getEnv("SESSION_EXPIRY", "168h"))
	if err != nil {
		sessionExpiry = 7 * 24 * time.Hour
	}

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Env:         getEnv("ENV", "development"),
			BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", "change-me-in-production"),
			Expiry:     sessionExpiry,
			CookieName: getEnv("SESSION_COOKIE", "session_token"),
		},
		Provider: ProviderConfig{
			AuthURL:         getEnv("AUTH_PROVIDER_URL", ""),
			TokenURL:        getEnv("AUTH_PROVIDER_TOKEN_URL", ""),
			SessionDataURL:  getEnv("AUTH_SESSION_DATA_URL", ""),
			ClientID:        getEnv("AUTH_CLIENT_ID", ""),
			ClientSecret:    getEnv("AUTH_CLIENT_SECRET", ""),
			GoogleClientIDs: parseCSV(getEnv("GOOGLE_CLIENT_ID", "")),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
	}, nil
}

// IsProduction returns true if running in production.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// getEnv gets an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// parseCSV parses a comma-separated string into a slice of strings.
func parseCSV(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, s := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
