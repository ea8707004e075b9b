/*
Package configs is responsible for loading and parsing the application's configuration settings.

Every setting is read from an environment variable. The store settings decide which variant of the
credential and message stores the server runs with, and whether the remote variant counts as
configured at all.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	// PlaceholderStoreURL is the literal value CHAT_STORE_URL holds until an operator fills it in.
	PlaceholderStoreURL = "YOUR_STORE_URL"

	// PlaceholderStoreKey is the literal value CHAT_STORE_KEY holds until an operator fills it in.
	PlaceholderStoreKey = "YOUR_STORE_KEY"

	// DriverRemote keeps users and messages in Postgres and fans out inserts through LISTEN/NOTIFY.
	DriverRemote = "remote"

	// DriverLocal keeps users and messages in a key-value mapping shared by the tabs of one device.
	DriverLocal = "local"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment    string
	Port           int
	PowDifficulty  int
	MetricsEnabled bool

	// Security Settings
	AllowedOrigins []string
	JWTSecret      string

	// Store Settings
	StoreDriver string
	StoreURL    string
	StoreKey    string
	LocalKV     string

	// S3 Storage Settings (optional; attachments fall back to file-name placeholders)
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicBaseURL   string
}

// StoreConfigured reports whether the stores selected by StoreDriver can be used.
// The local driver needs no settings. The remote driver is unconfigured while either of its two
// settings still holds its placeholder.
func (c *AppConfig) StoreConfigured() bool {
	if c.StoreDriver == DriverLocal {
		return true
	}
	return c.StoreURL != PlaceholderStoreURL && c.StoreKey != PlaceholderStoreKey
}

// AttachmentsEnabled reports whether all S3 settings are present.
func (c *AppConfig) AttachmentsEnabled() bool {
	return c.S3BucketName != "" && c.S3Endpoint != "" && c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary type conversions and validation.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = getEnv("ENVIRONMENT", "development")

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	difficulty, err := strconv.Atoi(getEnv("POW_DIFFICULTY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid POW_DIFFICULTY environment variable: %w", err)
	}
	if difficulty < 0 || difficulty > 64 {
		return nil, fmt.Errorf("POW_DIFFICULTY %d must be between 0 and 64", difficulty)
	}
	cfg.PowDifficulty = difficulty

	metricsEnabled, err := strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_ENABLED environment variable: %w", err)
	}
	cfg.MetricsEnabled = metricsEnabled

	// --- Security Settings ---
	cfg.AllowedOrigins = []string{}
	if originsStr := os.Getenv("ALLOWED_ORIGINS"); originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		if cfg.Environment != "development" {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
		jwtSecret = "your_default_insecure_secret_key_change_me"
	}
	cfg.JWTSecret = jwtSecret

	// --- Store Settings ---
	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", DriverRemote))
	if cfg.StoreDriver != DriverRemote && cfg.StoreDriver != DriverLocal {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: expected %q or %q", cfg.StoreDriver, DriverRemote, DriverLocal)
	}

	cfg.StoreURL = getEnv("CHAT_STORE_URL", PlaceholderStoreURL)
	cfg.StoreKey = getEnv("CHAT_STORE_KEY", PlaceholderStoreKey)
	cfg.LocalKV = getEnv("LOCAL_KV", "file:majlis-data.json")

	// --- S3 Storage Settings ---
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
	cfg.S3PublicBaseURL = strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/")

	if cfg.S3BucketName != "" && !cfg.AttachmentsEnabled() {
		return nil, fmt.Errorf("S3_BUCKET_NAME is set but S3_ENDPOINT, S3_ACCESS_KEY_ID or S3_SECRET_ACCESS_KEY is missing")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
