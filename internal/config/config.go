// Package config loads RecipeBox configuration from flags, environment variables, and .env files.
package config

import (
	"bufio"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Metrics   MetricsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage locations.
type DataConfig struct {
	// BasePath is the root data directory. The database, image store,
	// search index and revocation list all live under it.
	BasePath string
}

// DatabasePath returns the SQLite database file path.
func (d DataConfig) DatabasePath() string {
	return filepath.Join(d.BasePath, "recipebox.db")
}

// ImagesPath returns the root directory for uploaded images.
func (d DataConfig) ImagesPath() string {
	return filepath.Join(d.BasePath, "images")
}

// SearchPath returns the bleve index directory.
func (d DataConfig) SearchPath() string {
	return filepath.Join(d.BasePath, "search")
}

// RevocationPath returns the badger directory holding revoked token IDs.
func (d DataConfig) RevocationPath() string {
	return filepath.Join(d.BasePath, "revoked")
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // default: 8080
	ReadTimeout  time.Duration // default: 15s
	WriteTimeout time.Duration // default: 15s
	IdleTimeout  time.Duration // default: 60s
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key (32 bytes). Set by auth.LoadOrGenerateKey
	// when not configured explicitly.
	TokenKey      []byte
	TokenDuration time.Duration
}

// RateLimitConfig limits unauthenticated endpoints per client IP.
type RateLimitConfig struct {
	AuthPerMinute int
	AuthBurst     int
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// flagValues holds raw command-line values. Empty means "not set".
type flagValues struct {
	env            string
	logLevel       string
	dataPath       string
	tokenKey       string
	tokenDuration  string
	port           string
	readTimeout    string
	writeTimeout   string
	idleTimeout    string
	authPerMinute  string
	authBurst      string
	corsOrigins    string
	metricsEnabled string
	envFile        string
}

func registerFlags(fs *flag.FlagSet) *flagValues {
	v := &flagValues{}
	fs.StringVar(&v.env, "env", "", "Environment (development, staging, production)")
	fs.StringVar(&v.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&v.dataPath, "data-path", "", "Base path for database, images and indexes")
	fs.StringVar(&v.tokenKey, "token-key", "", "Hex-encoded 32 byte PASETO key")
	fs.StringVar(&v.tokenDuration, "token-duration", "", "Access token lifetime (default: 24h)")
	fs.StringVar(&v.port, "port", "", "Server port (default: 8080)")
	fs.StringVar(&v.readTimeout, "read-timeout", "", "HTTP read timeout (default: 15s)")
	fs.StringVar(&v.writeTimeout, "write-timeout", "", "HTTP write timeout (default: 15s)")
	fs.StringVar(&v.idleTimeout, "idle-timeout", "", "HTTP idle timeout (default: 60s)")
	fs.StringVar(&v.authPerMinute, "auth-rate", "", "Auth requests allowed per minute per IP (default: 20)")
	fs.StringVar(&v.authBurst, "auth-burst", "", "Auth request burst per IP (default: 10)")
	fs.StringVar(&v.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins")
	fs.StringVar(&v.metricsEnabled, "metrics", "", "Expose /metrics (default: true)")
	fs.StringVar(&v.envFile, "env-file", ".env", "Path to .env file")
	return v
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load parses args with a private flag set and builds the configuration.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("recipebox", flag.ContinueOnError)
	flags := registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	return build(flags)
}

// LoadFromEnv builds the configuration from environment variables, the
// .env file and defaults only. Used by tools that own their own flags.
func LoadFromEnv() (*Config, error) {
	return build(&flagValues{envFile: ".env"})
}

func build(f *flagValues) (*Config, error) {
	// Missing .env file is fine.
	_ = loadEnvFile(f.envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(f.env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(f.logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(f.dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port: getConfigValue(f.port, "SERVER_PORT", "8080"),
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute: getIntConfigValue(f.authPerMinute, "AUTH_RATE_PER_MINUTE", 20),
			AuthBurst:     getIntConfigValue(f.authBurst, "AUTH_RATE_BURST", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getConfigValue(f.corsOrigins, "CORS_ALLOWED_ORIGINS", "*")),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolConfigValue(f.metricsEnabled, "METRICS_ENABLED", true),
		},
	}

	if keyHex := getConfigValue(f.tokenKey, "TOKEN_KEY", ""); keyHex != "" {
		key, err := decodeKey(keyHex)
		if err != nil {
			return nil, err
		}
		cfg.Auth.TokenKey = key
	}

	durations := []struct {
		flagValue, envKey, def string
		dst                    *time.Duration
	}{
		{f.tokenDuration, "TOKEN_DURATION", "24h", &cfg.Auth.TokenDuration},
		{f.readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{f.writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{f.idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Auth.TokenDuration <= 0 {
		return errors.New("token duration must be positive")
	}

	if c.RateLimit.AuthPerMinute <= 0 || c.RateLimit.AuthBurst <= 0 {
		return errors.New("auth rate limit and burst must be positive")
	}

	return nil
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func decodeKey(keyHex string) ([]byte, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_KEY: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid TOKEN_KEY: expected 32 bytes, got %d", len(key))
	}
	return key, nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, "RecipeBox", "data"))
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1" and "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- path comes from the operator
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real env vars win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
