package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the service
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Database  DatabaseConfig  `yaml:"database" json:"database"`
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`
	Session   SessionConfig   `yaml:"session" json:"session"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port            string        `yaml:"port" json:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout" env:"IGSERVE_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout" env:"IGSERVE_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" env:"IGSERVE_SHUTDOWN_TIMEOUT"`

	// TrustProxy honours X-Forwarded-For and X-Real-IP for client addresses
	TrustProxy bool `yaml:"trust_proxy" json:"trust_proxy" env:"IGSERVE_TRUST_PROXY"`
}

// DatabaseConfig holds the relational store connection settings
type DatabaseConfig struct {
	URL          string `yaml:"url" json:"url" env:"DATABASE_URL"`
	MaxOpenConns int    `yaml:"max_open_conns" json:"max_open_conns" env:"IGSERVE_DB_MAX_OPEN_CONNS"`

	// ConnectAttempts bounds how often startup pings the database before giving up
	ConnectAttempts int `yaml:"connect_attempts" json:"connect_attempts" env:"IGSERVE_DB_CONNECT_ATTEMPTS"`
}

// InstagramConfig holds Instagram account and client settings
type InstagramConfig struct {
	Username  string        `yaml:"username" json:"username" env:"INSTA_USERNAME"`
	Password  string        `yaml:"password" json:"password" env:"INSTA_PASSWORD"`
	UserAgent string        `yaml:"user_agent" json:"user_agent" env:"IGSERVE_USER_AGENT"`
	BaseURL   string        `yaml:"base_url" json:"base_url" env:"IGSERVE_INSTAGRAM_BASE_URL"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout" env:"IGSERVE_INSTAGRAM_TIMEOUT"`
}

// SessionConfig controls where cached Instagram sessions are kept
type SessionConfig struct {
	Directory  string `yaml:"directory" json:"directory" env:"IGSERVE_SESSION_DIR"`
	UseKeyring bool   `yaml:"use_keyring" json:"use_keyring" env:"IGSERVE_SESSION_KEYRING"`
	Passphrase string `yaml:"passphrase" json:"passphrase" env:"IGSERVE_PASSPHRASE"`
}

// RateLimitConfig throttles the Instagram endpoints per client address.
// RequestsPerMinute of 0 disables throttling.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute" env:"IGSERVE_REQUESTS_PER_MINUTE"`
	BurstSize         int `yaml:"burst_size" json:"burst_size" env:"IGSERVE_RATE_LIMIT_BURST"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"IGSERVE_LOG_LEVEL"`
	Format string `yaml:"format" json:"format" env:"IGSERVE_LOG_FORMAT"`
	File   string `yaml:"file" json:"file" env:"IGSERVE_LOG_FILE"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "5050",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			URL:             "sqlite://igserve.db",
			MaxOpenConns:    10,
			ConnectAttempts: 5,
		},
		Instagram: InstagramConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			BaseURL:   "https://www.instagram.com",
			Timeout:   30 * time.Second,
		},
		Session: SessionConfig{
			UseKeyring: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			BurstSize:         5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromEnv overrides fields whose environment variables are set
func (c *Config) LoadFromEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
// An empty path searches the default locations; finding nothing is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"igserve.yaml",
		".igserve.yaml",
		filepath.Join(home, ".config", "igserve", "config.yaml"),
		filepath.Join(home, ".igserve.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %q", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server timeouts must be positive"))
	}

	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, errors.New("database URL is required"))
	}
	if c.Database.ConnectAttempts < 1 {
		errs = append(errs, errors.New("database connect attempts must be at least 1"))
	}

	if c.Instagram.Timeout <= 0 {
		errs = append(errs, errors.New("instagram timeout must be positive"))
	}
	if c.Instagram.BaseURL == "" {
		errs = append(errs, errors.New("instagram base URL is required"))
	}
	if c.Instagram.Password != "" && c.Instagram.Username == "" {
		errs = append(errs, errors.New("instagram password set without a username"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		errs = append(errs, errors.New("invalid log format"))
	}

	return errors.Join(errs...)
}

// HasInstagramCredentials reports whether a login can be attempted
func (c *Config) HasInstagramCredentials() bool {
	return c.Instagram.Username != "" && c.Instagram.Password != ""
}

// Masked returns a copy safe to print, with secrets hidden
func (c *Config) Masked() *Config {
	masked := *c
	masked.Instagram.Password = maskString(c.Instagram.Password)
	masked.Session.Passphrase = maskString(c.Session.Passphrase)
	masked.Database.URL = MaskDatabaseURL(c.Database.URL)
	return &masked
}

// MaskDatabaseURL hides the credentials part of a connection string
func MaskDatabaseURL(url string) string {
	at := strings.LastIndex(url, "@")
	scheme := strings.Index(url, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return url
	}
	return url[:scheme+3] + "***" + url[at:]
}

func maskString(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if port, ok := flags["port"].(string); ok && port != "" {
		c.Server.Port = port
	}
	if dbURL, ok := flags["database-url"].(string); ok && dbURL != "" {
		c.Database.URL = dbURL
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat, ok := flags["log-format"].(string); ok && logFormat != "" {
		c.Logging.Format = logFormat
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
