package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL is the root of the remote catalog site
	DefaultBaseURL = "http://coolrom.com.au"

	// DefaultUserAgent is sent on every request; the remote host rejects empty agents
	DefaultUserAgent = "Bla"

	// DefaultPageTimeout bounds each catalog, letter and resolve page request
	DefaultPageTimeout = 30 * time.Second

	// DefaultChunkSize is the read/write unit of the streaming fetcher
	DefaultChunkSize = 8 * 1024

	envPrefix = "COOLROMDL_"
)

// Config holds all configuration options for the downloader
type Config struct {
	Catalog   CatalogConfig   `yaml:"catalog" json:"catalog"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Download  DownloadConfig  `yaml:"download" json:"download"`
	Extract   ExtractConfig   `yaml:"extract" json:"extract"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// CatalogConfig describes the remote site
type CatalogConfig struct {
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	UserAgent   string        `yaml:"user_agent" json:"user_agent"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	PageTimeout time.Duration `yaml:"page_timeout" json:"page_timeout"`
}

// RateLimitConfig throttles catalog and resolution requests.
// A zero RequestsPerMinute disables throttling.
type RateLimitConfig struct {
	RequestsPerMinute int    `yaml:"requests_per_minute" json:"requests_per_minute"`
	Strategy          string `yaml:"strategy" json:"strategy"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	ChunkSize int    `yaml:"chunk_size" json:"chunk_size"`
	Clean     bool   `yaml:"clean" json:"clean"`
}

// ExtractConfig holds the post-extraction ownership policy
type ExtractConfig struct {
	Owner       string `yaml:"owner" json:"owner"`
	Permissions string `yaml:"permissions" json:"permissions"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:   DefaultBaseURL,
			UserAgent: DefaultUserAgent,
			// Binary downloads can run for minutes; the client timeout
			// covers the whole body read.
			Timeout:     0,
			PageTimeout: DefaultPageTimeout,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			Strategy:          "token_bucket",
		},
		Download: DownloadConfig{
			OutputDir: ".",
			ChunkSize: DefaultChunkSize,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv(envPrefix + "BASE_URL"); v != "" {
		c.Catalog.BaseURL = v
	}
	if v := os.Getenv(envPrefix + "USER_AGENT"); v != "" {
		c.Catalog.UserAgent = v
	}
	if v := os.Getenv(envPrefix + "TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT: %w", envPrefix, err)
		}
		c.Catalog.Timeout = d
	}
	if v := os.Getenv(envPrefix + "PAGE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sPAGE_TIMEOUT: %w", envPrefix, err)
		}
		c.Catalog.PageTimeout = d
	}
	if v := os.Getenv(envPrefix + "REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sREQUESTS_PER_MINUTE: %w", envPrefix, err)
		}
		c.RateLimit.RequestsPerMinute = n
	}
	if v := os.Getenv(envPrefix + "OUTPUT_DIR"); v != "" {
		c.Download.OutputDir = v
	}
	if v := os.Getenv(envPrefix + "CHUNK_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sCHUNK_SIZE: %w", envPrefix, err)
		}
		c.Download.ChunkSize = n
	}
	if v := os.Getenv(envPrefix + "CLEAN"); v != "" {
		c.Download.Clean = strings.ToLower(v) == "true"
	}
	if v := os.Getenv(envPrefix + "OWNER"); v != "" {
		c.Extract.Owner = v
	}
	if v := os.Getenv(envPrefix + "PERMISSIONS"); v != "" {
		c.Extract.Permissions = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(envPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
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

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".coolromdl.yaml",
		".coolromdl.yml",
		filepath.Join(home, ".config", "coolromdl", "config.yaml"),
		filepath.Join(home, ".config", "coolromdl", "config.yml"),
		filepath.Join(home, ".coolromdl.yaml"),
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

	if c.Catalog.BaseURL == "" {
		errs = append(errs, errors.New("catalog base URL is required"))
	}
	if strings.TrimSpace(c.Catalog.UserAgent) == "" {
		errs = append(errs, errors.New("user agent must not be empty"))
	}
	if c.Catalog.Timeout < 0 {
		errs = append(errs, errors.New("timeout cannot be negative"))
	}
	if c.Catalog.PageTimeout < 0 {
		errs = append(errs, errors.New("page timeout cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	switch c.RateLimit.Strategy {
	case "", "token_bucket", "sliding_window":
	default:
		errs = append(errs, fmt.Errorf("unknown rate limit strategy %q", c.RateLimit.Strategy))
	}

	if c.Download.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Download.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk size must be positive"))
	}

	if p := c.Extract.Permissions; p != "" {
		if _, err := strconv.ParseUint(p, 8, 32); err != nil {
			errs = append(errs, fmt.Errorf("permissions %q are not an octal mode", p))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in flags override the loaded values.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Download.OutputDir = v
	}
	if v, ok := flags["clean"].(bool); ok {
		c.Download.Clean = v
	}
	if v, ok := flags["user"].(string); ok && v != "" {
		c.Extract.Owner = v
	}
	if v, ok := flags["perms"].(string); ok && v != "" {
		c.Extract.Permissions = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["base-url"].(string); ok && v != "" {
		c.Catalog.BaseURL = v
	}
	if v, ok := flags["requests-per-minute"].(int); ok {
		c.RateLimit.RequestsPerMinute = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".coolromdl.env"))

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
