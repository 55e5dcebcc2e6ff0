package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Catalog.BaseURL != DefaultBaseURL {
		t.Errorf("Expected default base URL to be %s, got %s", DefaultBaseURL, config.Catalog.BaseURL)
	}

	if config.Download.ChunkSize != 8192 {
		t.Errorf("Expected default chunk size to be 8192, got %d", config.Download.ChunkSize)
	}

	if config.Download.OutputDir != "." {
		t.Errorf("Expected default output directory to be ., got %s", config.Download.OutputDir)
	}

	if config.Catalog.UserAgent == "" {
		t.Error("Expected a non-empty default user agent")
	}

	if config.Catalog.Timeout != 0 || config.Catalog.PageTimeout != DefaultPageTimeout {
		t.Errorf("Expected untimed downloads and a %s page timeout, got %s and %s",
			DefaultPageTimeout, config.Catalog.Timeout, config.Catalog.PageTimeout)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("COOLROMDL_BASE_URL", "http://example.test")
	t.Setenv("COOLROMDL_USER_AGENT", "test-agent")
	t.Setenv("COOLROMDL_TIMEOUT", "45s")
	t.Setenv("COOLROMDL_PAGE_TIMEOUT", "5s")
	t.Setenv("COOLROMDL_REQUESTS_PER_MINUTE", "30")
	t.Setenv("COOLROMDL_OUTPUT_DIR", "/tmp/roms")
	t.Setenv("COOLROMDL_CHUNK_SIZE", "4096")
	t.Setenv("COOLROMDL_CLEAN", "true")
	t.Setenv("COOLROMDL_OWNER", "alice")
	t.Setenv("COOLROMDL_PERMISSIONS", "755")
	t.Setenv("COOLROMDL_LOG_LEVEL", "debug")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Catalog.BaseURL != "http://example.test" {
		t.Errorf("Expected base URL to be http://example.test, got %s", config.Catalog.BaseURL)
	}
	if config.Catalog.UserAgent != "test-agent" {
		t.Errorf("Expected user agent to be test-agent, got %s", config.Catalog.UserAgent)
	}
	if config.Catalog.Timeout != 45*time.Second {
		t.Errorf("Expected timeout to be 45s, got %s", config.Catalog.Timeout)
	}
	if config.Catalog.PageTimeout != 5*time.Second {
		t.Errorf("Expected page timeout to be 5s, got %s", config.Catalog.PageTimeout)
	}
	if config.RateLimit.RequestsPerMinute != 30 {
		t.Errorf("Expected requests per minute to be 30, got %d", config.RateLimit.RequestsPerMinute)
	}
	if config.Download.OutputDir != "/tmp/roms" {
		t.Errorf("Expected output directory to be /tmp/roms, got %s", config.Download.OutputDir)
	}
	if config.Download.ChunkSize != 4096 {
		t.Errorf("Expected chunk size to be 4096, got %d", config.Download.ChunkSize)
	}
	if !config.Download.Clean {
		t.Error("Expected clean to be enabled")
	}
	if config.Extract.Owner != "alice" || config.Extract.Permissions != "755" {
		t.Errorf("Unexpected extract config: %+v", config.Extract)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("COOLROMDL_CHUNK_SIZE", "lots")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err == nil {
		t.Error("Expected an error for a non-numeric chunk size")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "empty user agent",
			mutate:    func(c *Config) { c.Catalog.UserAgent = "  " },
			wantError: "user agent",
		},
		{
			name:      "negative page timeout",
			mutate:    func(c *Config) { c.Catalog.PageTimeout = -time.Second },
			wantError: "page timeout",
		},
		{
			name:      "zero chunk size",
			mutate:    func(c *Config) { c.Download.ChunkSize = 0 },
			wantError: "chunk size",
		},
		{
			name:      "non-octal permissions",
			mutate:    func(c *Config) { c.Extract.Permissions = "789" },
			wantError: "octal",
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "verbose" },
			wantError: "log level",
		},
		{
			name:      "unknown rate limit strategy",
			mutate:    func(c *Config) { c.RateLimit.Strategy = "leaky" },
			wantError: "strategy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantError == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantError) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantError)
			}
		})
	}
}

func TestLoadFromFileAndSave(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nested", "config.yaml")

	original := DefaultConfig()
	original.Download.OutputDir = "/srv/roms"
	original.Extract.Owner = "games"
	original.Extract.Permissions = "750"

	if err := original.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(configPath); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Download.OutputDir != "/srv/roms" {
		t.Errorf("Expected output directory /srv/roms, got %s", loaded.Download.OutputDir)
	}
	if loaded.Extract.Owner != "games" || loaded.Extract.Permissions != "750" {
		t.Errorf("Unexpected extract config after round trip: %+v", loaded.Extract)
	}
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(configPath, []byte("download: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(configPath); err == nil {
		t.Error("Expected an error for invalid YAML")
	}
}

func TestLoadPrecedence(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlData := "download:\n  output_dir: /from/file\n  chunk_size: 1024\nextract:\n  owner: fileowner\n"
	if err := os.WriteFile(configPath, []byte(yamlData), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	t.Setenv("COOLROMDL_OWNER", "envowner")

	config, err := Load(configPath, map[string]interface{}{
		"output": "/from/flags",
		"clean":  true,
	})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if config.Download.OutputDir != "/from/flags" {
		t.Errorf("Expected flags to win for output dir, got %s", config.Download.OutputDir)
	}
	if config.Download.ChunkSize != 1024 {
		t.Errorf("Expected chunk size from file, got %d", config.Download.ChunkSize)
	}
	if config.Extract.Owner != "envowner" {
		t.Errorf("Expected env to override file owner, got %s", config.Extract.Owner)
	}
	if !config.Download.Clean {
		t.Error("Expected clean from flags")
	}
}
