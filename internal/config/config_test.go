package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8080,
			ReadTimeout:        10 * time.Second,
			IdleTimeout:        120 * time.Second,
			ShutDownTimeout:    5 * time.Second,
			RequestTimeout:     1000 * time.Millisecond,
			CORSAllowedOrigins: "*",
		},
		Data: DataConfig{
			StorePath: "/tmp/catalog.db",
		},
		Remote: RemoteConfig{
			Type:    "http",
			BaseURL: "http://localhost:9000/api",
			Timeout: 15 * time.Second,
		},
		Sync: SyncConfig{
			ShortSpan:         time.Hour,
			LongSpan:          24 * time.Hour,
			DomainsSpan:       "long",
			CategoriesSpan:    "short",
			SchedulingEnabled: true,
			SchedulingPoll:    5 * time.Minute,
			PageSize:          20,
		},
		Misc: MiscConfig{
			GinMode:  "release",
			LogLevel: "info",
		},
	}
}

func TestConfig_Validate_Valid(t *testing.T) {
	if err := validConfig().validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestConfig_Validate_EmptyStorePath(t *testing.T) {
	cfg := validConfig()
	cfg.Data.StorePath = ""

	if err := cfg.validate(); err == nil {
		t.Error("expected error for empty store path")
	}
}

func TestConfig_Validate_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"zero port", 0},
		{"negative port", -1},
		{"too high port", 65536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port
			if err := cfg.validate(); err == nil {
				t.Errorf("expected error for port %d", tt.port)
			}
		})
	}
}

func TestConfig_Validate_InvalidTimeouts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
		{"negative write timeout", func(c *Config) { c.Server.WriteTimeout = -time.Second }},
		{"zero idle timeout", func(c *Config) { c.Server.IdleTimeout = 0 }},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutDownTimeout = 0 }},
		{"zero request timeout", func(c *Config) { c.Server.RequestTimeout = 0 }},
		{"zero remote timeout", func(c *Config) { c.Remote.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.validate(); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestConfig_Validate_Remote(t *testing.T) {
	cfg := validConfig()
	cfg.Remote.Type = "grpc"
	if err := cfg.validate(); err == nil {
		t.Error("expected error for unknown remote type")
	}

	cfg = validConfig()
	cfg.Remote.BaseURL = ""
	if err := cfg.validate(); err == nil {
		t.Error("expected error for empty base url")
	}

	cfg = validConfig()
	cfg.Remote.Type = "memory"
	cfg.Remote.BaseURL = ""
	if err := cfg.validate(); err != nil {
		t.Errorf("memory remote needs no base url, got: %v", err)
	}
}

func TestConfig_Validate_Sync(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero short span", func(c *Config) { c.Sync.ShortSpan = 0 }},
		{"short exceeds long", func(c *Config) { c.Sync.ShortSpan = 48 * time.Hour }},
		{"unknown domains span", func(c *Config) { c.Sync.DomainsSpan = "forever" }},
		{"unknown categories span", func(c *Config) { c.Sync.CategoriesSpan = "" }},
		{"zero scheduling poll", func(c *Config) { c.Sync.SchedulingPoll = 0 }},
		{"zero page size", func(c *Config) { c.Sync.PageSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.validate(); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_ENV_VAR", "custom_value")

	if result := getEnvOrDefault("TEST_ENV_VAR", "default_value"); result != "custom_value" {
		t.Errorf("expected 'custom_value', got '%s'", result)
	}
	if result := getEnvOrDefault("NONEXISTENT_VAR", "default_value"); result != "default_value" {
		t.Errorf("expected 'default_value', got '%s'", result)
	}
}

func TestGetEnvOrDefault_EmptyValue(t *testing.T) {
	t.Setenv("TEST_EMPTY_VAR", "")

	if result := getEnvOrDefault("TEST_EMPTY_VAR", "default_value"); result != "default_value" {
		t.Errorf("expected 'default_value' for empty env, got '%s'", result)
	}
}

func TestGetEnvOrViperPort_FromEnv(t *testing.T) {
	t.Setenv("TEST_PORT", "9090")

	port, err := getEnvOrViperPort("TEST_PORT", "server.port")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if port != 9090 {
		t.Errorf("expected 9090, got %d", port)
	}
}

func TestGetEnvOrViperPort_InvalidEnv(t *testing.T) {
	t.Setenv("TEST_PORT_INVALID", "not_a_number")

	if _, err := getEnvOrViperPort("TEST_PORT_INVALID", "server.port"); err == nil {
		t.Error("expected error for invalid port")
	}
}

func TestLoadConfig_WithValidDefaults(t *testing.T) {
	viper.Reset()
	tempDir := t.TempDir()
	t.Setenv("GO_CATALOG_CONFIG_PATH", tempDir)
	t.Setenv("GO_CATALOG_DATA_STORE_PATH", filepath.Join(tempDir, "data", "catalog.db"))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error loading config, got: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Sync.ShortSpan != time.Hour || cfg.Sync.LongSpan != 24*time.Hour {
		t.Errorf("unexpected default spans %s/%s", cfg.Sync.ShortSpan, cfg.Sync.LongSpan)
	}
	if cfg.Remote.Type != "http" {
		t.Errorf("expected http remote, got %s", cfg.Remote.Type)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "data")); err != nil {
		t.Errorf("expected store directory to be created: %v", err)
	}
}

func TestLoadConfig_FromFileAndEnv(t *testing.T) {
	viper.Reset()
	tempDir := t.TempDir()
	yaml := `
data:
  store_path: ` + filepath.Join(tempDir, "catalog.db") + `
remote:
  type: memory
sync:
  short_span: 30m
  page_size: 50
`
	if err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("GO_CATALOG_CONFIG_PATH", tempDir)
	t.Setenv("GO_CATALOG_SYNC_PAGE_SIZE", "10")
	t.Setenv("PORT", "9999")
	t.Setenv("CATALOG_API_TOKEN", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Remote.Type != "memory" {
		t.Errorf("expected memory remote, got %s", cfg.Remote.Type)
	}
	if cfg.Sync.ShortSpan != 30*time.Minute {
		t.Errorf("expected short span 30m, got %s", cfg.Sync.ShortSpan)
	}
	if cfg.Sync.PageSize != 10 {
		t.Errorf("expected env page size 10, got %d", cfg.Sync.PageSize)
	}
	if cfg.Remote.Token != "secret" {
		t.Errorf("expected token from env, got %q", cfg.Remote.Token)
	}
}

func TestLoadConfig_WithInvalidPort(t *testing.T) {
	viper.Reset()
	t.Setenv("GO_CATALOG_CONFIG_PATH", t.TempDir())
	t.Setenv("PORT", "not_a_port")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for invalid port, got nil")
	}
}

func TestLoadConfig_WithInvalidSpan(t *testing.T) {
	viper.Reset()
	tempDir := t.TempDir()
	t.Setenv("GO_CATALOG_CONFIG_PATH", tempDir)
	t.Setenv("GO_CATALOG_DATA_STORE_PATH", filepath.Join(tempDir, "catalog.db"))
	t.Setenv("GO_CATALOG_SYNC_DOMAINS_SPAN", "weekly")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for unknown span, got nil")
	}
}

func TestWatch_WithoutConfigFile(t *testing.T) {
	viper.Reset()
	tempDir := t.TempDir()
	t.Setenv("GO_CATALOG_CONFIG_PATH", tempDir)
	t.Setenv("GO_CATALOG_DATA_STORE_PATH", filepath.Join(tempDir, "catalog.db"))

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Watch(func(*Config) {}) {
		t.Error("expected no watch without a config file")
	}
}
