package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/refresh"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Data   DataConfig
	Remote RemoteConfig
	Sync   SyncConfig
	Misc   MiscConfig
}

type ServerConfig struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutDownTimeout    time.Duration
	RequestTimeout     time.Duration
	CORSAllowedOrigins string
}

type DataConfig struct {
	StorePath string
}

type RemoteConfig struct {
	Type    string
	BaseURL string
	Token   string
	Timeout time.Duration
}

// SyncConfig controls the staleness spans and the background refresh loop.
type SyncConfig struct {
	ShortSpan         time.Duration
	LongSpan          time.Duration
	DomainsSpan       string
	CategoriesSpan    string
	SchedulingEnabled bool
	SchedulingPoll    time.Duration
	PageSize          int
}

type MiscConfig struct {
	GinMode     string
	LogLevel    string
	Environment string
}

const envPrefix = "GO_CATALOG"

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "0s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.shutdown_timeout", "5s")
	viper.SetDefault("server.request_timeout", "2s")
	viper.SetDefault("server.cors_allowed_origins", "")

	viper.SetDefault("data.store_path", "./config/data/catalog.db")

	viper.SetDefault("remote.type", "http")
	viper.SetDefault("remote.base_url", "http://localhost:9000/api")
	viper.SetDefault("remote.timeout", "15s")

	viper.SetDefault("sync.short_span", refresh.DefaultShort.String())
	viper.SetDefault("sync.long_span", refresh.DefaultLong.String())
	viper.SetDefault("sync.domains_span", "long")
	viper.SetDefault("sync.categories_span", "long")
	viper.SetDefault("sync.scheduling_enabled", true)
	viper.SetDefault("sync.scheduling_poll", "5m")
	viper.SetDefault("sync.page_size", 20)

	viper.SetDefault("misc.gin_mode", "release")
	viper.SetDefault("misc.log_level", "info")
	viper.SetDefault("misc.environment", "production")
}

// LoadConfig reads .env, config.yaml under GO_CATALOG_CONFIG_PATH and the
// environment, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithComponent("config").Warnf("ignoring .env: %v", err)
	}

	confPath := getEnvOrDefault(envPrefix+"_CONFIG_PATH", "./config")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(confPath)

	setDefaults()

	// GO_CATALOG_SYNC_PAGE_SIZE overrides sync.page_size
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
		logger.WithComponent("config").Info("no config file found, using defaults and env vars")
	}

	cfg, err := build()
	if err != nil {
		return nil, err
	}

	if err := ensureStoreDir(cfg.Data.StorePath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch calls fn with the reloaded configuration whenever the config file
// changes. An invalid file is logged and ignored. It returns false when no
// config file is in use.
func Watch(fn func(*Config)) bool {
	if viper.ConfigFileUsed() == "" {
		return false
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := build()
		if err != nil {
			logger.WithComponent("config").Errorf("ignoring invalid config change in %s: %v", e.Name, err)
			return
		}
		logger.WithComponent("config").Infof("config reloaded from %s", e.Name)
		fn(cfg)
	})
	viper.WatchConfig()
	return true
}

func build() (*Config, error) {
	port, err := getEnvOrViperPort("PORT", "server.port")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               port,
			ReadTimeout:        viper.GetDuration("server.read_timeout"),
			WriteTimeout:       viper.GetDuration("server.write_timeout"),
			IdleTimeout:        viper.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    viper.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     viper.GetDuration("server.request_timeout"),
			CORSAllowedOrigins: viper.GetString("server.cors_allowed_origins"),
		},
		Data: DataConfig{
			StorePath: viper.GetString("data.store_path"),
		},
		Remote: RemoteConfig{
			Type:    viper.GetString("remote.type"),
			BaseURL: viper.GetString("remote.base_url"),
			Token:   getEnvOrDefault("CATALOG_API_TOKEN", viper.GetString("remote.token")),
			Timeout: viper.GetDuration("remote.timeout"),
		},
		Sync: SyncConfig{
			ShortSpan:         viper.GetDuration("sync.short_span"),
			LongSpan:          viper.GetDuration("sync.long_span"),
			DomainsSpan:       viper.GetString("sync.domains_span"),
			CategoriesSpan:    viper.GetString("sync.categories_span"),
			SchedulingEnabled: viper.GetBool("sync.scheduling_enabled"),
			SchedulingPoll:    viper.GetDuration("sync.scheduling_poll"),
			PageSize:          viper.GetInt("sync.page_size"),
		},
		Misc: MiscConfig{
			GinMode:     viper.GetString("misc.gin_mode"),
			LogLevel:    viper.GetString("misc.log_level"),
			Environment: viper.GetString("misc.environment"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return errors.New("server read timeout must be > 0")
	}
	if c.Server.WriteTimeout < 0 {
		return errors.New("server write timeout must be >= 0")
	}
	if c.Server.IdleTimeout <= 0 {
		return errors.New("server idle timeout must be > 0")
	}
	if c.Server.ShutDownTimeout <= 0 {
		return errors.New("server shutdown timeout must be > 0")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server request timeout must be > 0")
	}
	if c.Data.StorePath == "" {
		return errors.New("data store path is empty")
	}
	switch c.Remote.Type {
	case "http":
		if c.Remote.BaseURL == "" {
			return errors.New("remote base url is empty")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown remote type: %q", c.Remote.Type)
	}
	if c.Remote.Timeout <= 0 {
		return errors.New("remote timeout must be > 0")
	}
	if c.Sync.ShortSpan <= 0 || c.Sync.LongSpan <= 0 {
		return errors.New("sync spans must be > 0")
	}
	if c.Sync.ShortSpan > c.Sync.LongSpan {
		return fmt.Errorf("short span %s exceeds long span %s", c.Sync.ShortSpan, c.Sync.LongSpan)
	}
	if _, err := refresh.ParseSpan(c.Sync.DomainsSpan); err != nil {
		return fmt.Errorf("domains span: %w", err)
	}
	if _, err := refresh.ParseSpan(c.Sync.CategoriesSpan); err != nil {
		return fmt.Errorf("categories span: %w", err)
	}
	if c.Sync.SchedulingPoll <= 0 {
		return errors.New("sync scheduling poll must be > 0")
	}
	if c.Sync.PageSize <= 0 {
		return errors.New("sync page size must be > 0")
	}
	return nil
}

func ensureStoreDir(storePath string) error {
	dir := filepath.Dir(storePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}
	return nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvOrViperPort prefers the bare env var (as set by most PaaS) over viper.
func getEnvOrViperPort(envKey, viperKey string) (int, error) {
	if v := os.Getenv(envKey); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", envKey, v, err)
		}
		return port, nil
	}
	return viper.GetInt(viperKey), nil
}
