package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName         string `mapstructure:"app_name"`
	Env             string `mapstructure:"app_env"`
	LogLevel        string `mapstructure:"log_level"`
	ConnectionsFile string `mapstructure:"connections_file"`
	SinksFile       string `mapstructure:"sinks_file"`
	UserAgent       string `mapstructure:"user_agent"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	LookupTimeoutSeconds   int64         `mapstructure:"lookup_timeout_seconds"`
	UploadTimeoutSeconds   int64         `mapstructure:"upload_timeout_seconds"`
	DownloadTimeoutSeconds int64         `mapstructure:"download_timeout_seconds"`
	LookupTimeout          time.Duration `mapstructure:"-"`
	UploadTimeout          time.Duration `mapstructure:"-"`
	DownloadTimeout        time.Duration `mapstructure:"-"`

	ShopifyAPIVersion        string   `mapstructure:"shopify_api_version"`
	WordPressPluginNamespace string   `mapstructure:"wordpress_plugin_namespaces"`
	PluginNamespaces         []string `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "cmspush")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("connections_file", "./configs/connections.yaml")
	v.SetDefault("sinks_file", "")
	v.SetDefault("user_agent", "cmspush/1.0")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/ledger.db")
	v.SetDefault("storage_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("lookup_timeout_seconds", 10)
	v.SetDefault("upload_timeout_seconds", 60)
	v.SetDefault("download_timeout_seconds", 30)
	v.SetDefault("shopify_api_version", "2024-10")
	v.SetDefault("wordpress_plugin_namespaces", "stackserp/v1,seo-autopilot/v1")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	for key, secs := range map[string]int64{
		"lookup_timeout_seconds":   cfg.LookupTimeoutSeconds,
		"upload_timeout_seconds":   cfg.UploadTimeoutSeconds,
		"download_timeout_seconds": cfg.DownloadTimeoutSeconds,
	} {
		if secs <= 0 {
			return nil, fmt.Errorf("invalid %s (must be positive seconds)", key)
		}
	}
	cfg.LookupTimeout = time.Duration(cfg.LookupTimeoutSeconds) * time.Second
	cfg.UploadTimeout = time.Duration(cfg.UploadTimeoutSeconds) * time.Second
	cfg.DownloadTimeout = time.Duration(cfg.DownloadTimeoutSeconds) * time.Second

	if strings.TrimSpace(cfg.ShopifyAPIVersion) == "" {
		return nil, fmt.Errorf("shopify_api_version is required")
	}

	cfg.PluginNamespaces = splitList(cfg.WordPressPluginNamespace)
	if len(cfg.PluginNamespaces) == 0 {
		return nil, fmt.Errorf("wordpress_plugin_namespaces must list at least one namespace")
	}

	return &cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.Trim(strings.TrimSpace(part), "/"); p != "" {
			out = append(out, p)
		}
	}
	return out
}
