package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Cache    CacheConfig    `yaml:"cache"`
	Cleanup  CleanupConfig  `yaml:"cleanup"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ServerConfig struct {
	Port        int      `yaml:"port" validate:"gte=0,lte=65535"`
	Host        string   `yaml:"host"`
	Mode        string   `yaml:"mode" validate:"omitempty,oneof=debug release test"`
	CORSOrigins []string `yaml:"cors_origins" validate:"dive,eq=*|url"`
}

type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database" validate:"required"`
	Charset      string `yaml:"charset"`
	TablePrefix  string `yaml:"table_prefix"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	LogSQL       bool   `yaml:"log_sql"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CacheConfig struct {
	Driver               string `yaml:"driver" validate:"omitempty,oneof=redis memory none"`
	KeyPrefix            string `yaml:"key_prefix"`
	OrderCountTTLSeconds int    `yaml:"order_count_ttl_seconds"`
	MemoryCapacity       int    `yaml:"memory_capacity"`
	WarmSchedule         string `yaml:"warm_schedule"`
}

type CleanupConfig struct {
	DefaultBatchSize int    `yaml:"default_batch_size"`
	PageSize         int    `yaml:"page_size"`
	OrderBackend     string `yaml:"order_backend" validate:"omitempty,oneof=auto hpos legacy"`
	AdminURL         string `yaml:"admin_url"`
	// Timezone overrides the store timezone read from WordPress options.
	Timezone         string `yaml:"timezone" validate:"omitempty,timezone"`
}

type AuthToken struct {
	Token  string `yaml:"token" validate:"required"`
	UserID uint64 `yaml:"user_id" validate:"required"`
}

type AuthConfig struct {
	NonceSecret        string              `yaml:"nonce_secret" validate:"required"`
	NonceAction        string              `yaml:"nonce_action"`
	NonceLifetimeHours int                 `yaml:"nonce_lifetime_hours"`
	RequiredCapability string              `yaml:"required_capability"`
	RoleCapabilities   map[string][]string `yaml:"role_capabilities"`
	Tokens             []AuthToken         `yaml:"tokens" validate:"dive"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

var AppConfig *Config

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	AppConfig = cfg
	return cfg, nil
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed on %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Cache.Driver == "redis" && !cfg.Redis.Enabled {
		return errors.New("invalid config: cache.driver is redis but redis.enabled is false")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "127.0.0.1"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 3306
	}
	if cfg.Database.Charset == "" {
		cfg.Database.Charset = "utf8mb4"
	}
	if cfg.Database.TablePrefix == "" {
		cfg.Database.TablePrefix = "wp_"
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Cache.Driver == "" {
		if cfg.Redis.Enabled {
			cfg.Cache.Driver = "redis"
		} else {
			cfg.Cache.Driver = "memory"
		}
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "wccleanup:"
	}
	if cfg.Cache.OrderCountTTLSeconds == 0 {
		cfg.Cache.OrderCountTTLSeconds = 3600
	}
	if cfg.Cache.MemoryCapacity == 0 {
		cfg.Cache.MemoryCapacity = 1024
	}
	if cfg.Cleanup.DefaultBatchSize <= 0 {
		cfg.Cleanup.DefaultBatchSize = 20
	}
	if cfg.Cleanup.PageSize <= 0 {
		cfg.Cleanup.PageSize = 20
	}
	if cfg.Cleanup.OrderBackend == "" {
		cfg.Cleanup.OrderBackend = "auto"
	}
	if cfg.Cleanup.AdminURL == "" {
		cfg.Cleanup.AdminURL = "/wp-admin/"
	}
	if cfg.Auth.NonceAction == "" {
		cfg.Auth.NonceAction = "wc-data-cleanup-nonce"
	}
	if cfg.Auth.NonceLifetimeHours <= 0 {
		cfg.Auth.NonceLifetimeHours = 24
	}
	if cfg.Auth.RequiredCapability == "" {
		cfg.Auth.RequiredCapability = "manage_woocommerce"
	}
	if len(cfg.Auth.RoleCapabilities) == 0 {
		cfg.Auth.RoleCapabilities = map[string][]string{
			"administrator": {"manage_woocommerce", "delete_users"},
			"shop_manager":  {"manage_woocommerce"},
		}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 50
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 5
	}
	if cfg.Logging.MaxAgeDays == 0 {
		cfg.Logging.MaxAgeDays = 28
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
