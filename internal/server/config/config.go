package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string
	Env               string
	StoragePath       string
	AdminPassword     string
	AdminPasswordHash string
	SessionTTL        time.Duration
	SessionBackend    string
	RedisAddr         string
	RedisPassword     string
	MaxFileSize       int64
	CleanupInterval   time.Duration
	RateLimitRPS      float64
	RateLimitBurst    int
}

// Production reports whether the server runs in production mode, which
// turns on secure cookies.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads configuration from environment variables. When GALLERY_CONFIG
// names a file (yaml, toml or json), its values sit underneath the
// environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("env", "development")
	v.SetDefault("storage_path", "./uploads")
	v.SetDefault("admin_password", "admin123")
	v.SetDefault("admin_password_hash", "")
	v.SetDefault("session_ttl_hours", 24)
	v.SetDefault("session_backend", "memory")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("max_file_size", 100*1024*1024) // 100MB
	v.SetDefault("cleanup_interval_hours", 1)
	v.SetDefault("rate_limit_rps", 2)
	v.SetDefault("rate_limit_burst", 5)
	v.AutomaticEnv()

	if path := os.Getenv("GALLERY_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:              v.GetString("port"),
		Env:               v.GetString("env"),
		StoragePath:       v.GetString("storage_path"),
		AdminPassword:     v.GetString("admin_password"),
		AdminPasswordHash: v.GetString("admin_password_hash"),
		SessionTTL:        hours(v.GetFloat64("session_ttl_hours")),
		SessionBackend:    strings.ToLower(v.GetString("session_backend")),
		RedisAddr:         v.GetString("redis_addr"),
		RedisPassword:     v.GetString("redis_password"),
		MaxFileSize:       v.GetInt64("max_file_size"),
		CleanupInterval:   hours(v.GetFloat64("cleanup_interval_hours")),
		RateLimitRPS:      v.GetFloat64("rate_limit_rps"),
		RateLimitBurst:    v.GetInt("rate_limit_burst"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.SessionBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q (want memory or redis)", c.SessionBackend)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("CLEANUP_INTERVAL_HOURS must be positive")
	}
	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		return fmt.Errorf("one of ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set")
	}
	return nil
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
