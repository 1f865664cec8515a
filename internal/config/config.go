package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	API       APIConfig
	Storage   StorageConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	LogLevel  string
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// StorageConfig selects where credentials and the cached identity live.
// Backend is one of "file", "redis" or "memory".
type StorageConfig struct {
	Backend string
	Path    string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("BLOG_API_URL", "http://127.0.0.1:8000/api")
	viper.SetDefault("BLOG_API_TIMEOUT", 30)
	viper.SetDefault("BLOG_STORAGE_BACKEND", "file")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("BLOG_RATE_LIMIT_ENABLED", false)
	viper.SetDefault("BLOG_RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("BLOG_RATE_LIMIT_BURST", 20)
	viper.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		API: APIConfig{
			BaseURL: viper.GetString("BLOG_API_URL"),
			Timeout: time.Duration(viper.GetInt("BLOG_API_TIMEOUT")) * time.Second,
		},
		Storage: StorageConfig{
			Backend: viper.GetString("BLOG_STORAGE_BACKEND"),
			Path:    viper.GetString("BLOG_STORAGE_PATH"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled: viper.GetBool("BLOG_RATE_LIMIT_ENABLED"),
			RPS:     viper.GetFloat64("BLOG_RATE_LIMIT_RPS"),
			Burst:   viper.GetInt("BLOG_RATE_LIMIT_BURST"),
		},
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	switch cfg.Storage.Backend {
	case "file", "redis", "memory":
	default:
		return nil, fmt.Errorf("invalid BLOG_STORAGE_BACKEND %q (want file, redis or memory)", cfg.Storage.Backend)
	}

	return cfg, nil
}

// RedisAddr returns the host:port the Redis client dials.
func (c *RedisConfig) RedisAddr() string {
	return c.Host + ":" + c.Port
}
