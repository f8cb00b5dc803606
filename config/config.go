package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Placeholder values shipped in the sample configuration. A store or asset
// host still carrying one of these is treated as unconfigured.
const (
	PlaceholderBinID        = "PASTE_YOUR_BIN_ID_HERE"
	PlaceholderAPIKey       = "PASTE_YOUR_API_KEY_HERE"
	PlaceholderCloudName    = "PASTE_YOUR_CLOUD_NAME_HERE"
	PlaceholderUploadPreset = "PASTE_YOUR_UPLOAD_PRESET_HERE"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	App     AppConfig     `yaml:"app"`
	Store   StoreConfig   `yaml:"store"`
	Assets  AssetsConfig  `yaml:"assets"`
	Cache   CacheConfig   `yaml:"cache"`
	Admin   AdminConfig   `yaml:"admin"`
	Refresh RefreshConfig `yaml:"refresh"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type AppConfig struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	Version     string `yaml:"version"`
	ServiceName string `yaml:"service_name"`
}

// StoreConfig selects and parameterises the remote document store.
type StoreConfig struct {
	Driver       string `yaml:"driver"`
	BinID        string `yaml:"bin_id"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	DSN          string `yaml:"dsn"`
	DocumentName string `yaml:"document_name"`
}

type AssetsConfig struct {
	CloudName    string `yaml:"cloud_name"`
	UploadPreset string `yaml:"upload_preset"`
	BaseURL      string `yaml:"base_url"`
}

// CacheConfig describes the local snapshot used when no remote store is configured.
type CacheConfig struct {
	Driver        string `yaml:"driver"`
	Path          string `yaml:"path"`
	Key           string `yaml:"key"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	Watch         bool   `yaml:"watch"`
}

type AdminConfig struct {
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SessionDriver string        `yaml:"session_driver"`
	LoginRate     int           `yaml:"login_rate_per_min"`
	LoginBurst    int           `yaml:"login_burst"`
}

type RefreshConfig struct {
	Schedule string `yaml:"schedule"`
}

// Configured reports whether the remote store has real connection parameters.
func (s StoreConfig) Configured() bool {
	if s.Driver == "postgres" {
		return strings.TrimSpace(s.DSN) != ""
	}
	return isSet(s.BinID, PlaceholderBinID) && isSet(s.APIKey, PlaceholderAPIKey)
}

// Configured reports whether uploads can go to the asset host.
func (a AssetsConfig) Configured() bool {
	return isSet(a.CloudName, PlaceholderCloudName) && isSet(a.UploadPreset, PlaceholderUploadPreset)
}

func isSet(value, placeholder string) bool {
	v := strings.TrimSpace(value)
	return v != "" && v != placeholder
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		App: AppConfig{
			Environment: "development",
			LogLevel:    "info",
			Version:     "1.0.0",
			ServiceName: "web-solution",
		},
		Store: StoreConfig{
			Driver:       "jsonbin",
			BinID:        PlaceholderBinID,
			APIKey:       PlaceholderAPIKey,
			BaseURL:      "https://api.jsonbin.io/v3",
			DocumentName: "portfolio",
		},
		Assets: AssetsConfig{
			CloudName:    PlaceholderCloudName,
			UploadPreset: PlaceholderUploadPreset,
			BaseURL:      "https://api.cloudinary.com/v1_1",
		},
		Cache: CacheConfig{
			Driver:    "file",
			Path:      "data/portfolio.json",
			Key:       "portfolioProjects",
			RedisAddr: "localhost:6379",
		},
		Admin: AdminConfig{
			Username:      "admin",
			Password:      "WebSolution2025!",
			SessionTTL:    12 * time.Hour,
			SessionDriver: "memory",
			LoginRate:     10,
			LoginBurst:    5,
		},
	}
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.AllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)

	cfg.App.Environment = getEnv("APP_ENV", cfg.App.Environment)
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.Version = getEnv("APP_VERSION", cfg.App.Version)
	cfg.App.ServiceName = getEnv("SERVICE_NAME", cfg.App.ServiceName)

	cfg.Store.Driver = getEnv("STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.BinID = getEnv("JSONBIN_BIN_ID", cfg.Store.BinID)
	cfg.Store.APIKey = getEnv("JSONBIN_API_KEY", cfg.Store.APIKey)
	cfg.Store.BaseURL = getEnv("JSONBIN_BASE_URL", cfg.Store.BaseURL)
	cfg.Store.DSN = getEnv("DB_DSN", cfg.Store.DSN)
	cfg.Store.DocumentName = getEnv("STORE_DOCUMENT", cfg.Store.DocumentName)

	cfg.Assets.CloudName = getEnv("CLOUDINARY_CLOUD_NAME", cfg.Assets.CloudName)
	cfg.Assets.UploadPreset = getEnv("CLOUDINARY_UPLOAD_PRESET", cfg.Assets.UploadPreset)
	cfg.Assets.BaseURL = getEnv("CLOUDINARY_BASE_URL", cfg.Assets.BaseURL)

	cfg.Cache.Driver = getEnv("CACHE_DRIVER", cfg.Cache.Driver)
	cfg.Cache.Path = getEnv("CACHE_PATH", cfg.Cache.Path)
	cfg.Cache.Key = getEnv("CACHE_KEY", cfg.Cache.Key)
	cfg.Cache.RedisAddr = getEnv("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = getEnv("REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = getEnvAsInt("REDIS_DB", cfg.Cache.RedisDB)
	cfg.Cache.Watch = getEnvAsBool("CACHE_WATCH", cfg.Cache.Watch)

	cfg.Admin.Username = getEnv("ADMIN_USERNAME", cfg.Admin.Username)
	cfg.Admin.Password = getEnv("ADMIN_PASSWORD", cfg.Admin.Password)
	cfg.Admin.SessionTTL = getEnvAsDuration("SESSION_TTL", cfg.Admin.SessionTTL)
	cfg.Admin.SessionDriver = getEnv("SESSION_DRIVER", cfg.Admin.SessionDriver)
	cfg.Admin.LoginRate = getEnvAsInt("LOGIN_RATE_PER_MIN", cfg.Admin.LoginRate)
	cfg.Admin.LoginBurst = getEnvAsInt("LOGIN_BURST", cfg.Admin.LoginBurst)

	cfg.Refresh.Schedule = getEnv("REFRESH_SCHEDULE", cfg.Refresh.Schedule)
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Store.Driver {
	case "jsonbin":
		if c.Store.BaseURL == "" {
			return fmt.Errorf("JSONBIN_BASE_URL is required")
		}
	case "postgres":
		if c.Store.DocumentName == "" {
			return fmt.Errorf("STORE_DOCUMENT is required")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be jsonbin or postgres, got %q", c.Store.Driver)
	}

	switch c.Cache.Driver {
	case "file":
		if c.Cache.Path == "" {
			return fmt.Errorf("CACHE_PATH is required")
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required")
		}
	default:
		return fmt.Errorf("CACHE_DRIVER must be file or redis, got %q", c.Cache.Driver)
	}

	if c.Cache.Key == "" {
		return fmt.Errorf("CACHE_KEY is required")
	}

	if c.Admin.Username == "" || c.Admin.Password == "" {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD are required")
	}

	if c.Admin.SessionDriver != "memory" && c.Admin.SessionDriver != "redis" {
		return fmt.Errorf("SESSION_DRIVER must be memory or redis, got %q", c.Admin.SessionDriver)
	}

	if c.Admin.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	return nil
}

// NeedsRedis reports whether any component is backed by Redis.
func (c *Config) NeedsRedis() bool {
	return c.Cache.Driver == "redis" || c.Admin.SessionDriver == "redis"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
