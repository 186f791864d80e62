// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	configPath = pflag.String("config", ".", "Directory containing config.toml")

	validLogLevels  = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers  = []string{"sqlite", "postgres"}
	colorRegexp     = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	errMissingToken = errors.New("jwt.secret must be set")
)

type Config struct {
	App        App        `mapstructure:"app"`
	Host       Host       `mapstructure:"host"`
	JWT        JWT        `mapstructure:"jwt"`
	Database   Database   `mapstructure:"database"`
	Storage    Storage    `mapstructure:"storage"`
	Upload     Upload     `mapstructure:"upload"`
	Events     Events     `mapstructure:"events"`
	Render     Render     `mapstructure:"render"`
	Tagging    Tagging    `mapstructure:"tagging"`
	Cloudflare Cloudflare `mapstructure:"cloudflare"`
	Security   Security   `mapstructure:"security"`
	Cache      Cache      `mapstructure:"cache"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Host struct {
	Port int      `mapstructure:"port"`
	CORS []string `mapstructure:"cors"`
}

type JWT struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type Database struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type Storage struct {
	// Directory holding one encrypted blob per file ID
	Path string `mapstructure:"path"`
	// Orphan files older than this are removed by the cleanup job
	OrphanTTL       time.Duration `mapstructure:"orphan_ttl"`
	CleanupSchedule string        `mapstructure:"cleanup_schedule"`
	// Default quota given to new users, in bytes
	DefaultQuota int64 `mapstructure:"default_quota"`
}

type Upload struct {
	// In MiB in the config file, converted to bytes by Load
	MaxSize int64 `mapstructure:"max_size"`
}

type Events struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

type Render struct {
	FFmpegPath string `mapstructure:"ffmpeg_path"`
	Workers    int    `mapstructure:"workers"`
	MaxJobs    int    `mapstructure:"max_jobs"`
}

// Tagging configures the remote tag suggestion service. Leaving BaseURL empty
// disables suggestions, the baseline mime tag is still applied
type Tagging struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	// Sampling temperature sent with every request
	Temperature float64 `mapstructure:"temperature"`
	// Extracted text is cut to this many characters before being sent
	MaxCharacters  int           `mapstructure:"max_characters"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// Color given to tags created by the pipeline
	DefaultColor string `mapstructure:"default_color"`
}

type Cloudflare struct {
	// Mirror uploads every ciphertext blob to R2 as well
	Mirror          bool   `mapstructure:"mirror"`
	AccountID       string `mapstructure:"account_id"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
}

// Cache configures where cached responses are kept. Without a redis address
// they stay in process memory
type Cache struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

type Security struct {
	RateLimit int `mapstructure:"rate_limit"`
}

func setDefaults() {
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors", []string{"http://localhost:5173"})

	v.SetDefault("jwt.ttl", 24*time.Hour)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("storage.path", "storage")
	v.SetDefault("storage.orphan_ttl", 48*time.Hour)
	v.SetDefault("storage.cleanup_schedule", "@every 1h")
	v.SetDefault("storage.default_quota", int64(10<<30))

	v.SetDefault("upload.max_size", 50)

	v.SetDefault("events.workers", 4)
	v.SetDefault("events.queue_size", 64)

	v.SetDefault("render.ffmpeg_path", "ffmpeg")
	v.SetDefault("render.workers", 2)
	v.SetDefault("render.max_jobs", 16)

	v.SetDefault("tagging.model", "deepseek-v3")
	v.SetDefault("tagging.temperature", 0.7)
	v.SetDefault("tagging.max_characters", 3000)
	v.SetDefault("tagging.connect_timeout", 10*time.Second)
	v.SetDefault("tagging.request_timeout", 60*time.Second)
	v.SetDefault("tagging.default_color", "#3a87ad")

	v.SetDefault("cloudflare.mirror", false)

	v.SetDefault("security.rate_limit", 20)
}

func bindEnvs() {
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.cors", "host_cors")

	v.BindEnv("jwt.secret", "jwt_secret")

	v.BindEnv("database.driver", "database_driver")
	v.BindEnv("database.dsn", "database_dsn")

	v.BindEnv("storage.path", "storage_path")

	v.BindEnv("upload.max_size", "upload_max_size")

	v.BindEnv("tagging.base_url", "tagging_base_url")
	v.BindEnv("tagging.api_key", "tagging_api_key")
	v.BindEnv("tagging.model", "tagging_model")

	v.BindEnv("cache.redis_addr", "cache_redis_addr")
	v.BindEnv("cache.redis_password", "cache_redis_password")

	v.BindEnv("cloudflare.mirror", "cloudflare_mirror")
	v.BindEnv("cloudflare.account_id", "cloudflare_account_id")
	v.BindEnv("cloudflare.access_key_id", "cloudflare_access_key_id")
	v.BindEnv("cloudflare.secret_access_key", "cloudflare_secret_access_key")
	v.BindEnv("cloudflare.bucket", "cloudflare_bucket")
}

// Load prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that. A missing config.toml is not an error, defaults and
// environment variables are used instead. Flags have to be parsed
// by the caller first.
func Load() (*Config, error) {
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	v.AutomaticEnv()

	setDefaults()
	bindEnvs()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}

		zap.L().Warn("No config.toml found, using defaults and environment")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode config, %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	c.Upload.MaxSize <<= 20
	return &c, nil
}

// Validate checks the values that can't be fixed with a default
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.App.LogLevel) {
		return errors.New("invalid log level provided")
	}

	if c.Host.Port <= 0 {
		return errors.New("invalid port provided")
	}

	if c.JWT.Secret == "" {
		return errMissingToken
	}

	if !slices.Contains(validDBDrivers, c.Database.Driver) {
		return errors.New("invalid database driver provided")
	}

	if c.Storage.Path == "" {
		return errors.New("storage.path can't be empty")
	}

	if c.Upload.MaxSize <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if c.Events.Workers <= 0 || c.Events.QueueSize <= 0 {
		return errors.New("events.workers and events.queue_size must be bigger than 0")
	}

	if c.Security.RateLimit <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if c.Render.Workers <= 0 {
		return errors.New("render.workers must be bigger than 0")
	}

	if c.Tagging.MaxCharacters <= 0 {
		return errors.New("tagging.max_characters must be bigger than 0")
	}

	if c.Tagging.ConnectTimeout <= 0 {
		return errors.New("tagging.connect_timeout must be bigger than 0")
	}

	if !colorRegexp.MatchString(c.Tagging.DefaultColor) {
		return errors.New("tagging.default_color must look like #rrggbb")
	}

	if c.Cloudflare.Mirror {
		if c.Cloudflare.AccountID == "" {
			return errors.New("account id can't be empty")
		}
		if c.Cloudflare.AccessKeyID == "" {
			return errors.New("account access id can't be empty")
		}
		if c.Cloudflare.SecretAccessKey == "" {
			return errors.New("secret access key can't be empty")
		}
		if c.Cloudflare.Bucket == "" {
			return errors.New("bucket can't be empty")
		}
	}

	if c.Cache.RedisDB < 0 {
		return errors.New("cache.redis_db can't be negative")
	}

	if c.Tagging.BaseURL == "" {
		zap.L().Warn("No tagging.base_url specified, only mime type tags will be assigned")
	}

	return nil
}
