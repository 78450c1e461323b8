package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Subpath       string `mapstructure:"subpath"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "postgres" or "sqlite"
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Addr               string `mapstructure:"addr"`
	Password           string `mapstructure:"password"`
	DB                 int    `mapstructure:"db"`
	CategoryTTLSeconds int    `mapstructure:"category_ttl_seconds"`
}

// CompletionConfig points at an OpenAI-compatible chat completions endpoint.
type CompletionConfig struct {
	URL              string  `mapstructure:"url"`
	Model            string  `mapstructure:"model"`
	ContextSize      int     `mapstructure:"context_size"`
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	MaxConcurrent    int     `mapstructure:"max_concurrent"`
	FailureThreshold int     `mapstructure:"failure_threshold"`
	CooldownSeconds  int     `mapstructure:"cooldown_seconds"`
	Temperature      float64 `mapstructure:"temperature"`
}

type ChatConfig struct {
	HistoryLimit int `mapstructure:"history_limit"`
}

// DialogueConfig extends the built-in location tables for a deployment.
type DialogueConfig struct {
	Areas  []string `mapstructure:"areas"`
	Cities []string `mapstructure:"cities"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Completion CompletionConfig `mapstructure:"completion"`
	Chat       ChatConfig       `mapstructure:"chat"`
	Dialogue   DialogueConfig   `mapstructure:"dialogue"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

func (c CompletionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c CompletionConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

func (r RedisConfig) CategoryTTL() time.Duration {
	return time.Duration(r.CategoryTTLSeconds) * time.Second
}

func (s ServerConfig) TokenTTL() time.Duration {
	return time.Duration(s.TokenTTLHours) * time.Hour
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.subpath", "")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.token_ttl_hours", 72)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.category_ttl_seconds", 600)

	v.SetDefault("completion.url", "http://localhost:8000/v1/chat/completions")
	v.SetDefault("completion.model", "default")
	v.SetDefault("completion.context_size", 4096)
	v.SetDefault("completion.timeout_seconds", 60)
	v.SetDefault("completion.max_concurrent", 4)
	v.SetDefault("completion.failure_threshold", 3)
	v.SetDefault("completion.cooldown_seconds", 30)
	v.SetDefault("completion.temperature", 0.3)

	v.SetDefault("chat.history_limit", 50)

	v.SetDefault("dialogue.areas", []string{})
	v.SetDefault("dialogue.cities", []string{})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// LoadConfig reads the config file once; SUPPORT_FINDER_* env vars override file values.
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		v := viper.New()
		setDefaults(v)
		v.SetConfigFile(path)
		v.SetEnvPrefix("SUPPORT_FINDER")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		if err := v.ReadInConfig(); err != nil {
			cfgErr = fmt.Errorf("failed to read config file: %w", err)
			return
		}
		var c Config
		if err := v.Unmarshal(&c); err != nil {
			cfgErr = fmt.Errorf("invalid config format: %w", err)
			return
		}
		if err := validate(&c); err != nil {
			cfgErr = err
			return
		}
		cfg = &c
	})
	return cfg, cfgErr
}

func validate(c *Config) error {
	if c.Server.JWTSecret == "" {
		return errors.New("server.jwt_secret must be set in config")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Completion.MaxConcurrent < 1 {
		c.Completion.MaxConcurrent = 1
	}
	if c.Chat.HistoryLimit < 1 {
		c.Chat.HistoryLimit = 50
	}
	return nil
}

// GetConfig returns the loaded config (LoadConfig must run first).
func GetConfig() *Config {
	return cfg
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
