package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	yamlenv "github.com/ifuryst/go-yaml-env"
	"github.com/joho/godotenv"

	"github.com/ifuryst/murmur/pkg/logger"
)

type Config struct {
	Logger    logger.Config   `yaml:"logger"`
	Storage   StorageConfig   `yaml:"storage"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Generator GeneratorConfig `yaml:"generator"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Publisher PublisherConfig `yaml:"publisher"`
	Server    ServerConfig    `yaml:"server"`
}

type StorageConfig struct {
	// Driver is "json" (default) or "postgres".
	Driver   string         `yaml:"driver"`
	Path     string         `yaml:"path"`
	Database DatabaseConfig `yaml:"database"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

type ExtractorConfig struct {
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent"`
	Markdown  bool   `yaml:"markdown"`
}

type GeneratorConfig struct {
	// Provider is "openai" (default), "anthropic" or "cohere".
	Provider           string  `yaml:"provider"`
	Model              string  `yaml:"model"`
	APIKey             string  `yaml:"api_key"`
	APIURL             string  `yaml:"api_url"`
	MaxTokens          int     `yaml:"max_tokens"`
	Temperature        float64 `yaml:"temperature"`
	KeywordTemperature float64 `yaml:"keyword_temperature"`
	DefaultLanguage    string  `yaml:"default_language"`
	MaxContentChars    int     `yaml:"max_content_chars"`
	RequestsPerSecond  float64 `yaml:"requests_per_second"`
}

type SchedulerConfig struct {
	Interval string `yaml:"interval"`
	// Cron overrides Interval when set, e.g. "*/5 * * * *".
	Cron    string `yaml:"cron"`
	Enabled *bool  `yaml:"enabled"`
}

type PublisherConfig struct {
	// Sink is "console" (default) or "redis".
	Sink  string      `yaml:"sink"`
	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	ChannelPrefix string `yaml:"channel_prefix"`
}

type ServerConfig struct {
	Port       int    `yaml:"port"`
	Host       string `yaml:"host"`
	Mode       string `yaml:"mode"`
	TOTPSecret string `yaml:"totp_secret"`
}

// apiKeyEnv maps a provider to the variable its key is read from when the
// config leaves generator.api_key empty.
var apiKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"cohere":    "COHERE_API_KEY",
}

// LoadConfig reads .env, then the YAML file at configPath. A missing file is
// not an error: the defaults describe a working local setup.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			loaded, err := yamlenv.LoadConfig[Config](configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
			}
			cfg = loaded
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config %s: %w", configPath, err)
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "json"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "content_library.json"
	}
	if cfg.Storage.Database.Host == "" {
		cfg.Storage.Database.Host = "localhost"
	}
	if cfg.Storage.Database.Port == 0 {
		cfg.Storage.Database.Port = 5432
	}
	if cfg.Storage.Database.SSLMode == "" {
		cfg.Storage.Database.SSLMode = "disable"
	}
	if cfg.Storage.Database.TimeZone == "" {
		cfg.Storage.Database.TimeZone = "UTC"
	}

	if cfg.Extractor.Timeout == "" {
		cfg.Extractor.Timeout = "30s"
	}
	if cfg.Extractor.UserAgent == "" {
		cfg.Extractor.UserAgent = "murmur/0.1 (+https://github.com/ifuryst/murmur)"
	}

	cfg.Generator.Provider = strings.ToLower(cfg.Generator.Provider)
	if cfg.Generator.Provider == "" {
		cfg.Generator.Provider = "openai"
	}
	if cfg.Generator.Model == "" {
		switch cfg.Generator.Provider {
		case "anthropic":
			cfg.Generator.Model = "claude-sonnet-4-20250514"
		case "cohere":
			cfg.Generator.Model = "command-r"
		default:
			cfg.Generator.Model = "gpt-4o-mini"
		}
	}
	if cfg.Generator.APIKey == "" {
		if env, ok := apiKeyEnv[cfg.Generator.Provider]; ok {
			cfg.Generator.APIKey = os.Getenv(env)
		}
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 1024
	}
	if cfg.Generator.Temperature == 0 {
		cfg.Generator.Temperature = 0.7
	}
	if cfg.Generator.KeywordTemperature == 0 {
		cfg.Generator.KeywordTemperature = 0.3
	}
	if cfg.Generator.DefaultLanguage == "" {
		cfg.Generator.DefaultLanguage = "en"
	}
	if cfg.Generator.MaxContentChars == 0 {
		cfg.Generator.MaxContentChars = 12000
	}
	if cfg.Generator.RequestsPerSecond == 0 {
		cfg.Generator.RequestsPerSecond = 2
	}

	if cfg.Scheduler.Interval == "" {
		cfg.Scheduler.Interval = "1m"
	}
	if cfg.Scheduler.Enabled == nil {
		enabled := true
		cfg.Scheduler.Enabled = &enabled
	}

	if cfg.Publisher.Sink == "" {
		cfg.Publisher.Sink = "console"
	}
	if cfg.Publisher.Redis.Addr == "" {
		cfg.Publisher.Redis.Addr = "localhost:6379"
	}
	if cfg.Publisher.Redis.ChannelPrefix == "" {
		cfg.Publisher.Redis.ChannelPrefix = "murmur:posts"
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5334
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
}

// SchedulerEnabled reports whether the background publish loop should run.
func (cfg *Config) SchedulerEnabled() bool {
	return cfg.Scheduler.IsEnabled()
}

func (c *SchedulerConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}
