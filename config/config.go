package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultUserAgent = "example.com info@example.com"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Client    ClientConfig    `mapstructure:"client"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Log       LogConfig       `mapstructure:"log"`
	Bucket    BucketConfig    `mapstructure:"bucket"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Sync      SyncConfig      `mapstructure:"sync"`
}

type ClientConfig struct {
	UserAgent string        `mapstructure:"user_agent"`
	Accept    string        `mapstructure:"accept"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Transport string        `mapstructure:"transport"` // "raw" or "http"
}

type DirectoryConfig struct {
	Host     string        `mapstructure:"host"`
	Path     string        `mapstructure:"path"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// DBFallback resolves from synced companies when the SEC is unreachable.
	DBFallback bool `mapstructure:"db_fallback"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type BucketConfig struct {
	Kind   string `mapstructure:"kind"` // "none", "folder" or "s3"
	Path   string `mapstructure:"path"`
	Name   string `mapstructure:"name"`
	Region string `mapstructure:"region"`
	Prefix string `mapstructure:"prefix"`
}

// DatabaseConfig takes either a full URL or the discrete connection keys.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// Configured reports whether a database can be reached with these settings.
func (d DatabaseConfig) Configured() bool {
	return len(d.URL) > 0 || len(d.Host) > 0
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type SyncConfig struct {
	Workers int `mapstructure:"workers"`
}

// Load reads an optional .env file, then the config file at path (or
// ./edgar.yaml when path is empty and the file exists), then EDGAR_*
// environment variables, e.g. EDGAR_CLIENT_TIMEOUT=10s. USER_AGENT is
// honoured for the client user agent.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("EDGAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("client.user_agent", "EDGAR_CLIENT_USER_AGENT", "USER_AGENT"); err != nil {
		return nil, err
	}

	if len(path) > 0 {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("edgar")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("client.user_agent", DefaultUserAgent)
	v.SetDefault("client.accept", "*/*")
	v.SetDefault("client.timeout", 30*time.Second)
	v.SetDefault("client.transport", "raw")

	v.SetDefault("directory.host", "www.sec.gov")
	v.SetDefault("directory.path", "/files/company_tickers.json")
	v.SetDefault("directory.cache_ttl", 24*time.Hour)
	v.SetDefault("directory.db_fallback", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	v.SetDefault("bucket.kind", "none")
	v.SetDefault("bucket.path", "./data")
	v.SetDefault("bucket.name", "")
	v.SetDefault("bucket.region", "us-east-1")
	v.SetDefault("bucket.prefix", "edgar/")

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "edgar")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")

	v.SetDefault("server.port", 8080)

	v.SetDefault("sync.workers", 4)
}

func (c *Config) Validate() error {
	if len(strings.TrimSpace(c.Client.UserAgent)) < 1 {
		return fmt.Errorf("%w: client.user_agent is empty", ErrInvalidConfig)
	}
	if c.Client.Transport != "raw" && c.Client.Transport != "http" {
		return fmt.Errorf("%w: client.transport %q", ErrInvalidConfig, c.Client.Transport)
	}
	if c.Client.Timeout < 0 {
		return fmt.Errorf("%w: client.timeout %s", ErrInvalidConfig, c.Client.Timeout)
	}
	switch c.Bucket.Kind {
	case "none", "folder":
	case "s3":
		if len(c.Bucket.Name) < 1 {
			return fmt.Errorf("%w: bucket.name is required for s3", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: bucket.kind %q", ErrInvalidConfig, c.Bucket.Kind)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d", ErrInvalidConfig, c.Server.Port)
	}
	if c.Directory.DBFallback && !c.Database.Configured() {
		return fmt.Errorf("%w: directory.db_fallback needs database.url or database.host", ErrInvalidConfig)
	}
	if c.Sync.Workers < 1 {
		return fmt.Errorf("%w: sync.workers %d", ErrInvalidConfig, c.Sync.Workers)
	}
	return nil
}
