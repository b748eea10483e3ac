// Package config loads the application's TOML configuration file and
// applies defaults. One file covers the gateway, its backends, and the
// terminal viewer so deployments carry a single config.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/skilltreelabs/skilltree/pkg/errors"
)

// Backend names accepted in the [store] and [cache] sections.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"

	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Duration is a time.Duration that unmarshals from TOML strings like "45s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full application configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
	Client ClientConfig `toml:"client"`
	View   ViewConfig   `toml:"view"`
}

// ServerConfig configures the gateway.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// StoreConfig selects and configures the dataset backend.
type StoreConfig struct {
	Backend       string `toml:"backend"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// CacheConfig selects and configures the snapshot cache.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
}

// ClientConfig configures the viewer's connection to a remote gateway.
type ClientConfig struct {
	BaseURL string `toml:"base_url"`
	Retries int    `toml:"retries"`
}

// ViewConfig holds the terminal viewer's defaults.
type ViewConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Store:  StoreConfig{Backend: StoreMemory, MongoDatabase: "skilltree"},
		Cache:  CacheConfig{Backend: CacheNone, TTL: Duration(time.Minute)},
		Client: ClientConfig{BaseURL: "http://localhost:8080", Retries: 3},
		View:   ViewConfig{Width: 120, Height: 40},
	}
}

// Load reads a TOML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory:
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store.mongo_uri is required for the mongo backend")
		}
		if c.Store.MongoDatabase == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store.mongo_database is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", c.Store.Backend)
	}

	switch c.Cache.Backend {
	case CacheNone:
	case CacheFile:
		if c.Cache.Dir == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.dir is required for the file backend")
		}
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}

	if c.View.Width <= 0 || c.View.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "view dimensions must be positive")
	}
	return nil
}
