package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/parsimony/pkg/archive"
	"github.com/matzehuels/parsimony/pkg/cache"
)

// defaultServerAddr is the listen address of "parsimony serve".
const defaultServerAddr = ":8080"

// Config is the contents of config.toml. Every field is optional; command
// flags override whatever the file sets.
type Config struct {
	Search  SearchConfig  `toml:"search"`
	Matrix  MatrixConfig  `toml:"matrix"`
	Cache   CacheConfig   `toml:"cache"`
	Archive ArchiveConfig `toml:"archive"`
	Server  ServerConfig  `toml:"server"`
}

type SearchConfig struct {
	Method            string `toml:"method"`
	MaxTrees          int    `toml:"max_trees"`
	MaxRearrangements int64  `toml:"max_rearrangements"`
	Replicates        int    `toml:"replicates"`
	Seed              uint64 `toml:"seed"`
	AddSeq            string `toml:"addseq"`
}

type MatrixConfig struct {
	NAAsMissing bool `toml:"na_as_missing"`
}

type CacheConfig struct {
	Backend   string `toml:"backend"`
	RedisAddr string `toml:"redis_addr"`

	// TTL is a Go duration string such as "48h".
	TTL string `toml:"ttl"`
}

type ArchiveConfig struct {
	Backend       string `toml:"backend"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// loadConfig reads the TOML file at path. A missing file is not an error
// unless the path was given explicitly.
func loadConfig(path string, explicit bool) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "", cache.BackendFile, cache.BackendRedis, cache.BackendNone:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == cache.BackendRedis && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required for the redis backend")
	}
	if _, err := c.cacheTTL(); err != nil {
		return err
	}
	switch c.Archive.Backend {
	case "", archive.BackendFile:
	case archive.BackendMongo:
		if c.Archive.MongoURI == "" {
			return fmt.Errorf("archive.mongo_uri is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown archive backend %q", c.Archive.Backend)
	}
	return nil
}

// cacheTTL parses Cache.TTL. Zero means the per-kind default.
func (c *Config) cacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid cache.ttl %q", c.Cache.TTL)
	}
	return d, nil
}

func (c *Config) serverAddr() string {
	if c.Server.Addr == "" {
		return defaultServerAddr
	}
	return c.Server.Addr
}

// configPath returns the default config file location.
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
