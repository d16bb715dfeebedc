package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/changeover/pkg/pipeline"
	"github.com/matzehuels/changeover/pkg/solver"
)

// Cache backends selectable in the [cache] section.
const (
	cacheNone  = "none"
	cacheFile  = "file"
	cacheRedis = "redis"
)

const defaultServerAddr = ":8080"

// Config is the optional TOML config file. Flags override every value.
//
//	[solver]
//	quality = "balanced"
//	timeout = "5s"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[store]
//	mongo_uri = "mongodb://localhost:27017"
//	database = "changeover"
//
//	[server]
//	addr = ":8080"
type Config struct {
	Solver SolverConfig `toml:"solver"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

type SolverConfig struct {
	Quality string   `toml:"quality"`
	Timeout duration `toml:"timeout"`
}

type CacheConfig struct {
	Backend   string `toml:"backend"`
	RedisAddr string `toml:"redis_addr"`
}

type StoreConfig struct {
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
	Dir      string `toml:"dir"` // file store location when no mongo_uri is set
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// duration decodes TOML strings such as "5s" or "1m30s".
type duration struct{ time.Duration }

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Solver: SolverConfig{Quality: pipeline.DefaultQuality},
		Cache:  CacheConfig{Backend: cacheNone},
		Server: ServerConfig{Addr: defaultServerAddr},
	}
}

// defaultConfigPath returns $XDG_CONFIG_HOME/changeover/config.toml.
func defaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// loadConfig reads path over the defaults. An empty path means the default
// location, which may be absent; an explicit path must exist.
func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		p, err := defaultConfigPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if os.IsNotExist(err) && !explicit {
		return DefaultConfig(), nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Solver.Quality != "" {
		if _, err := solver.ParseQuality(c.Solver.Quality); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	switch c.Cache.Backend {
	case "", cacheNone, cacheFile, cacheRedis:
	default:
		return fmt.Errorf("config: unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}
