// Package config loads hapaudit settings.
//
// Settings come from three layers, later layers winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file, by default ~/.config/hapaudit/config.toml
//  3. HAPAUDIT_* environment variables, optionally read from a .env file
//
// A minimal file:
//
//	[audit]
//	targets = ["maternal", "paternal"]
//	minimum_n_count = 25
//
//	[cache]
//	backend = "redis"
//	redis.addr = "localhost:6379"
//	prefix = "lab-a:"
package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/matzehuels/hapaudit/pkg/cache"
	"github.com/matzehuels/hapaudit/pkg/capcode"
	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/linkage"
	"github.com/matzehuels/hapaudit/pkg/report"
	"github.com/matzehuels/hapaudit/pkg/store"
)

// AppName names the configuration, cache and report directories.
const AppName = "hapaudit"

// Backend names.
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

// Config is the complete application configuration.
type Config struct {
	Audit   AuditConfig     `toml:"audit"`
	Linkage linkage.Options `toml:"linkage"`
	Cache   CacheConfig     `toml:"cache"`
	Store   StoreConfig     `toml:"store"`
	Server  ServerConfig    `toml:"server"`
	Log     LogConfig       `toml:"log"`
}

// AuditConfig holds defaults for audit commands and API requests.
type AuditConfig struct {
	Targets              []string           `toml:"targets"`
	Others               []string           `toml:"others"`
	Parameters           capcode.Parameters `toml:"parameters"`
	IgnoreAdjacencyBases bool               `toml:"ignore_adjacency_bases"`
	CacheSize            int                `toml:"cache_size"`
	Substitutions        bool               `toml:"substitutions"`
}

// CacheConfig selects the report cache.
type CacheConfig struct {
	Backend string            `toml:"backend"` // none, file or redis
	Dir     string            `toml:"dir"`
	Prefix  string            `toml:"prefix"` // prepended to every key
	Redis   cache.RedisConfig `toml:"redis"`
}

// StoreConfig selects where reports are kept.
type StoreConfig struct {
	Backend string            `toml:"backend"` // none, memory, file or mongo
	Dir     string            `toml:"dir"`
	Mongo   store.MongoConfig `toml:"mongo"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string        `toml:"addr"`
	ReadTimeout    time.Duration `toml:"read_timeout"`
	WriteTimeout   time.Duration `toml:"write_timeout"`
	MaxUploadBytes int64         `toml:"max_upload_bytes"`
}

// LogConfig sets the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Audit: AuditConfig{Parameters: capcode.DefaultParameters()},
		Linkage: linkage.Options{
			Samples:    linkage.DefaultSamples,
			Buckets:    linkage.DefaultBuckets,
			BucketSize: linkage.DefaultBucketSize,
			Seed:       linkage.DefaultSeed,
		},
		Cache: CacheConfig{Backend: BackendFile},
		Store: StoreConfig{Backend: BackendFile},
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   5 * time.Minute,
			MaxUploadBytes: 256 << 20,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration. An empty path uses $HAPAUDIT_CONFIG or the
// default file when either exists; a missing default file is not an error.
// A .env file in the working directory is read before the environment is
// applied.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = os.Getenv("HAPAUDIT_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		if dir, err := Dir(); err == nil {
			path = filepath.Join(dir, "config.toml")
		}
	}
	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			if err := cfg.decode(f); err != nil {
				return nil, errors.Wrap(errors.GetCode(err), err, "%s", path)
			}
		case os.IsNotExist(err) && !explicit:
		case os.IsNotExist(err):
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open config %s", path)
		default:
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open config %s", path)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML from r on top of the defaults, without consulting the
// environment.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	md, err := toml.NewDecoder(r).Decode(c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode config")
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "unknown config key %q", keys[0].String())
	}
	return nil
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode config")
	}
	return nil
}

type lookupFunc func(string) (string, bool)

// applyEnv overrides settings from HAPAUDIT_* variables.
func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = splitList(v)
		}
	}
	num := func(name string, dst *int64) error {
		v, ok := lookup(name)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidParameters, err, "%s", name)
		}
		*dst = n
		return nil
	}

	list("HAPAUDIT_TARGETS", &c.Audit.Targets)
	list("HAPAUDIT_OTHERS", &c.Audit.Others)
	if err := num("HAPAUDIT_MINIMUM_N_COUNT", &c.Audit.Parameters.MinimumNCount); err != nil {
		return err
	}
	if err := num("HAPAUDIT_MAX_INSERTION_LENGTH", &c.Audit.Parameters.MaxInsertionLength); err != nil {
		return err
	}
	if err := num("HAPAUDIT_MAX_DELETION_LENGTH", &c.Audit.Parameters.MaxDeletionLength); err != nil {
		return err
	}
	str("HAPAUDIT_CACHE_BACKEND", &c.Cache.Backend)
	str("HAPAUDIT_CACHE_DIR", &c.Cache.Dir)
	str("HAPAUDIT_CACHE_PREFIX", &c.Cache.Prefix)
	str("HAPAUDIT_REDIS_ADDR", &c.Cache.Redis.Addr)
	str("HAPAUDIT_REDIS_PASSWORD", &c.Cache.Redis.Password)
	str("HAPAUDIT_STORE_BACKEND", &c.Store.Backend)
	str("HAPAUDIT_STORE_DIR", &c.Store.Dir)
	str("HAPAUDIT_MONGO_URI", &c.Store.Mongo.URI)
	str("HAPAUDIT_MONGO_DATABASE", &c.Store.Mongo.Database)
	str("HAPAUDIT_ADDR", &c.Server.Addr)
	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(strings.TrimSpace(v), ":")
	}
	str("HAPAUDIT_LOG_LEVEL", &c.Log.Level)
	return nil
}

// Validate checks backend names, thresholds and the log level.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendNone, BackendFile, BackendRedis:
	default:
		return errors.New(errors.ErrCodeInvalidParameters, "unknown cache backend %q (use none, file or redis)", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case BackendNone, BackendMemory, BackendFile, BackendMongo:
	default:
		return errors.New(errors.ErrCodeInvalidParameters, "unknown store backend %q (use none, memory, file or mongo)", c.Store.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.Redis.Addr == "" {
		return errors.New(errors.ErrCodeInvalidParameters, "redis cache requires cache.redis.addr")
	}
	if c.Store.Backend == BackendMongo && c.Store.Mongo.URI == "" {
		return errors.New(errors.ErrCodeInvalidParameters, "mongo store requires store.mongo.uri")
	}
	if err := c.Audit.Parameters.Validate(); err != nil {
		return err
	}
	if c.Audit.CacheSize < 0 {
		return errors.New(errors.ErrCodeInvalidParameters, "audit cache size must be non-negative, got %d", c.Audit.CacheSize)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (log.Level, error) {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel, errors.Wrap(errors.ErrCodeInvalidParameters, err, "log level")
	}
	return lvl, nil
}

// ReportOptions returns audit options for events with the configured
// defaults.
func (c *Config) ReportOptions(events ...string) report.Options {
	return report.Options{
		Events:               events,
		Targets:              c.Audit.Targets,
		Others:               c.Audit.Others,
		Parameters:           c.Audit.Parameters,
		IgnoreAdjacencyBases: c.Audit.IgnoreAdjacencyBases,
		CacheSize:            c.Audit.CacheSize,
		Substitutions:        c.Audit.Substitutions,
	}
}

// OpenCache creates the configured cache.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case BackendRedis:
		return cache.NewRedisCache(ctx, c.Cache.Redis)
	case BackendFile:
		dir := c.Cache.Dir
		if dir == "" {
			d, err := CacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	}
	return cache.NewNullCache(), nil
}

// Keyer returns the cache keyer, scoped by Cache.Prefix when one is set.
func (c *Config) Keyer() cache.Keyer {
	if c.Cache.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Cache.Prefix)
}

// OpenStore creates the configured report store, or nil for "none".
func (c *Config) OpenStore(ctx context.Context) (report.Store, error) {
	switch c.Store.Backend {
	case BackendMongo:
		st, err := store.NewMongoStore(ctx, c.Store.Mongo)
		if err != nil {
			return nil, err
		}
		return st, nil
	case BackendMemory:
		return store.NewMemoryStore(), nil
	case BackendFile:
		st, err := store.NewFileStore(c.Store.Dir)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	return nil, nil
}

// Dir returns the configuration directory (~/.config/hapaudit/), honouring
// XDG_CONFIG_HOME.
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// CacheDir returns the cache directory using XDG standard (~/.cache/hapaudit/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
