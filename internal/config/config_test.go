package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hapaudit/pkg/cache"
	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/store"
)

const sample = `
[audit]
targets = ["maternal", "paternal"]
others = ["contaminant"]
substitutions = true

[audit.parameters]
minimum_n_count = 10
max_insertion_length = 1000
max_deletion_length = 2000

[linkage]
samples = 50

[cache]
backend = "none"
prefix = "lab-a:"

[store]
backend = "memory"

[server]
addr = ":9000"
read_timeout = "5s"

[log]
level = "debug"
`

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := strings.Join(cfg.Audit.Targets, ","); got != "maternal,paternal" {
		t.Errorf("Targets = %s", got)
	}
	if cfg.Audit.Parameters.MinimumNCount != 10 || cfg.Audit.Parameters.MaxDeletionLength != 2000 {
		t.Errorf("Parameters = %+v", cfg.Audit.Parameters)
	}
	if cfg.Linkage.Samples != 50 || cfg.Linkage.Buckets != 100 {
		t.Errorf("Linkage = %+v, want samples from file and default buckets", cfg.Linkage)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.WriteTimeout != 5*time.Minute {
		t.Errorf("WriteTimeout = %v, want default", cfg.Server.WriteTimeout)
	}
	if lvl, _ := cfg.LogLevel(); lvl != log.DebugLevel {
		t.Errorf("LogLevel = %v", lvl)
	}

	opts := cfg.ReportOptions("asm")
	if len(opts.Events) != 1 || opts.Events[0] != "asm" || !opts.Substitutions || opts.Parameters.MaxInsertionLength != 1000 {
		t.Errorf("ReportOptions = %+v", opts)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		code errors.Code
	}{
		{"syntax", "[audit", errors.ErrCodeInvalidFormat},
		{"unknown key", "[audit]\ntarget = [\"x\"]", errors.ErrCodeInvalidFormat},
		{"cache backend", "[cache]\nbackend = \"memcached\"", errors.ErrCodeInvalidParameters},
		{"store backend", "[store]\nbackend = \"s3\"", errors.ErrCodeInvalidParameters},
		{"redis without addr", "[cache]\nbackend = \"redis\"", errors.ErrCodeInvalidParameters},
		{"mongo without uri", "[store]\nbackend = \"mongo\"", errors.ErrCodeInvalidParameters},
		{"negative threshold", "[audit.parameters]\nminimum_n_count = -1", errors.ErrCodeInvalidParameters},
		{"log level", "[log]\nlevel = \"loud\"", errors.ErrCodeInvalidParameters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.toml)); !errors.Is(err, tt.code) {
				t.Errorf("Parse() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"HAPAUDIT_TARGETS":         "h1, h2,,",
		"HAPAUDIT_MINIMUM_N_COUNT": "7",
		"HAPAUDIT_CACHE_BACKEND":   "redis",
		"HAPAUDIT_REDIS_ADDR":      "redis:6379",
		"HAPAUDIT_CACHE_PREFIX":    "staging:",
		"HAPAUDIT_MONGO_URI":       "mongodb://mongo:27017",
		"PORT":                     "8181",
		"HAPAUDIT_LOG_LEVEL":       " warn ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if got := strings.Join(cfg.Audit.Targets, "|"); got != "h1|h2" {
		t.Errorf("Targets = %s", got)
	}
	if cfg.Audit.Parameters.MinimumNCount != 7 {
		t.Errorf("MinimumNCount = %d", cfg.Audit.Parameters.MinimumNCount)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.Redis.Addr != "redis:6379" || cfg.Cache.Prefix != "staging:" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Store.Mongo.URI != "mongodb://mongo:27017" {
		t.Errorf("Mongo = %+v", cfg.Store.Mongo)
	}
	if cfg.Server.Addr != ":8181" {
		t.Errorf("Addr = %s", cfg.Server.Addr)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}

	env["HAPAUDIT_MAX_DELETION_LENGTH"] = "lots"
	if err := Default().applyEnv(lookup); !errors.Is(err, errors.ErrCodeInvalidParameters) {
		t.Errorf("bad number error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("HAPAUDIT_CONFIG", "")
	t.Setenv("HAPAUDIT_LOG_LEVEL", "error")

	// No file at the default location.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load without file: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("env override not applied: %q", cfg.Log.Level)
	}

	if _, err := Load(filepath.Join(dir, "absent.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file error = %v", err)
	}

	if err := os.MkdirAll(filepath.Join(dir, AppName), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, AppName, "config.toml"), []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load default file: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Log.Level != "error" {
		t.Errorf("Load = server %s, level %s", cfg.Server.Addr, cfg.Log.Level)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := Default()
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	cfg.Store.Dir = filepath.Join(dir, "reports")

	c, err := cfg.OpenCache(ctx)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	if _, ok := c.(*cache.FileCache); !ok {
		t.Errorf("OpenCache() = %T, want *cache.FileCache", c)
	}
	st, err := cfg.OpenStore(ctx)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if fs, ok := st.(*store.FileStore); !ok || fs.Path() != cfg.Store.Dir {
		t.Errorf("OpenStore() = %T", st)
	}

	cfg.Cache.Backend, cfg.Store.Backend = BackendNone, BackendNone
	if c, _ := cfg.OpenCache(ctx); c == nil {
		t.Error("OpenCache(none) returned nil")
	}
	if st, _ := cfg.OpenStore(ctx); st != nil {
		t.Errorf("OpenStore(none) = %T, want nil", st)
	}
}

func TestKeyer(t *testing.T) {
	opts := cache.ReportKeyOpts{Targets: []string{"maternal"}}
	plain := cache.NewDefaultKeyer().ReportKey("g1", "asm", opts)

	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{"unscoped", "", plain},
		{"scoped", "lab-a:", "lab-a:" + plain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Cache.Prefix = tt.prefix
			if got := cfg.Keyer().ReportKey("g1", "asm", opts); got != tt.want {
				t.Errorf("ReportKey = %s, want %s", got, tt.want)
			}
		})
	}

	cfg, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Keyer().GraphKey("g1"); got != "lab-a:graph:g1" {
		t.Errorf("GraphKey from parsed config = %s", got)
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().Write(&buf); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"[audit]", "[cache]", "backend = \"file\"", "minimum_n_count = 25"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Write() missing %q:\n%s", want, buf.String())
		}
	}
}
