package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	herrors "github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/httputil"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "report:asm:1", []byte("{}"), TTLReport); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if data, hit, err := c.Get(ctx, "report:asm:1"); hit || data != nil || err != nil {
		t.Errorf("Get = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "report:asm:1"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestReportKey(t *testing.T) {
	k := NewDefaultKeyer()
	base := ReportKeyOpts{Targets: []string{"maternal", "paternal"}, Others: []string{"ref"}, MinimumNCount: 25}
	key := k.ReportKey("g1", "asm", base)

	if !strings.HasPrefix(key, "report:asm:") {
		t.Fatalf("key %q lacks the report:asm: prefix", key)
	}
	if h := strings.TrimPrefix(key, "report:asm:"); len(h) != 64 {
		t.Errorf("hash part has %d chars, want 64", len(h))
	}

	reordered := base
	reordered.Targets = []string{"paternal", "maternal"}
	if got := k.ReportKey("g1", "asm", reordered); got != key {
		t.Errorf("target order changed the key: %s vs %s", got, key)
	}
	if base.Targets[0] != "maternal" || reordered.Targets[0] != "paternal" {
		t.Error("ReportKey reordered the caller's slice")
	}

	tests := []struct {
		name  string
		graph string
		event string
		opts  ReportKeyOpts
	}{
		{"other graph", "g2", "asm", base},
		{"other event", "g1", "asm2", base},
		{"minimum n count", "g1", "asm", ReportKeyOpts{Targets: base.Targets, Others: base.Others, MinimumNCount: 10}},
		{"adjacency bases", "g1", "asm", ReportKeyOpts{Targets: base.Targets, Others: base.Others, MinimumNCount: 25, IgnoreAdjacencyBases: true}},
		{"substitutions", "g1", "asm", ReportKeyOpts{Targets: base.Targets, Others: base.Others, MinimumNCount: 25, Substitutions: true}},
		{"no others", "g1", "asm", ReportKeyOpts{Targets: base.Targets, MinimumNCount: 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := k.ReportKey(tt.graph, tt.event, tt.opts); got == key {
				t.Errorf("key unchanged: %s", got)
			}
		})
	}

	if got := k.GraphKey("g1"); got != "graph:g1" {
		t.Errorf("GraphKey = %s", got)
	}
	if Hash([]byte("g1")) != Hash([]byte("g1")) || Hash([]byte("g1")) == Hash([]byte("g2")) {
		t.Error("Hash is not a function of its input")
	}
}

func TestScopedKeyer(t *testing.T) {
	opts := ReportKeyOpts{Targets: []string{"hap"}}
	def := NewDefaultKeyer()

	tests := []struct {
		name   string
		inner  Keyer
		prefix string
	}{
		{"staging", def, "staging:"},
		{"nil inner", nil, "lab-a:"},
		{"empty prefix", def, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := NewScopedKeyer(tt.inner, tt.prefix)
			if got, want := k.GraphKey("g1"), tt.prefix+"graph:g1"; got != want {
				t.Errorf("GraphKey = %s, want %s", got, want)
			}
			if got, want := k.ReportKey("g1", "asm", opts), tt.prefix+def.ReportKey("g1", "asm", opts); got != want {
				t.Errorf("ReportKey = %s, want %s", got, want)
			}
			if got := k.(*ScopedKeyer).Prefix(); got != tt.prefix {
				t.Errorf("Prefix = %q", got)
			}
		})
	}
}

// newTestFileCache returns a FileCache whose clock the test controls.
func newTestFileCache(t *testing.T) (*FileCache, *time.Time) {
	t.Helper()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	fc := c.(*FileCache)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	fc.now = func() time.Time { return now }
	return fc, &now
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, now := newTestFileCache(t)
	report := []byte(`{"event":"asm","counts":{"CORRECT":12}}`)

	if _, hit, err := c.Get(ctx, "report:asm:1"); hit || err != nil {
		t.Fatalf("empty cache Get = %v, %v", hit, err)
	}
	if err := c.Set(ctx, "report:asm:1", report, TTLReport); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, "graph:1", []byte("g"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "report:asm:1")
	if err != nil || !hit || string(data) != string(report) {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	*now = now.Add(TTLReport + time.Second)
	if _, hit, _ := c.Get(ctx, "report:asm:1"); hit {
		t.Error("expired report reported a hit")
	}
	if _, err := os.Stat(c.path("report:asm:1")); !os.IsNotExist(err) {
		t.Errorf("expired entry left on disk: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "graph:1"); !hit {
		t.Error("entry without TTL expired")
	}

	if err := c.Delete(ctx, "graph:1"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "graph:1"); hit {
		t.Error("deleted entry reported a hit")
	}
	if err := c.Delete(ctx, "graph:1"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}

	var temps []string
	filepath.WalkDir(c.Dir(), func(path string, d os.DirEntry, err error) error {
		if err == nil && strings.HasPrefix(d.Name(), ".entry-") {
			temps = append(temps, path)
		}
		return nil
	})
	if len(temps) > 0 {
		t.Errorf("temporary files left behind: %v", temps)
	}
}

func TestFileCacheDiscardsBadEntries(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestFileCache(t)

	tests := []struct {
		name  string
		setup func(path string) error
	}{
		{"corrupt", func(path string) error {
			return os.WriteFile(path, []byte("{not json"), 0o644)
		}},
		{"key mismatch", func(path string) error {
			return os.WriteFile(path, []byte(`{"key":"report:asm2:9","data":"e30="}`), 0o644)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "report:asm:" + tt.name
			if err := c.Set(ctx, key, []byte("{}"), 0); err != nil {
				t.Fatal(err)
			}
			if err := tt.setup(c.path(key)); err != nil {
				t.Fatal(err)
			}
			if data, hit, err := c.Get(ctx, key); hit || err != nil {
				t.Errorf("Get = %q, %v, %v; want a miss", data, hit, err)
			}
			if _, err := os.Stat(c.path(key)); !os.IsNotExist(err) {
				t.Errorf("bad entry left on disk: %v", err)
			}
		})
	}
}

func TestFileCachePrune(t *testing.T) {
	ctx := context.Background()
	c, now := newTestFileCache(t)

	for key, ttl := range map[string]time.Duration{
		"report:asm:1":  time.Hour,
		"report:asm2:1": time.Hour,
		"report:asm:2":  3 * time.Hour,
		"graph:1":       0,
	} {
		if err := c.Set(ctx, key, []byte(key), ttl); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(c.path("report:bad"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	notes := filepath.Join(c.Dir(), "README")
	if err := os.WriteFile(notes, []byte("hapaudit cache"), 0o644); err != nil {
		t.Fatal(err)
	}

	*now = now.Add(2 * time.Hour)
	n, err := c.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 3 {
		t.Errorf("Prune removed %d entries, want 3", n)
	}
	for _, key := range []string{"report:asm:2", "graph:1"} {
		if _, hit, _ := c.Get(ctx, key); !hit {
			t.Errorf("live entry %s pruned", key)
		}
	}
	if _, err := os.Stat(notes); err != nil {
		t.Errorf("non-entry file removed: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := c.Prune(cancelled); err != context.Canceled {
		t.Errorf("Prune on cancelled context = %v", err)
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisCache(ctx, RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	if !herrors.Is(err, herrors.ErrCodeNetwork) {
		t.Errorf("NewRedisCache error = %v, want NETWORK_ERROR", err)
	}
	if _, err := NewRedisCache(ctx, RedisConfig{}); !herrors.Is(err, herrors.ErrCodeInvalidInput) {
		t.Errorf("empty address error = %v, want INVALID_INPUT", err)
	}
}

func TestRedisTransient(t *testing.T) {
	refused := errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
	tests := []struct {
		name  string
		err   error
		retry bool
	}{
		{"nil", nil, false},
		{"miss", redis.Nil, false},
		{"cancelled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"connection", refused, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := transient(tt.err)
			if got := httputil.IsTransient(err); got != tt.retry {
				t.Errorf("IsTransient(transient(%v)) = %v, want %v", tt.err, got, tt.retry)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Errorf("transient(%v) lost its cause: %v", tt.err, err)
			}
		})
	}
}
