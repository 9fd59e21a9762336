package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Audit hooks
	a := NoopAuditHooks{}
	a.OnImportStart(ctx, "graph.json")
	a.OnImportComplete(ctx, "graph.json", 12, time.Second, nil)
	a.OnAuditStart(ctx, "assembly")
	a.OnAuditComplete(ctx, "assembly", 100, 3, time.Second, nil)
	a.OnRenderStart(ctx, []string{"svg"})
	a.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "report")
	c.OnCacheMiss(ctx, "graph")
	c.OnCacheSet(ctx, "report", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/reports/{id}")
	h.OnResponse(ctx, "GET", "/reports/{id}", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Audit().(NoopAuditHooks); !ok {
		t.Error("Audit() should return NoopAuditHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customAudit := &testAuditHooks{}
	SetAuditHooks(customAudit)
	if Audit() != customAudit {
		t.Error("SetAuditHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Audit().(NoopAuditHooks); !ok {
		t.Error("Reset() should restore NoopAuditHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testAuditHooks{}
	SetAuditHooks(custom)

	// Setting nil should be ignored
	SetAuditHooks(nil)

	if Audit() != custom {
		t.Error("SetAuditHooks(nil) should be ignored")
	}

	Reset()
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	h := LogHooks{Logger: log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})}
	ctx := context.Background()

	h.OnAuditComplete(ctx, "assembly", 10, 2, time.Millisecond, nil)
	h.OnImportComplete(ctx, "graph.toml", 0, time.Millisecond, errors.New("boom"))

	out := buf.String()
	for _, want := range []string{"audit finished", "event=assembly", "errors=2", "WARN", "import finished", "error=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

// Test implementations
type testAuditHooks struct{ NoopAuditHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
