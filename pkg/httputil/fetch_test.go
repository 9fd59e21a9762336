package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/hapaudit/pkg/errors"
)

func TestFetcherGet(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		switch r.URL.Path {
		case "/flaky":
			if n == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte("ok"))
		case "/graph.json":
			w.Write([]byte(`{"events":[]}`))
		case "/forbidden":
			w.WriteHeader(http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f, err := NewFetcher(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	f.Delay = time.Millisecond
	ctx := context.Background()

	t.Run("cached", func(t *testing.T) {
		calls.Store(0)
		for range 2 {
			body, err := f.Get(ctx, srv.URL+"/graph.json")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(body) != `{"events":[]}` {
				t.Errorf("body = %s", body)
			}
		}
		if calls.Load() != 1 {
			t.Errorf("server called %d times, want 1", calls.Load())
		}
	})

	t.Run("retried", func(t *testing.T) {
		calls.Store(0)
		body, err := f.Get(ctx, srv.URL+"/flaky")
		if err != nil || string(body) != "ok" {
			t.Fatalf("Get = %q, %v", body, err)
		}
		if calls.Load() != 2 {
			t.Errorf("server called %d times, want 2", calls.Load())
		}
	})

	t.Run("not found", func(t *testing.T) {
		calls.Store(0)
		if _, err := f.Get(ctx, srv.URL+"/absent"); !errors.Is(err, errors.ErrCodeNotFound) {
			t.Errorf("Get error = %v, want NOT_FOUND", err)
		}
		if calls.Load() != 1 {
			t.Errorf("404 retried: %d calls", calls.Load())
		}
	})

	t.Run("client error", func(t *testing.T) {
		if _, err := f.Get(ctx, srv.URL+"/forbidden"); !errors.Is(err, errors.ErrCodeNetwork) {
			t.Errorf("Get error = %v, want NETWORK_ERROR", err)
		}
	})
}
