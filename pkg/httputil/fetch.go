package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/observability"
)

// DefaultTimeout bounds a single download attempt.
const DefaultTimeout = 2 * time.Minute

// Fetcher downloads URLs with retry and, when Cache is set, serves repeated
// downloads from disk.
type Fetcher struct {
	Client   *http.Client
	Cache    *Cache
	Attempts int
	Delay    time.Duration
}

// NewFetcher creates a fetcher caching bodies in dir (see [NewCache]) for
// ttl.
func NewFetcher(dir string, ttl time.Duration) (*Fetcher, error) {
	c, err := NewCache(dir, ttl)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create download cache")
	}
	return &Fetcher{
		Client:   &http.Client{Timeout: DefaultTimeout},
		Cache:    c.Namespace("url:"),
		Attempts: 3,
		Delay:    time.Second,
	}, nil
}

// Get returns the body of url.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	if f.Cache != nil {
		if body, ok, err := f.Cache.Get(url); ok && err == nil {
			observability.Cache().OnCacheHit(ctx, "download")
			return body, nil
		}
		observability.Cache().OnCacheMiss(ctx, "download")
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	var body []byte
	err := Retry(ctx, f.Attempts, f.Delay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "request %s", url)
		}
		resp, err := client.Do(req)
		if err != nil {
			return Transient(errors.Wrap(errors.ErrCodeNetwork, err, "get %s", url))
		}
		defer resp.Body.Close()

		if err := checkStatus(url, resp); err != nil {
			return err
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return Transient(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", url))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if f.Cache != nil {
		if err := f.Cache.Set(url, body); err == nil {
			observability.Cache().OnCacheSet(ctx, "download", len(body))
		}
	}
	return body, nil
}

func checkStatus(url string, resp *http.Response) error {
	switch code := resp.StatusCode; {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "get %s: %s", url, resp.Status)
	case code == http.StatusTooManyRequests || code >= 500:
		return Transient(errors.New(errors.ErrCodeNetwork, "get %s: %s", url, resp.Status))
	default:
		return errors.New(errors.ErrCodeNetwork, "get %s: %s", url, resp.Status)
	}
}

// String describes the fetcher for logs.
func (f *Fetcher) String() string {
	dir := "none"
	if f.Cache != nil {
		dir = f.Cache.Dir()
	}
	return fmt.Sprintf("fetcher(attempts=%d, cache=%s)", f.Attempts, dir)
}
