package httputil

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/hapaudit/pkg/errors"
)

// Cache keeps downloaded document bodies on disk.
//
// Each body is stored verbatim in a file named by the SHA-256 of its key,
// so a cached graph document can be inspected with ordinary tools. Entries
// expire by modification time; a TTL of 0 keeps them forever. Writes go
// through a temporary file so concurrent imports of the same URL never
// observe a partial body.
//
// Use [Cache.Namespace] to keep different kinds of download apart:
//
//	docs := c.Namespace("url:")
//	fastas := c.Namespace("fasta:")
type Cache struct {
	dir    string
	ttl    time.Duration
	prefix string
}

// NewCache creates a Cache in dir with the given TTL. An empty dir means
// ~/.cache/hapaudit/downloads.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "locate home directory")
		}
		dir = filepath.Join(home, ".cache", "hapaudit", "downloads")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// TTL returns the lifetime of an entry.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the body stored under key. Missing and expired entries are
// misses; expired files are removed.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	path := c.path(key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "stat cached %s", key)
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		_ = os.Remove(path)
		return nil, false, nil
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "read cached %s", key)
	}
	return body, true, nil
}

// Set stores body under key and restarts its TTL.
func (c *Cache) Set(key string, body []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "cache %s", key)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "cache %s", key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "cache %s", key)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "cache %s", key)
	}
	return nil
}

// Namespace returns a view whose keys carry prefix after any prefix c
// already has.
func (c *Cache) Namespace(prefix string) *Cache {
	return &Cache{dir: c.dir, ttl: c.ttl, prefix: c.prefix + prefix}
}

func (c *Cache) path(key string) string {
	h := sha256.Sum256([]byte(c.prefix + key))
	return filepath.Join(c.dir, hex.EncodeToString(h[:]))
}
