package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/report"
)

// FileStore is a file-based report store for CLI applications.
// Reports are stored as JSON files named by report ID.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a new file-based report store.
// If baseDir is empty, defaults to ~/.cache/hapaudit/reports/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "get home dir")
		}
		baseDir = filepath.Join(home, ".cache", "hapaudit", "reports")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create report dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) reportPath(id string) (string, error) {
	if err := errors.ValidatePath(id + ".json"); err != nil {
		return "", err
	}
	if strings.ContainsRune(id, '/') {
		return "", errors.New(errors.ErrCodeInvalidPath, "report ID %q contains a path separator", id)
	}
	return filepath.Join(s.baseDir, id+".json"), nil
}

func (s *FileStore) Save(_ context.Context, r *report.Report) error {
	if r.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "report has no ID")
	}
	path, err := s.reportPath(r.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal report")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write report file")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeInternal, err, "write report file")
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, id string) (*report.Report, error) {
	path, err := s.reportPath(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := readReport(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeNotFound, "report %q not found", id)
	}
	return r, err
}

func (s *FileStore) List(_ context.Context, event string) ([]*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read report dir")
	}
	var out []*report.Report
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		r, err := readReport(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		if event == "" || r.Event == event {
			out = append(out, r)
		}
	}
	newestFirst(out)
	return out, nil
}

// Delete removes a report. Unknown IDs are ignored.
func (s *FileStore) Delete(_ context.Context, id string) error {
	path, err := s.reportPath(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeInternal, err, "remove report file")
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for report files.
func (s *FileStore) Path() string {
	return s.baseDir
}

func readReport(path string) (*report.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read report file")
	}
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse report %s", filepath.Base(path))
	}
	r.Recount()
	return &r, nil
}

var _ report.Store = (*FileStore)(nil)
