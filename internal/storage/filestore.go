package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps one JSON document per key in a single directory.
// Human-readable, portable, no locking across processes; a mutex guards
// the quota check-then-write sequence within this process.
type FileStore struct {
	mu    sync.Mutex
	dir   string
	quota int64
}

// NewFileStore creates the data dir if needed. An uncreatable dir means the
// medium is unusable and surfaces as ErrUnavailable.
func NewFileStore(dir string, quota int64) (*FileStore, error) {
	if quota <= 0 {
		quota = DefaultQuota
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: mkdir %s: %v", ErrUnavailable, dir, err)
	}
	return &FileStore{dir: dir, quota: quota}, nil
}

func (s *FileStore) path(key string) string {
	// Keys are app-namespaced dotted names; keep them filesystem-safe.
	name := strings.ReplaceAll(key, string(filepath.Separator), "_")
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Put(key string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	used, err := s.usedLocked(key)
	if err != nil {
		return err
	}
	if used+int64(len(b)) > s.quota {
		return fmt.Errorf("%w: %s needs %d bytes, %d available",
			ErrQuotaExceeded, key, len(b), s.quota-used)
	}
	if err := os.WriteFile(s.path(key), b, 0o644); err != nil {
		if errors.Is(err, os.ErrPermission) || errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: write %s: %v", ErrUnavailable, key, err)
		}
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(key string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: read %s: %v", ErrUnavailable, key, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return nil
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Clear(keys []string) error {
	for _, k := range keys {
		if err := s.Remove(k); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileStore) Usage() (used, avail int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	used, err = s.usedLocked("")
	if err != nil {
		return 0, 0, err
	}
	return used, s.quota - used, nil
}

// usedLocked sums serialized sizes of all owned keys, skipping excludeKey
// (the key about to be overwritten counts at its new size, not its old one).
func (s *FileStore) usedLocked(excludeKey string) (int64, error) {
	var total int64
	for _, k := range OwnedKeys() {
		if k == excludeKey {
			continue
		}
		fi, err := os.Stat(s.path(k))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return 0, fmt.Errorf("%w: stat %s: %v", ErrUnavailable, k, err)
		}
		total += fi.Size()
	}
	return total, nil
}
