package storage

import (
	"encoding/json"
	"fmt"
	"sync"
)

// MemStore is a map-backed Store with the same quota behavior as FileStore.
// It backs tests and the memory-only degraded mode when the real medium is
// unavailable.
type MemStore struct {
	mu    sync.Mutex
	data  map[string][]byte
	quota int64

	// FailPuts simulates an unreachable medium for tests.
	FailPuts bool
}

func NewMemStore(quota int64) *MemStore {
	if quota <= 0 {
		quota = DefaultQuota
	}
	return &MemStore{data: map[string][]byte{}, quota: quota}
}

func (s *MemStore) Put(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailPuts {
		return ErrUnavailable
	}
	used := s.usedLocked(key)
	if used+int64(len(b)) > s.quota {
		return fmt.Errorf("%w: %s needs %d bytes, %d available",
			ErrQuotaExceeded, key, len(b), s.quota-used)
	}
	s.data[key] = b
	return nil
}

func (s *MemStore) Get(key string, out any) error {
	s.mu.Lock()
	b, ok := s.data[key]
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return nil
}

func (s *MemStore) Remove(key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *MemStore) Clear(keys []string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.data, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemStore) Usage() (used, avail int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	used = s.usedLocked("")
	return used, s.quota - used, nil
}

// SetRaw stores raw bytes without validation. Test hook for simulating
// corrupted records.
func (s *MemStore) SetRaw(key string, b []byte) {
	s.mu.Lock()
	s.data[key] = b
	s.mu.Unlock()
}

func (s *MemStore) usedLocked(excludeKey string) int64 {
	var total int64
	for k, b := range s.data {
		if k == excludeKey {
			continue
		}
		total += int64(len(b))
	}
	return total
}
