package storage

import "errors"

// Store is a size-bounded persistent key-value store. Values are serialized
// to JSON; the quota applies to the serialized bytes of the keys this
// application owns, not to the whole backing medium.
//
// The backing medium has no transactional guarantees, so Put must size-check
// before committing and Get must tolerate corruption without crashing the
// caller.
type Store interface {
	// Put serializes v and stores it under key. Fails with ErrQuotaExceeded
	// (leaving any prior value intact) if the write would push total usage
	// past the quota, or ErrUnavailable if the medium cannot be reached.
	Put(key string, v any) error

	// Get deserializes the value under key into out. Returns ErrNotFound for
	// an unset key and ErrCorrupt when the stored bytes do not parse; callers
	// treat both as "absent" and fall back to defaults.
	Get(key string, out any) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error

	// Clear removes every listed key.
	Clear(keys []string) error

	// Usage reports bytes used by the application's keys and bytes left
	// under the quota.
	Usage() (used, avail int64, err error)
}

var (
	ErrNotFound      = errors.New("storage: key not found")
	ErrCorrupt       = errors.New("storage: stored data corrupt")
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
	ErrUnavailable   = errors.New("storage: store unavailable")
)

// DefaultQuota matches the usual 5 MiB ceiling of browser-style stores.
const DefaultQuota int64 = 5 * 1024 * 1024

// Keys owned by this application.
const (
	KeyTasks    = "taskdeck.tasks"
	KeySettings = "taskdeck.settings"
	KeyUIState  = "taskdeck.uistate"
	KeySchema   = "taskdeck.schema"
)

// OwnedKeys lists every key the app writes, in Clear order.
func OwnedKeys() []string {
	return []string{KeyTasks, KeySettings, KeyUIState, KeySchema}
}
