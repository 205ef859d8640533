package task

import (
	"errors"
	"time"

	"github.com/idilsaglam/taskdeck/internal/model"
	"github.com/idilsaglam/taskdeck/internal/state"
	"github.com/idilsaglam/taskdeck/internal/storage"
	"github.com/idilsaglam/taskdeck/internal/validate"
)

// SchemaVersion stamps every persisted record. A mismatch on load runs the
// migration hook before validation.
const SchemaVersion = "1.0.0"

// Persisted record envelopes, one named payload per key.
type tasksRecord struct {
	Tasks     []model.Task `json:"tasks"`
	Timestamp time.Time    `json:"timestamp"`
	Version   string       `json:"version"`
}

type settingsRecord struct {
	Settings  model.Settings `json:"settings"`
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
}

type uiRecord struct {
	UIState   model.UIState `json:"uiState"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version"`
}

type schemaRecord struct {
	Schema    string    `json:"schema"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// Load pulls the persisted records into the container. Absent and corrupt
// records degrade to defaults (logged, never fatal); an unavailable store
// flips the session into memory-only mode.
func (m *Manager) Load() {
	now := m.clock.Now()

	tasks := []model.Task{}
	settings := model.DefaultSettings()
	ui := model.DefaultUIState()

	// Each record decodes loosely first so one bad field cannot void the
	// rest; the validator is the only path into the model types.
	var rawTasks map[string]any
	if m.loadRecord(storage.KeyTasks, &rawTasks) {
		payload := m.migrate(rawTasks, "tasks")
		list, _ := payload.([]any)
		var dropped int
		tasks, dropped = validate.TaskList(list, now)
		if dropped > 0 {
			m.logger.Printf("load: dropped %d invalid task record(s)", dropped)
		}
	}

	var rawSettings map[string]any
	if m.loadRecord(storage.KeySettings, &rawSettings) {
		settings = validate.Settings(m.migrate(rawSettings, "settings"))
	}

	var rawUI map[string]any
	if m.loadRecord(storage.KeyUIState, &rawUI) {
		ui = validate.UIState(m.migrate(rawUI, "uiState"))
	}

	err := m.container.Apply(state.Transform(func(s model.AppState) model.AppState {
		s.Tasks = tasks
		s.Settings = settings
		s.UI = ui
		return s
	}), "load")
	if err != nil {
		m.logger.Printf("load: %v", err)
	}
}

// loadRecord reads one record, mapping absent/corrupt to "use defaults".
func (m *Manager) loadRecord(key string, out any) bool {
	err := m.store.Get(key, out)
	switch {
	case err == nil:
		return true
	case errors.Is(err, storage.ErrNotFound):
		return false
	case errors.Is(err, storage.ErrCorrupt):
		m.logger.Printf("load: %s corrupt, falling back to defaults: %v", key, err)
		return false
	case errors.Is(err, storage.ErrUnavailable):
		m.enterMemoryOnly(err)
		return false
	default:
		m.logger.Printf("load: %s: %v", key, err)
		return false
	}
}

// migrate transforms an older record's payload to the current schema.
// Identity today; the hook exists so a future version bump has somewhere
// to live.
func (m *Manager) migrate(record map[string]any, entity string) any {
	version, _ := record["version"].(string)
	if version != "" && version != SchemaVersion {
		m.logger.Printf("load: migrating %s record from %s to %s", entity, version, SchemaVersion)
	}
	return record[entity]
}

// scheduleSave coalesces rapid mutations into one debounced write of the
// final state.
func (m *Manager) scheduleSave() {
	if m.memOnly.Load() {
		return
	}
	m.deb.Trigger(func() {
		if err := m.saveNow(); err != nil {
			m.logger.Printf("save: %v", err)
		}
	})
}

// Flush forces any pending debounced write to run immediately. CLI commands
// call it before exiting; the debounce window only matters to long-lived
// frontends.
func (m *Manager) Flush() {
	m.deb.Flush()
}

// saveNow writes every record from the current state. Quota failures leave
// the prior persisted snapshot intact; unavailability flips memory-only mode.
func (m *Manager) saveNow() error {
	if m.memOnly.Load() {
		m.logger.Printf("save: skipped, memory-only mode")
		return nil
	}
	st := m.container.State()
	now := m.clock.Now()

	records := []struct {
		key string
		val any
	}{
		{storage.KeyTasks, tasksRecord{Tasks: st.Tasks, Timestamp: now, Version: SchemaVersion}},
		{storage.KeySettings, settingsRecord{Settings: st.Settings, Timestamp: now, Version: SchemaVersion}},
		{storage.KeyUIState, uiRecord{UIState: st.UI, Timestamp: now, Version: SchemaVersion}},
		{storage.KeySchema, schemaRecord{Schema: SchemaVersion, Timestamp: now, Version: SchemaVersion}},
	}
	for _, r := range records {
		if err := m.store.Put(r.key, r.val); err != nil {
			switch {
			case errors.Is(err, storage.ErrQuotaExceeded):
				// In-memory state stays correct; the user can clear or
				// export to make room.
				return err
			case errors.Is(err, storage.ErrUnavailable):
				m.enterMemoryOnly(err)
				return nil
			default:
				return err
			}
		}
	}
	return nil
}

// StorageUsage reports bytes used and available under the store's quota.
func (m *Manager) StorageUsage() (used, avail int64, err error) {
	return m.store.Usage()
}

func (m *Manager) enterMemoryOnly(cause error) {
	if m.memOnly.CompareAndSwap(false, true) {
		m.logger.Printf("storage unavailable, continuing in memory-only mode: %v", cause)
	}
}
