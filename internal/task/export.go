package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/idilsaglam/taskdeck/internal/model"
	"github.com/idilsaglam/taskdeck/internal/state"
	"github.com/idilsaglam/taskdeck/internal/validate"
)

// Archive is the backup/restore interchange format.
type Archive struct {
	Version   string         `json:"version"`
	Timestamp time.Time      `json:"timestamp"`
	Tasks     []model.Task   `json:"tasks"`
	Settings  model.Settings `json:"settings"`
	UIState   model.UIState  `json:"uiState"`
	Metadata  Metadata       `json:"metadata"`
}

type Metadata struct {
	TaskCount int `json:"taskCount"`
}

// Export snapshots the current state into an archive.
func (m *Manager) Export() Archive {
	st := m.container.State()
	return Archive{
		Version:   SchemaVersion,
		Timestamp: m.clock.Now(),
		Tasks:     st.Tasks,
		Settings:  st.Settings,
		UIState:   st.UI,
		Metadata:  Metadata{TaskCount: len(st.Tasks)},
	}
}

// ExportJSON renders the archive as indented JSON.
func (m *Manager) ExportJSON() ([]byte, error) {
	b, err := json.MarshalIndent(m.Export(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return b, nil
}

// Import replaces the current state with the archive's contents. The store
// has no native rollback, so this runs as snapshot → validate → apply →
// restore-snapshot-on-failure: a failed import leaves state exactly as it
// was.
func (m *Manager) Import(data []byte) (int, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("import: not valid JSON: %w", err)
	}
	version, _ := raw["version"].(string)
	if version == "" {
		return 0, fmt.Errorf("import: missing version")
	}
	rawTasks, ok := raw["tasks"].([]any)
	if !ok {
		return 0, fmt.Errorf("import: tasks missing or not an array")
	}

	now := m.clock.Now()
	tasks, dropped := validate.TaskList(rawTasks, now)
	if dropped > 0 {
		m.logger.Printf("import: dropped %d invalid task record(s)", dropped)
	}
	settings := validate.Settings(raw["settings"])
	ui := validate.UIState(raw["uiState"])

	snapshot := m.container.State()

	err := m.container.Apply(state.Transform(func(s model.AppState) model.AppState {
		s.Tasks = tasks
		s.Settings = settings
		s.UI = ui
		return s
	}), "import")
	if err != nil {
		// Put the pre-import snapshot back; the attempt must look atomic.
		restoreErr := m.container.Apply(state.Transform(func(model.AppState) model.AppState {
			return snapshot
		}), "import.rollback")
		if restoreErr != nil {
			m.logger.Printf("import: rollback failed: %v", restoreErr)
		}
		return 0, fmt.Errorf("import: %w", err)
	}

	m.scheduleSave()
	return len(tasks), nil
}
