package model

import "time"

// Filter status values. "all" is the permissive default.
const (
	StatusAll       = "all"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// FilterSet is the query applied to the task collection.
type FilterSet struct {
	Status      string `json:"status"`      // all | active | completed
	Priority    string `json:"priority"`    // all | low | medium | high
	SearchQuery string `json:"searchQuery"` // case-insensitive substring on title
}

// DefaultFilters returns the all-permissive filter set.
func DefaultFilters() FilterSet {
	return FilterSet{Status: StatusAll, Priority: StatusAll}
}

// Sort fields accepted by the facade.
const (
	SortByCreated   = "createdAt"
	SortByUpdated   = "updatedAt"
	SortByTitle     = "title"
	SortByPriority  = "priority"
	SortByCompleted = "completed"
)

// Settings are the user-tunable knobs persisted alongside tasks.
type Settings struct {
	MaxTasks      int    `json:"maxTasks"`
	ConfirmDelete bool   `json:"confirmDelete"`
	SortField     string `json:"sortField"`
	SortAsc       bool   `json:"sortAsc"`
}

// MaxTasks bounds; values outside are clamped, never rejected.
const (
	MinMaxTasks     = 1
	MaxMaxTasks     = 10000
	DefaultMaxTasks = 1000
)

func DefaultSettings() Settings {
	return Settings{
		MaxTasks:      DefaultMaxTasks,
		ConfirmDelete: true,
		SortField:     SortByCreated,
		SortAsc:       false,
	}
}

// UIState is transient presentation state. It persists so a restarted
// session comes back looking the way it was left.
type UIState struct {
	Theme         string `json:"theme"`
	ModalOpen     bool   `json:"modalOpen"`
	Notification  string `json:"notification,omitempty"`
	EditingTaskID string `json:"editingTaskId,omitempty"`
}

func DefaultUIState() UIState {
	return UIState{Theme: "classic"}
}

// Stats are derived counters recomputed on every state change.
type Stats struct {
	Total          int `json:"total"`
	Active         int `json:"active"`
	Completed      int `json:"completed"`
	CreatedToday   int `json:"createdToday"`
	CompletedToday int `json:"completedToday"`
}

// AppState is the whole application state tree. Exactly one canonical
// instance lives inside the state container; everything handed out is a copy.
type AppState struct {
	Tasks    []Task    `json:"tasks"` // insertion order
	Filters  FilterSet `json:"filters"`
	Settings Settings  `json:"settings"`
	UI       UIState   `json:"ui"`
	Stats    Stats     `json:"stats"`
}

// NewAppState returns an empty state with all defaults applied.
func NewAppState() AppState {
	return AppState{
		Tasks:    []Task{},
		Filters:  DefaultFilters(),
		Settings: DefaultSettings(),
		UI:       DefaultUIState(),
	}
}

// Clone deep-copies the state; mutating the copy never touches the original.
func (s AppState) Clone() AppState {
	out := s
	out.Tasks = CloneTasks(s.Tasks)
	return out
}

// CloneTasks deep-copies a task slice.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// TaskIndex returns the position of id in the collection, or -1.
func (s AppState) TaskIndex(id string) int {
	for i, t := range s.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Recount recomputes the derived stats for the given moment.
func (s *AppState) Recount(now time.Time) {
	var st Stats
	y, m, d := now.Date()
	sameDay := func(t time.Time) bool {
		ty, tm, td := t.Date()
		return ty == y && tm == m && td == d
	}
	for _, t := range s.Tasks {
		st.Total++
		if t.Completed {
			st.Completed++
			if t.CompletedAt != nil && sameDay(*t.CompletedAt) {
				st.CompletedToday++
			}
		} else {
			st.Active++
		}
		if sameDay(t.CreatedAt) {
			st.CreatedToday++
		}
	}
	s.Stats = st
}
