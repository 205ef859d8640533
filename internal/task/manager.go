// Package task is the operations facade over the state container and the
// key-value store. Callers (CLI, TUI) go through a Manager; nothing else
// hands out task references.
package task

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/idilsaglam/taskdeck/internal/debounce"
	"github.com/idilsaglam/taskdeck/internal/model"
	"github.com/idilsaglam/taskdeck/internal/state"
	"github.com/idilsaglam/taskdeck/internal/storage"
	"github.com/idilsaglam/taskdeck/internal/validate"
)

var ErrNotFound = errors.New("task not found")

// ValidationError aggregates every violation found in one input so the
// caller can surface them all at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// Config wires a Manager. Store is required; the rest defaults sanely.
type Config struct {
	Store          storage.Store
	Logger         *log.Logger
	Clock          debounce.Clock
	DebounceWindow time.Duration
	HistoryDepth   int
}

// Manager owns id generation, timestamping, validation and the debounced
// persistence of every mutation. Construct one per application; there are
// no package-level singletons.
type Manager struct {
	store     storage.Store
	container *state.Container
	deb       *debounce.Debouncer
	clock     debounce.Clock
	logger    *log.Logger

	// memOnly flips on the first ErrUnavailable; after that every write is
	// a logged no-op and the session runs from memory alone.
	memOnly atomic.Bool
}

// New builds a Manager around an empty default state. Call Load to pull the
// persisted records in.
func New(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(logDiscard{}, "", 0)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = debounce.RealClock{}
	}
	opts := []state.Option{state.WithClock(clock.Now)}
	if cfg.HistoryDepth > 0 {
		opts = append(opts, state.WithHistoryDepth(cfg.HistoryDepth))
	}
	return &Manager{
		store:     cfg.Store,
		container: state.New(model.NewAppState(), logger, opts...),
		deb:       debounce.New(cfg.DebounceWindow, clock),
		clock:     clock,
		logger:    logger,
	}
}

type logDiscard struct{}

func (logDiscard) Write(p []byte) (int, error) { return len(p), nil }

// State returns a deep copy of the whole application state.
func (m *Manager) State() model.AppState { return m.container.State() }

// Subscribe registers a state-change subscriber (the rendering layer's hook).
func (m *Manager) Subscribe(sub state.Subscriber) func() {
	return m.container.Subscribe(sub)
}

// CreateInput is the caller-supplied part of a new task.
type CreateInput struct {
	Title     string
	Priority  model.Priority // empty means medium
	Completed bool
}

// Create validates the input, assigns id and timestamps, appends the task
// and schedules a persistence write. Violations come back aggregated in a
// *ValidationError.
func (m *Manager) Create(in CreateInput) (model.Task, error) {
	var violations []string
	title := strings.TrimSpace(in.Title)
	if title == "" {
		violations = append(violations, "title is required")
	}
	title = validate.Clamp(title, model.MaxTitleLen)

	prio := in.Priority
	if prio == "" {
		prio = model.PriorityMedium
	}
	if !prio.Valid() {
		violations = append(violations, fmt.Sprintf("priority %q is not one of low/medium/high", in.Priority))
	}

	st := m.container.State()
	if len(st.Tasks) >= st.Settings.MaxTasks {
		violations = append(violations, fmt.Sprintf("task limit reached (%d)", st.Settings.MaxTasks))
	}
	if len(violations) > 0 {
		return model.Task{}, &ValidationError{Violations: violations}
	}

	now := m.clock.Now()
	t := model.Task{
		ID:        uuid.NewString(),
		Title:     title,
		Priority:  prio,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Completed {
		t.SetCompleted(true, now)
	}

	err := m.container.Apply(state.Patch(func(s *model.AppState) {
		s.Tasks = append(s.Tasks, t)
	}), "task.create")
	if err != nil {
		return model.Task{}, err
	}
	m.scheduleSave()
	return t.Clone(), nil
}

// Patch is a partial task update; nil pointer means "no change".
type Patch struct {
	Title     *string
	Priority  *model.Priority
	Completed *bool
}

// Update applies a partial update to the task with the given id.
func (m *Manager) Update(id string, p Patch) (model.Task, error) {
	var violations []string
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			violations = append(violations, "title is required")
		}
		t = validate.Clamp(t, model.MaxTitleLen)
		p.Title = &t
	}
	if p.Priority != nil && !p.Priority.Valid() {
		violations = append(violations, fmt.Sprintf("priority %q is not one of low/medium/high", *p.Priority))
	}
	if len(violations) > 0 {
		return model.Task{}, &ValidationError{Violations: violations}
	}

	return m.mutateTask(id, "task.update", func(t *model.Task, now time.Time) {
		if p.Title != nil {
			t.Title = *p.Title
		}
		if p.Priority != nil {
			t.Priority = *p.Priority
		}
		if p.Completed != nil {
			t.SetCompleted(*p.Completed, now)
		}
		t.UpdatedAt = now
	})
}

// Toggle flips a task's completed flag. The notification source tells the
// direction apart: "task.completed" vs "task.reopened".
func (m *Manager) Toggle(id string) (model.Task, error) {
	cur, err := m.Get(id)
	if err != nil {
		return model.Task{}, err
	}
	source := "task.completed"
	if cur.Completed {
		source = "task.reopened"
	}
	return m.mutateTask(id, source, func(t *model.Task, now time.Time) {
		t.SetCompleted(!t.Completed, now)
		t.UpdatedAt = now
	})
}

// mutateTask runs fn against the matching task inside one state update.
func (m *Manager) mutateTask(id, source string, fn func(*model.Task, time.Time)) (model.Task, error) {
	var out model.Task
	found := false
	now := m.clock.Now()

	err := m.container.Apply(state.Patch(func(s *model.AppState) {
		if i := s.TaskIndex(id); i >= 0 {
			fn(&s.Tasks[i], now)
			out = s.Tasks[i].Clone()
			found = true
		}
	}), source)
	if err != nil {
		return model.Task{}, err
	}
	if !found {
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.scheduleSave()
	return out, nil
}

// Delete removes the task and returns it (undo and notifications want the
// removed value).
func (m *Manager) Delete(id string) (model.Task, error) {
	var removed model.Task
	found := false

	err := m.container.Apply(state.Patch(func(s *model.AppState) {
		if i := s.TaskIndex(id); i >= 0 {
			removed = s.Tasks[i]
			s.Tasks = append(s.Tasks[:i], s.Tasks[i+1:]...)
			found = true
		}
	}), "task.delete")
	if err != nil {
		return model.Task{}, err
	}
	if !found {
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.scheduleSave()
	return removed, nil
}

// ClearCompleted removes every completed task and returns the removed set.
// With nothing to remove it is a no-op, not an error, and schedules no write.
func (m *Manager) ClearCompleted() ([]model.Task, error) {
	st := m.container.State()
	removed := make([]model.Task, 0)
	for _, t := range st.Tasks {
		if t.Completed {
			removed = append(removed, t)
		}
	}
	if len(removed) == 0 {
		return removed, nil
	}

	err := m.container.Apply(state.Patch(func(s *model.AppState) {
		kept := s.Tasks[:0]
		for _, t := range s.Tasks {
			if !t.Completed {
				kept = append(kept, t)
			}
		}
		s.Tasks = kept
	}), "task.clearCompleted")
	if err != nil {
		return nil, err
	}
	m.scheduleSave()
	return removed, nil
}

// Get returns a copy of the task with the given id.
func (m *Manager) Get(id string) (model.Task, error) {
	st := m.container.State()
	if i := st.TaskIndex(id); i >= 0 {
		return st.Tasks[i], nil
	}
	return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Tasks returns a copy of the whole collection in insertion order.
func (m *Manager) Tasks() []model.Task {
	return m.container.State().Tasks
}

// Search is a pure read: case-insensitive substring match on titles.
func (m *Manager) Search(query string) []model.Task {
	query = strings.ToLower(validate.Clamp(strings.TrimSpace(query), model.MaxQueryLen))
	var out []model.Task
	for _, t := range m.Tasks() {
		if query == "" || strings.Contains(strings.ToLower(t.Title), query) {
			out = append(out, t)
		}
	}
	return out
}

// Filter applies a filter set over a copy of the collection; no mutation,
// no persistence.
func (m *Manager) Filter(fs model.FilterSet) []model.Task {
	query := strings.ToLower(validate.Clamp(strings.TrimSpace(fs.SearchQuery), model.MaxQueryLen))
	var out []model.Task
	for _, t := range m.Tasks() {
		switch fs.Status {
		case model.StatusActive:
			if t.Completed {
				continue
			}
		case model.StatusCompleted:
			if !t.Completed {
				continue
			}
		}
		if fs.Priority != "" && fs.Priority != model.StatusAll && fs.Priority != string(t.Priority) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(t.Title), query) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SetFilters stores a new filter set (coerced through the validator's rules).
func (m *Manager) SetFilters(fs model.FilterSet) error {
	fs.SearchQuery = validate.Clamp(fs.SearchQuery, model.MaxQueryLen)
	if fs.Status == "" {
		fs.Status = model.StatusAll
	}
	if fs.Priority == "" {
		fs.Priority = model.StatusAll
	}
	err := m.container.Apply(state.Patch(func(s *model.AppState) {
		s.Filters = fs
	}), "filters.set")
	if err != nil {
		return err
	}
	m.scheduleSave()
	return nil
}

// UpdateSettings clamps and stores new settings.
func (m *Manager) UpdateSettings(st model.Settings) error {
	st.MaxTasks = validate.ClampInt(st.MaxTasks, model.MinMaxTasks, model.MaxMaxTasks)
	err := m.container.Apply(state.Patch(func(s *model.AppState) {
		s.Settings = st
	}), "settings.update")
	if err != nil {
		return err
	}
	m.scheduleSave()
	return nil
}

// SetTheme stores the UI theme name.
func (m *Manager) SetTheme(theme string) error {
	err := m.container.Apply(state.Patch(func(s *model.AppState) {
		s.UI.Theme = theme
	}), "ui.theme")
	if err != nil {
		return err
	}
	m.scheduleSave()
	return nil
}

// Undo restores the previous state and schedules a persist of it.
func (m *Manager) Undo() error {
	if err := m.container.Undo(); err != nil {
		return err
	}
	m.scheduleSave()
	return nil
}

// SortTasks orders a copy of tasks by field and direction. The sort is
// stable: equal keys keep their original relative order either direction.
func SortTasks(tasks []model.Task, field string, asc bool) []model.Task {
	out := model.CloneTasks(tasks)
	less := lessFunc(field)
	if less == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		if asc {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	return out
}

func lessFunc(field string) func(a, b model.Task) bool {
	switch field {
	case model.SortByCreated:
		return func(a, b model.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case model.SortByUpdated:
		return func(a, b model.Task) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case model.SortByTitle:
		return func(a, b model.Task) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case model.SortByPriority:
		return func(a, b model.Task) bool { return a.Priority.Rank() < b.Priority.Rank() }
	case model.SortByCompleted:
		return func(a, b model.Task) bool { return !a.Completed && b.Completed }
	}
	return nil
}

// MemoryOnly reports whether persistence has been disabled for the session.
func (m *Manager) MemoryOnly() bool { return m.memOnly.Load() }
