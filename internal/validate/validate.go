// Package validate is the single choke point between loosely-typed persisted
// data and the canonical in-memory model. Persisted records cross a
// storage/version boundary the app does not fully control (manual edits,
// interrupted writes, older schemas), so everything here coerces and clamps
// rather than rejecting outright; only a record missing its identity is
// dropped.
//
// All functions are pure: no I/O, no logging, no clock other than the one
// passed in.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/idilsaglam/taskdeck/internal/model"
)

var (
	ErrNotObject  = errors.New("validate: not an object")
	ErrMissingID  = errors.New("validate: id missing")
	ErrEmptyTitle = errors.New("validate: title missing or empty")
)

// Task coerces a decoded JSON object into a model.Task.
// Rejects only on missing id/title; everything else gets a sane default.
func Task(raw any, now time.Time) (model.Task, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return model.Task{}, ErrNotObject
	}

	id := strings.TrimSpace(str(obj["id"]))
	if id == "" {
		return model.Task{}, ErrMissingID
	}
	title := strings.TrimSpace(str(obj["title"]))
	if title == "" {
		return model.Task{}, ErrEmptyTitle
	}
	title = Clamp(title, model.MaxTitleLen)

	t := model.Task{
		ID:        id,
		Title:     title,
		Completed: boolean(obj["completed"]),
		Priority:  priority(obj["priority"]),
		CreatedAt: timestamp(obj["createdAt"], now),
		UpdatedAt: timestamp(obj["updatedAt"], now),
	}

	// Re-pair completedAt with the completed flag whatever the record said.
	if t.Completed {
		at := timestamp(obj["completedAt"], now)
		t.CompletedAt = &at
	}
	return t, nil
}

// TaskList applies Task to each element, dropping failures. The drop count
// comes back so the caller can log it; a partially-corrupt legacy collection
// is tolerated, never a hard error.
func TaskList(raw []any, now time.Time) (tasks []model.Task, dropped int) {
	tasks = make([]model.Task, 0, len(raw))
	for _, el := range raw {
		t, err := Task(el, now)
		if err != nil {
			dropped++
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, dropped
}

// Filters coerces a decoded filter object. Unrecognized values fall back to
// the permissive default rather than erroring.
func Filters(raw any) model.FilterSet {
	fs := model.DefaultFilters()
	obj, ok := raw.(map[string]any)
	if !ok {
		return fs
	}
	switch s := str(obj["status"]); s {
	case model.StatusAll, model.StatusActive, model.StatusCompleted:
		fs.Status = s
	}
	switch p := str(obj["priority"]); p {
	case model.StatusAll, string(model.PriorityLow), string(model.PriorityMedium), string(model.PriorityHigh):
		fs.Priority = p
	}
	fs.SearchQuery = Clamp(str(obj["searchQuery"]), model.MaxQueryLen)
	return fs
}

// Settings coerces a decoded settings object, clamping numerics into range.
func Settings(raw any) model.Settings {
	st := model.DefaultSettings()
	obj, ok := raw.(map[string]any)
	if !ok {
		return st
	}
	if n, ok := num(obj["maxTasks"]); ok {
		st.MaxTasks = ClampInt(int(n), model.MinMaxTasks, model.MaxMaxTasks)
	}
	if b, ok := obj["confirmDelete"].(bool); ok {
		st.ConfirmDelete = b
	}
	switch f := str(obj["sortField"]); f {
	case model.SortByCreated, model.SortByUpdated, model.SortByTitle,
		model.SortByPriority, model.SortByCompleted:
		st.SortField = f
	}
	if b, ok := obj["sortAsc"].(bool); ok {
		st.SortAsc = b
	}
	return st
}

// UIState coerces a decoded UI-state object.
func UIState(raw any) model.UIState {
	ui := model.DefaultUIState()
	obj, ok := raw.(map[string]any)
	if !ok {
		return ui
	}
	if th := strings.TrimSpace(str(obj["theme"])); th != "" {
		ui.Theme = th
	}
	ui.ModalOpen = boolean(obj["modalOpen"])
	ui.Notification = str(obj["notification"])
	ui.EditingTaskID = str(obj["editingTaskId"])
	return ui
}

// Clamp truncates s to at most max runes.
func Clamp(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// ClampInt bounds n into [lo, hi].
func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// ---- loose-value coercion helpers ----

func str(v any) string {
	s, _ := v.(string)
	return s
}

// boolean accepts the booleans and the usual stringly spellings legacy data
// carries.
func boolean(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x == "true" || x == "1" || x == "yes"
	case float64:
		return x != 0
	}
	return false
}

func num(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(x, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func priority(v any) model.Priority {
	p := model.Priority(str(v))
	if !p.Valid() {
		return model.PriorityMedium
	}
	return p
}

// timestamp parses an RFC3339 string, falling back to now.
func timestamp(v any, now time.Time) time.Time {
	s := str(v)
	if s == "" {
		return now
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return now
}
