package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/taskdeck/internal/model"
)

var now = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

func TestTask_ValidRecord(t *testing.T) {
	raw := map[string]any{
		"id":        "t1",
		"title":     "Buy milk",
		"completed": false,
		"priority":  "high",
		"createdAt": "2026-08-20T10:00:00Z",
		"updatedAt": "2026-08-21T10:00:00Z",
	}

	task, err := Task(raw, now)
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, 2026, task.CreatedAt.Year())
}

func TestTask_RejectsMissingIdentity(t *testing.T) {
	_, err := Task(map[string]any{"title": "x"}, now)
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = Task(map[string]any{"id": "t1"}, now)
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = Task(map[string]any{"id": "t1", "title": "   "}, now)
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = Task("not an object", now)
	assert.ErrorIs(t, err, ErrNotObject)
}

func TestTask_CoercesLooseFields(t *testing.T) {
	raw := map[string]any{
		"id":        "t1",
		"title":     strings.Repeat("x", 600),
		"completed": "true",
		"priority":  "urgent", // unknown -> medium
		"createdAt": "garbage",
	}

	task, err := Task(raw, now)
	require.NoError(t, err)
	assert.Len(t, task.Title, model.MaxTitleLen)
	assert.True(t, task.Completed)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Equal(t, now, task.CreatedAt) // unparseable timestamp defaults to now
}

func TestTask_RepairsCompletedAtPairing(t *testing.T) {
	// completed without completedAt gets one
	task, err := Task(map[string]any{"id": "a", "title": "a", "completed": true}, now)
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, now, *task.CompletedAt)

	// not completed drops a stray completedAt
	task, err = Task(map[string]any{
		"id": "b", "title": "b", "completed": false,
		"completedAt": "2026-08-20T10:00:00Z",
	}, now)
	require.NoError(t, err)
	assert.Nil(t, task.CompletedAt)
}

func TestTaskList_DropsInvalidElements(t *testing.T) {
	raw := []any{
		map[string]any{"id": "a", "title": "keep me"},
		map[string]any{"title": "no id"},
		"not even an object",
		map[string]any{"id": "b", "title": "also kept"},
		nil,
	}

	tasks, dropped := TaskList(raw, now)
	assert.Equal(t, 3, dropped)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].ID)
	assert.Equal(t, "b", tasks[1].ID)
}

func TestFilters_TolerantDefaults(t *testing.T) {
	fs := Filters(map[string]any{
		"status":      "bogus",
		"priority":    "urgent",
		"searchQuery": strings.Repeat("q", 300),
	})
	assert.Equal(t, model.StatusAll, fs.Status)
	assert.Equal(t, model.StatusAll, fs.Priority)
	assert.Len(t, fs.SearchQuery, model.MaxQueryLen)

	fs = Filters(map[string]any{"status": "active", "priority": "high"})
	assert.Equal(t, model.StatusActive, fs.Status)
	assert.Equal(t, "high", fs.Priority)

	// non-object input yields defaults
	assert.Equal(t, model.DefaultFilters(), Filters(42))
}

func TestSettings_ClampsNumerics(t *testing.T) {
	st := Settings(map[string]any{"maxTasks": float64(999999)})
	assert.Equal(t, model.MaxMaxTasks, st.MaxTasks)

	st = Settings(map[string]any{"maxTasks": float64(-5)})
	assert.Equal(t, model.MinMaxTasks, st.MaxTasks)

	st = Settings(map[string]any{"sortField": "title", "sortAsc": true, "confirmDelete": false})
	assert.Equal(t, model.SortByTitle, st.SortField)
	assert.True(t, st.SortAsc)
	assert.False(t, st.ConfirmDelete)

	st = Settings(map[string]any{"sortField": "nonsense"})
	assert.Equal(t, model.SortByCreated, st.SortField)
}

func TestUIState_Coercion(t *testing.T) {
	ui := UIState(map[string]any{"theme": "neon", "modalOpen": true})
	assert.Equal(t, "neon", ui.Theme)
	assert.True(t, ui.ModalOpen)

	ui = UIState(nil)
	assert.Equal(t, "classic", ui.Theme)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, "abc", Clamp("abc", 5))
	assert.Equal(t, "ab", Clamp("abc", 2))
	// rune-aware, not byte-aware
	assert.Equal(t, "hél", Clamp("héllo", 3))
}
