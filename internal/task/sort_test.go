package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/taskdeck/internal/model"
)

func mkTask(id, title string, prio model.Priority, created time.Time, done bool) model.Task {
	t := model.Task{
		ID: id, Title: title, Priority: prio,
		CreatedAt: created, UpdatedAt: created,
	}
	if done {
		t.SetCompleted(true, created)
	}
	return t
}

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestSortTasks_ByCreatedAt(t *testing.T) {
	base := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	in := []model.Task{
		mkTask("b", "b", model.PriorityMedium, base.Add(time.Hour), false),
		mkTask("a", "a", model.PriorityMedium, base, false),
		mkTask("c", "c", model.PriorityMedium, base.Add(2*time.Hour), false),
	}

	assert.Equal(t, []string{"a", "b", "c"}, ids(SortTasks(in, model.SortByCreated, true)))
	assert.Equal(t, []string{"c", "b", "a"}, ids(SortTasks(in, model.SortByCreated, false)))
}

func TestSortTasks_ByTitleCaseInsensitive(t *testing.T) {
	base := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	in := []model.Task{
		mkTask("1", "banana", model.PriorityMedium, base, false),
		mkTask("2", "Apple", model.PriorityMedium, base, false),
		mkTask("3", "cherry", model.PriorityMedium, base, false),
	}

	assert.Equal(t, []string{"2", "1", "3"}, ids(SortTasks(in, model.SortByTitle, true)))
}

func TestSortTasks_ByPriorityLowToHigh(t *testing.T) {
	base := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	in := []model.Task{
		mkTask("h", "h", model.PriorityHigh, base, false),
		mkTask("l", "l", model.PriorityLow, base, false),
		mkTask("m", "m", model.PriorityMedium, base, false),
	}

	assert.Equal(t, []string{"l", "m", "h"}, ids(SortTasks(in, model.SortByPriority, true)))
	assert.Equal(t, []string{"h", "m", "l"}, ids(SortTasks(in, model.SortByPriority, false)))
}

func TestSortTasks_ByCompleted(t *testing.T) {
	base := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	in := []model.Task{
		mkTask("done", "x", model.PriorityMedium, base, true),
		mkTask("open", "y", model.PriorityMedium, base, false),
	}

	assert.Equal(t, []string{"open", "done"}, ids(SortTasks(in, model.SortByCompleted, true)))
}

// Equal keys keep their original relative order in either direction.
func TestSortTasks_Stable(t *testing.T) {
	base := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	in := []model.Task{
		mkTask("1", "same", model.PriorityMedium, base, false),
		mkTask("2", "same", model.PriorityMedium, base, false),
		mkTask("3", "same", model.PriorityMedium, base, false),
		mkTask("4", "same", model.PriorityMedium, base, false),
	}

	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(SortTasks(in, model.SortByTitle, true)))
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(SortTasks(in, model.SortByTitle, false)))
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(SortTasks(in, model.SortByPriority, false)))
}

func TestSortTasks_DoesNotMutateInput(t *testing.T) {
	base := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	in := []model.Task{
		mkTask("b", "b", model.PriorityMedium, base.Add(time.Hour), false),
		mkTask("a", "a", model.PriorityMedium, base, false),
	}

	out := SortTasks(in, model.SortByCreated, true)
	require.Equal(t, []string{"a", "b"}, ids(out))
	assert.Equal(t, []string{"b", "a"}, ids(in))
}

func TestSortTasks_UnknownFieldKeepsOrder(t *testing.T) {
	base := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	in := []model.Task{
		mkTask("z", "z", model.PriorityMedium, base.Add(time.Hour), false),
		mkTask("a", "a", model.PriorityMedium, base, false),
	}
	assert.Equal(t, []string{"z", "a"}, ids(SortTasks(in, "bogus", true)))
}
