package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCompleted_PairsCompletedAt(t *testing.T) {
	now := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	task := Task{ID: "a", Title: "a", CreatedAt: now, UpdatedAt: now}

	task.SetCompleted(true, now.Add(time.Minute))
	assert.True(t, task.Completed)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, now.Add(time.Minute), *task.CompletedAt)

	task.SetCompleted(false, now.Add(2*time.Minute))
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)
}

func TestSetCompleted_SameValueIsNoop(t *testing.T) {
	now := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	task := Task{ID: "a", Title: "a", CreatedAt: now, UpdatedAt: now}

	task.SetCompleted(false, now.Add(time.Hour))
	assert.Equal(t, now, task.UpdatedAt)
	assert.Nil(t, task.CompletedAt)
}

func TestClone_Independent(t *testing.T) {
	now := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	orig := Task{ID: "a", Title: "a", CreatedAt: now, UpdatedAt: now}
	orig.SetCompleted(true, now)

	cp := orig.Clone()
	*cp.CompletedAt = now.Add(time.Hour)
	assert.Equal(t, now, *orig.CompletedAt)
}

func TestPriorityRank(t *testing.T) {
	assert.Less(t, PriorityLow.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityHigh.Rank())
	// unknown values rank as medium
	assert.Equal(t, PriorityMedium.Rank(), Priority("bogus").Rank())
}

func TestAppStateClone_TasksDetached(t *testing.T) {
	now := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	st := NewAppState()
	st.Tasks = append(st.Tasks, Task{ID: "a", Title: "original", CreatedAt: now, UpdatedAt: now})

	cp := st.Clone()
	cp.Tasks[0].Title = "mutated"
	assert.Equal(t, "original", st.Tasks[0].Title)
}

func TestRecount(t *testing.T) {
	now := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)

	st := NewAppState()
	old := Task{ID: "old", Title: "old", CreatedAt: yesterday, UpdatedAt: yesterday}
	doneToday := Task{ID: "new", Title: "new", CreatedAt: now, UpdatedAt: now}
	doneToday.SetCompleted(true, now)
	st.Tasks = []Task{old, doneToday}

	st.Recount(now)
	assert.Equal(t, 2, st.Stats.Total)
	assert.Equal(t, 1, st.Stats.Active)
	assert.Equal(t, 1, st.Stats.Completed)
	assert.Equal(t, 1, st.Stats.CreatedToday)
	assert.Equal(t, 1, st.Stats.CompletedToday)
}
