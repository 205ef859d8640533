package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/taskdeck/internal/model"
)

func testTask(id, title string) model.Task {
	now := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	return model.Task{ID: id, Title: title, Priority: model.PriorityMedium, CreatedAt: now, UpdatedAt: now}
}

func addTask(c *Container, id, title string) {
	_ = c.Apply(Patch(func(s *model.AppState) {
		s.Tasks = append(s.Tasks, testTask(id, title))
	}), "test.add")
}

func TestState_ReturnsIndependentCopy(t *testing.T) {
	c := New(model.NewAppState(), nil)
	addTask(c, "a", "original")

	got := c.State()
	got.Tasks[0].Title = "mutated"
	got.Filters.SearchQuery = "mutated"

	again := c.State()
	assert.Equal(t, "original", again.Tasks[0].Title)
	assert.Empty(t, again.Filters.SearchQuery)
}

func TestApply_PatchAndTransform(t *testing.T) {
	c := New(model.NewAppState(), nil)

	err := c.Apply(Patch(func(s *model.AppState) {
		s.Filters.Status = model.StatusActive
	}), "test")
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, c.State().Filters.Status)

	err = c.Apply(Transform(func(s model.AppState) model.AppState {
		s.Filters = model.DefaultFilters()
		return s
	}), "test")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAll, c.State().Filters.Status)
}

func TestApply_NilUpdateRejected(t *testing.T) {
	c := New(model.NewAppState(), nil)
	assert.ErrorIs(t, c.Apply(Update{}, "test"), ErrNilUpdate)
}

func TestApply_RecomputesStats(t *testing.T) {
	fixed := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	c := New(model.NewAppState(), nil, WithClock(func() time.Time { return fixed }))

	_ = c.Apply(Patch(func(s *model.AppState) {
		done := testTask("a", "done one")
		done.SetCompleted(true, fixed)
		s.Tasks = append(s.Tasks, done, testTask("b", "active one"))
	}), "test")

	st := c.State().Stats
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.Active)
	assert.Equal(t, 1, st.Completed)
	assert.Equal(t, 2, st.CreatedToday)
	assert.Equal(t, 1, st.CompletedToday)
}

func TestSubscribe_NotifiedWithNewOldAndSource(t *testing.T) {
	c := New(model.NewAppState(), nil)

	var gotNext, gotPrev model.AppState
	var gotSource string
	calls := 0
	c.Subscribe(SubscriberFunc(func(next, prev model.AppState, source string) {
		gotNext, gotPrev, gotSource = next, prev, source
		calls++
	}))

	addTask(c, "a", "first")

	assert.Equal(t, 1, calls)
	assert.Equal(t, "test.add", gotSource)
	assert.Len(t, gotNext.Tasks, 1)
	assert.Empty(t, gotPrev.Tasks)
}

func TestSubscribe_UnsubscribeStopsDelivery(t *testing.T) {
	c := New(model.NewAppState(), nil)
	calls := 0
	unsub := c.Subscribe(SubscriberFunc(func(_, _ model.AppState, _ string) { calls++ }))

	addTask(c, "a", "one")
	unsub()
	addTask(c, "b", "two")

	assert.Equal(t, 1, calls)
}

func TestSubscribe_PanicDoesNotStopFanout(t *testing.T) {
	c := New(model.NewAppState(), nil)

	c.Subscribe(SubscriberFunc(func(_, _ model.AppState, _ string) {
		panic("boom")
	}))
	calls := 0
	c.Subscribe(SubscriberFunc(func(_, _ model.AppState, _ string) { calls++ }))

	addTask(c, "a", "one")
	assert.Equal(t, 1, calls)
}

func TestApply_ReentrantUpdateRejected(t *testing.T) {
	c := New(model.NewAppState(), nil)

	var nested error
	c.Subscribe(SubscriberFunc(func(_, _ model.AppState, _ string) {
		nested = c.Apply(Patch(func(s *model.AppState) {
			s.Tasks = nil
		}), "nested")
	}))

	addTask(c, "a", "one")

	assert.ErrorIs(t, nested, ErrReentrantUpdate)
	// the outer update still committed
	assert.Len(t, c.State().Tasks, 1)
}

func TestUndo_RestoresPreviousState(t *testing.T) {
	c := New(model.NewAppState(), nil)
	addTask(c, "a", "one")
	addTask(c, "b", "two")

	require.NoError(t, c.Undo())
	st := c.State()
	require.Len(t, st.Tasks, 1)
	assert.Equal(t, "a", st.Tasks[0].ID)
	assert.Equal(t, 1, st.Stats.Total)
}

func TestUndo_EmptyHistory(t *testing.T) {
	c := New(model.NewAppState(), nil)
	assert.ErrorIs(t, c.Undo(), ErrNothingToUndo)
}

func TestUndo_NotifiesWithUndoSource(t *testing.T) {
	c := New(model.NewAppState(), nil)
	addTask(c, "a", "one")

	var source string
	c.Subscribe(SubscriberFunc(func(_, _ model.AppState, s string) { source = s }))
	require.NoError(t, c.Undo())
	assert.Equal(t, "undo", source)
}

func TestHistory_BoundedDepthEvictsOldest(t *testing.T) {
	c := New(model.NewAppState(), nil, WithHistoryDepth(3))
	for i := 0; i < 10; i++ {
		addTask(c, fmt.Sprintf("t%d", i), "task")
	}

	assert.Equal(t, 3, c.HistoryLen())

	// three undos walk back to the state after the 7th add, no further
	require.NoError(t, c.Undo())
	require.NoError(t, c.Undo())
	require.NoError(t, c.Undo())
	assert.Len(t, c.State().Tasks, 7)
	assert.ErrorIs(t, c.Undo(), ErrNothingToUndo)
}
