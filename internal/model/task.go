package model

import "time"

// Priority orders tasks low < medium < high.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank maps a priority to its sort weight. Unknown values rank as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityHigh:
		return 2
	default:
		return 1
	}
}

// Valid reports whether p is one of the three known priorities.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task is the domain model for a todo entry.
// CompletedAt is set exactly when Completed is true.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	Priority    Priority   `json:"priority"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Clone returns an independent copy; callers may mutate it freely.
func (t Task) Clone() Task {
	out := t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		out.CompletedAt = &at
	}
	return out
}

// SetCompleted flips the done flag and keeps CompletedAt paired with it.
func (t *Task) SetCompleted(done bool, now time.Time) {
	if t.Completed == done {
		return
	}
	t.Completed = done
	if done {
		at := now
		t.CompletedAt = &at
	} else {
		t.CompletedAt = nil
	}
	t.UpdatedAt = now
}

const (
	// MaxTitleLen bounds a task title after trimming.
	MaxTitleLen = 500
	// MaxQueryLen bounds a search query.
	MaxQueryLen = 200
)
