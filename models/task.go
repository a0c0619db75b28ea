package models

import (
	"time"
)

type TaskStatus string

const (
	StatusQueued     TaskStatus = "queued"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Terminal reports whether no further status transitions are possible.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition enforces the one-directional task lifecycle:
// queued -> processing -> completed|failed.
func CanTransition(from, to TaskStatus) bool {
	switch from {
	case StatusQueued:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// Task is one conversion request and its lifecycle record. Result is set
// only on completed tasks, ErrorMessage only on failed ones.
type Task struct {
	ID           string
	Filename     string
	CallbackURL  string
	Status       TaskStatus
	Result       string
	ErrorMessage string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// Clone returns a deep copy so callers never alias a record owned by the
// store.
func (t *Task) Clone() *Task {
	c := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}
