package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"docConverter/models"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidInput      = errors.New("filename is required")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Store is the in-memory task record store: the single source of truth for
// task state. Records live for the lifetime of the process; nothing evicts
// them. Safe for concurrent readers interleaved with the worker's writes.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*models.Task
	order []string
}

func NewStore() *Store {
	return &Store{
		tasks: make(map[string]*models.Task),
	}
}

// newTaskID builds a human-inspectable identifier: creation time in unix
// millis plus a random suffix.
func newTaskID() string {
	return fmt.Sprintf("task_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// Create registers a new task in the queued state and returns a copy of the
// record. It is the only mutation visible to submitters.
func (s *Store) Create(filename, callbackURL string) (*models.Task, error) {
	if filename == "" {
		return nil, ErrInvalidInput
	}

	task := &models.Task{
		ID:          newTaskID(),
		Filename:    filename,
		CallbackURL: callbackURL,
		Status:      models.StatusQueued,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)
	s.mu.Unlock()

	return task.Clone(), nil
}

func (s *Store) Get(id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return task.Clone(), nil
}

// List returns copies of all task records in creation order.
func (s *Store) List() []*models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*models.Task, 0, len(s.order))
	for _, id := range s.order {
		tasks = append(tasks, s.tasks[id].Clone())
	}
	return tasks
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// MarkProcessing transitions a queued task to processing. Worker use only.
func (s *Store) MarkProcessing(id string) error {
	return s.transition(id, models.StatusProcessing, nil)
}

// MarkCompleted transitions a processing task to completed and records the
// converted markdown. Worker use only.
func (s *Store) MarkCompleted(id, markdown string) error {
	return s.transition(id, models.StatusCompleted, func(t *models.Task) {
		t.Result = markdown
	})
}

// MarkFailed transitions a processing task to failed and records the error
// message. Worker use only.
func (s *Store) MarkFailed(id, errMsg string) error {
	return s.transition(id, models.StatusFailed, func(t *models.Task) {
		t.ErrorMessage = errMsg
	})
}

func (s *Store) transition(id string, to models.TaskStatus, apply func(*models.Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if !models.CanTransition(task.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, task.Status, to)
	}

	task.Status = to
	if apply != nil {
		apply(task)
	}
	if to.Terminal() {
		now := time.Now()
		task.CompletedAt = &now
	}
	return nil
}
