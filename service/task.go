package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"docConverter/dto"
	"docConverter/models"
	"docConverter/queue"
	"docConverter/store"
)

var ErrFileNotFound = errors.New("file not found")

// WorkerState is the read-only view of the worker loop exposed to status
// endpoints.
type WorkerState interface {
	Alive() bool
	Processing() bool
}

// TaskService orchestrates the task record store and the queue behind the
// submission/query surface.
type TaskService struct {
	store       *store.Store
	queue       *queue.Queue
	worker      WorkerState
	inputDir    string
	callbackURL string
}

func NewTaskService(s *store.Store, q *queue.Queue, worker WorkerState, inputDir, callbackURL string) *TaskService {
	return &TaskService{
		store:       s,
		queue:       q,
		worker:      worker,
		inputDir:    inputDir,
		callbackURL: callbackURL,
	}
}

// CreateTask validates the request, registers the task and enqueues its ID.
// The callback URL resolves at submission time: request value, else the
// process-wide default, else absent.
func (s *TaskService) CreateTask(ctx context.Context, req *dto.ConvertRequest) (*dto.ConvertResponse, error) {
	if req.Filename == "" {
		return nil, store.ErrInvalidInput
	}

	if _, err := os.Stat(filepath.Join(s.inputDir, req.Filename)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, req.Filename)
	}

	callbackURL := req.CallbackURL
	if callbackURL == "" {
		callbackURL = s.callbackURL
	}

	task, err := s.store.Create(req.Filename, callbackURL)
	if err != nil {
		return nil, err
	}

	s.queue.Enqueue(task.ID)

	return &dto.ConvertResponse{
		TaskID:  task.ID,
		Status:  string(task.Status),
		Message: "task enqueued",
	}, nil
}

func (s *TaskService) GetTask(ctx context.Context, taskID string) (*dto.TaskResponse, error) {
	task, err := s.store.Get(taskID)
	if err != nil {
		return nil, err
	}
	return toResponse(task), nil
}

func (s *TaskService) ListTasks(ctx context.Context) *dto.TaskListResponse {
	tasks := s.store.List()

	resp := &dto.TaskListResponse{
		Total: len(tasks),
		Tasks: make([]dto.TaskResponse, 0, len(tasks)),
	}
	for _, task := range tasks {
		resp.Tasks = append(resp.Tasks, *toResponse(task))
	}
	return resp
}

func (s *TaskService) QueueStatus(ctx context.Context) *dto.QueueStatusResponse {
	return &dto.QueueStatusResponse{
		PendingCount: s.queue.Len(),
		IsProcessing: s.worker.Processing(),
		TotalTasks:   s.store.Len(),
	}
}

func (s *TaskService) Health(ctx context.Context) *dto.HealthResponse {
	return &dto.HealthResponse{
		Status:      "healthy",
		QueueSize:   s.queue.Len(),
		WorkerAlive: s.worker.Alive(),
	}
}

const timeLayout = "2006-01-02T15:04:05Z"

func toResponse(task *models.Task) *dto.TaskResponse {
	var completedAt *string
	if task.CompletedAt != nil {
		formatted := task.CompletedAt.UTC().Format(timeLayout)
		completedAt = &formatted
	}

	return &dto.TaskResponse{
		TaskID:      task.ID,
		Status:      string(task.Status),
		Filename:    task.Filename,
		CreatedAt:   task.CreatedAt.UTC().Format(timeLayout),
		CompletedAt: completedAt,
		Result:      task.Result,
		Error:       task.ErrorMessage,
	}
}
