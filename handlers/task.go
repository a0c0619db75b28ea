package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"docConverter/dto"
	"docConverter/middleware"
	"docConverter/service"
	"docConverter/store"
)

const (
	serviceName    = "docConverter"
	serviceVersion = "1.0.0"
)

// TaskService is the surface the handlers need from the service layer.
type TaskService interface {
	CreateTask(ctx context.Context, req *dto.ConvertRequest) (*dto.ConvertResponse, error)
	GetTask(ctx context.Context, taskID string) (*dto.TaskResponse, error)
	ListTasks(ctx context.Context) *dto.TaskListResponse
	QueueStatus(ctx context.Context) *dto.QueueStatusResponse
	Health(ctx context.Context) *dto.HealthResponse
}

type TaskHandler struct {
	service TaskService
	logger  *zap.Logger
}

func NewTaskHandler(service TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger,
	}
}

func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Post("/convert", h.Convert)
	r.Get("/task/{taskID}", h.Status)
	r.Get("/tasks", h.List)
	r.Get("/queue/status", h.QueueStatus)
	r.Get("/health", h.Health)
	r.Get("/", h.Root)
}

func (h *TaskHandler) Convert(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	var req dto.ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, "Invalid request body", err, traceID, http.StatusBadRequest)
		return
	}

	resp, err := h.service.CreateTask(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidInput):
			h.handleError(w, "Filename is required", err, traceID, http.StatusBadRequest)
		case errors.Is(err, service.ErrFileNotFound):
			h.handleError(w, "File not found", err, traceID, http.StatusNotFound)
		default:
			h.handleError(w, "Failed to create task", err, traceID, http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info("Task enqueued",
		zap.String("trace_id", traceID),
		zap.String("task_id", resp.TaskID),
		zap.String("filename", req.Filename),
	)

	h.respondJSON(w, http.StatusAccepted, resp)
}

func (h *TaskHandler) Status(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	taskID := chi.URLParam(r, "taskID")
	if taskID == "" {
		h.handleError(w, "Task ID is required", nil, traceID, http.StatusBadRequest)
		return
	}

	resp, err := h.service.GetTask(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			h.handleError(w, "Task not found", err, traceID, http.StatusNotFound)
			return
		}
		h.handleError(w, "Failed to get task status", err, traceID, http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.ListTasks(r.Context()))
}

func (h *TaskHandler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.QueueStatus(r.Context()))
}

func (h *TaskHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.Health(r.Context()))
}

func (h *TaskHandler) Root(w http.ResponseWriter, r *http.Request) {
	status := h.service.QueueStatus(r.Context())
	h.respondJSON(w, http.StatusOK, dto.RootResponse{
		Service:   serviceName,
		Version:   serviceVersion,
		Status:    "running",
		QueueSize: status.PendingCount,
	})
}

func (h *TaskHandler) handleError(w http.ResponseWriter, message string, err error, traceID string, status int) {
	h.logger.Error(message,
		zap.String("trace_id", traceID),
		zap.Error(err),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		TraceID: traceID,
	})
}

func (h *TaskHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
