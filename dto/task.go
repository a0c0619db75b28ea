package dto

type ConvertRequest struct {
	Filename    string `json:"filename"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type ConvertResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type TaskResponse struct {
	TaskID      string  `json:"task_id"`
	Status      string  `json:"status"`
	Filename    string  `json:"filename"`
	CreatedAt   string  `json:"created_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
	Result      string  `json:"result,omitempty"`
	Error       string  `json:"error,omitempty"`
}

type TaskListResponse struct {
	Total int            `json:"total"`
	Tasks []TaskResponse `json:"tasks"`
}

type QueueStatusResponse struct {
	PendingCount int  `json:"pending_count"`
	IsProcessing bool `json:"is_processing"`
	TotalTasks   int  `json:"total_tasks"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	QueueSize   int    `json:"queue_size"`
	WorkerAlive bool   `json:"worker_alive"`
}

type RootResponse struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Status    string `json:"status"`
	QueueSize int    `json:"queue_size"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}
