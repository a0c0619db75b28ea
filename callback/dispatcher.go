package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"docConverter/models"
)

// Payload is the JSON notification delivered to a callback endpoint once a
// task reaches a terminal state.
type Payload struct {
	TaskID    string `json:"task_id"`
	Status    string `json:"status"`
	Filename  string `json:"filename"`
	Markdown  string `json:"markdown,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Dispatcher posts task outcomes to their callback URLs with bounded
// retries. Delivery failures are logged and dropped; they never feed back
// into the task record.
type Dispatcher struct {
	client     *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func NewDispatcher(timeout time.Duration, maxRetries int, backoff time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
	}
}

// Dispatch delivers the terminal outcome of task. Tasks without a callback
// URL are skipped. Safe to run in its own goroutine; the worker never
// waits on it.
func (d *Dispatcher) Dispatch(ctx context.Context, task *models.Task) {
	if task.CallbackURL == "" {
		d.logger.Debug("No callback URL configured, skipping",
			zap.String("task_id", task.ID),
		)
		return
	}

	payload := Payload{
		TaskID:    task.ID,
		Status:    string(task.Status),
		Filename:  task.Filename,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	switch task.Status {
	case models.StatusCompleted:
		payload.Markdown = task.Result
	case models.StatusFailed:
		payload.Error = task.ErrorMessage
	}

	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("Failed to encode callback payload",
			zap.String("task_id", task.ID),
			zap.Error(err),
		)
		return
	}

	attempts := d.maxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		err = d.send(ctx, task.CallbackURL, body)
		if err == nil {
			d.logger.Info("Callback delivered",
				zap.String("task_id", task.ID),
				zap.String("url", task.CallbackURL),
				zap.Int("attempt", attempt),
			)
			return
		}

		d.logger.Warn("Callback attempt failed",
			zap.String("task_id", task.ID),
			zap.String("url", task.CallbackURL),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt < attempts {
			select {
			case <-time.After(time.Duration(attempt) * d.backoff):
			case <-ctx.Done():
				d.logger.Error("Callback abandoned",
					zap.String("task_id", task.ID),
					zap.Error(ctx.Err()),
				)
				return
			}
		}
	}

	d.logger.Error("Callback delivery failed",
		zap.String("task_id", task.ID),
		zap.String("url", task.CallbackURL),
		zap.Int("attempts", attempts),
		zap.Error(err),
	)
}

func (d *Dispatcher) send(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
