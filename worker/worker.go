package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"

	"docConverter/callback"
	"docConverter/converter"
	"docConverter/queue"
	"docConverter/store"
)

// Worker is the single sequential consumer of the queue. Tasks are
// processed strictly in submission order, one conversion at a time; this
// bounds resource usage and is a deliberate scaling limit. Callback
// dispatch is fired on its own goroutine so a slow endpoint never delays
// the next dequeue.
type Worker struct {
	store      *store.Store
	queue      *queue.Queue
	converter  converter.Converter
	dispatcher *callback.Dispatcher
	inputDir   string
	logger     *zap.Logger
	alive      atomic.Bool
	processing atomic.Bool
}

func NewWorker(s *store.Store, q *queue.Queue, conv converter.Converter, d *callback.Dispatcher, inputDir string, logger *zap.Logger) *Worker {
	return &Worker{
		store:      s,
		queue:      q,
		converter:  conv,
		dispatcher: d,
		inputDir:   inputDir,
		logger:     logger,
	}
}

// Run consumes the queue until ctx is cancelled. Start it exactly once;
// conversion failures never terminate the loop.
func (w *Worker) Run(ctx context.Context) {
	w.alive.Store(true)
	defer w.alive.Store(false)

	w.logger.Info("Worker started",
		zap.String("input_dir", w.inputDir),
	)

	for {
		id, err := w.queue.Dequeue(ctx)
		if err != nil {
			w.logger.Info("Worker stopped", zap.Error(err))
			return
		}

		w.processing.Store(true)
		w.process(ctx, id)
		w.processing.Store(false)
	}
}

// Alive reports whether the loop is running.
func (w *Worker) Alive() bool { return w.alive.Load() }

// Processing reports whether a conversion is currently in flight.
func (w *Worker) Processing() bool { return w.processing.Load() }

func (w *Worker) process(ctx context.Context, id string) {
	if err := w.store.MarkProcessing(id); err != nil {
		w.logger.Error("Failed to mark task processing",
			zap.String("task_id", id),
			zap.Error(err),
		)
		return
	}

	task, err := w.store.Get(id)
	if err != nil {
		w.logger.Error("Dequeued unknown task",
			zap.String("task_id", id),
			zap.Error(err),
		)
		return
	}

	w.logger.Info("Processing task",
		zap.String("task_id", id),
		zap.String("filename", task.Filename),
	)

	markdown, convErr := w.convert(ctx, task.Filename)
	if convErr != nil {
		w.logger.Error("Task failed",
			zap.String("task_id", id),
			zap.String("filename", task.Filename),
			zap.Error(convErr),
		)
		if err := w.store.MarkFailed(id, convErr.Error()); err != nil {
			w.logger.Error("Failed to mark task failed",
				zap.String("task_id", id),
				zap.Error(err),
			)
			return
		}
	} else {
		w.logger.Info("Task completed",
			zap.String("task_id", id),
			zap.Int("markdown_length", len(markdown)),
		)
		if err := w.store.MarkCompleted(id, markdown); err != nil {
			w.logger.Error("Failed to mark task completed",
				zap.String("task_id", id),
				zap.Error(err),
			)
			return
		}
	}

	updated, err := w.store.Get(id)
	if err != nil {
		w.logger.Error("Failed to load task for callback",
			zap.String("task_id", id),
			zap.Error(err),
		)
		return
	}

	go w.dispatcher.Dispatch(ctx, updated)
}

// convert resolves filename against the input directory and invokes the
// conversion collaborator. A panicking converter is reported as a failure
// instead of taking down the loop.
func (w *Worker) convert(ctx context.Context, filename string) (markdown string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("conversion panicked: %v", r)
		}
	}()

	path := filepath.Join(w.inputDir, filename)
	if _, statErr := os.Stat(path); statErr != nil {
		return "", fmt.Errorf("file not found: %s", filename)
	}

	markdown, err = w.converter.Convert(ctx, path)
	if err != nil {
		return "", fmt.Errorf("conversion failed: %w", err)
	}
	return markdown, nil
}
