package queue

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO of pending task IDs. Enqueue never blocks;
// Dequeue blocks until an ID is available or the context is done. The queue
// holds identifiers only, never task content.
type Queue struct {
	mu     sync.Mutex
	ids    []string
	signal chan struct{}
}

func NewQueue() *Queue {
	return &Queue{
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends id to the tail. Bounded only by available memory.
func (q *Queue) Enqueue(id string) {
	q.mu.Lock()
	q.ids = append(q.ids, id)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Dequeue removes and returns the head of the queue, blocking while the
// queue is empty. Returns the context error on cancellation.
func (q *Queue) Dequeue(ctx context.Context) (string, error) {
	for {
		q.mu.Lock()
		if len(q.ids) > 0 {
			id := q.ids[0]
			q.ids = q.ids[1:]
			q.mu.Unlock()
			return id, nil
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Len reports the number of pending IDs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}
