package worker

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"docConverter/callback"
	"docConverter/models"
	"docConverter/queue"
	"docConverter/store"
)

// fakeConverter lets each test script the conversion outcome and observe
// call order.
type fakeConverter struct {
	mu      sync.Mutex
	paths   []string
	convert func(path string) (string, error)
}

func (f *fakeConverter) Convert(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()

	if f.convert != nil {
		return f.convert(path)
	}
	return "# converted", nil
}

func (f *fakeConverter) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

type fixture struct {
	store  *store.Store
	queue  *queue.Queue
	conv   *fakeConverter
	worker *Worker
	dir    string
	cancel context.CancelFunc
}

func newFixture(t *testing.T, maxRetries int, backoff time.Duration) *fixture {
	t.Helper()

	dir := t.TempDir()
	s := store.NewStore()
	q := queue.NewQueue()
	conv := &fakeConverter{}
	logger := zaptest.NewLogger(t)
	d := callback.NewDispatcher(time.Second, maxRetries, backoff, logger)

	w := NewWorker(s, q, conv, d, dir, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(cancel)

	return &fixture{store: s, queue: q, conv: conv, worker: w, dir: dir, cancel: cancel}
}

func (f *fixture) submit(t *testing.T, filename, callbackURL string) string {
	t.Helper()
	task, err := f.store.Create(filename, callbackURL)
	require.NoError(t, err)
	f.queue.Enqueue(task.ID)
	return task.ID
}

func (f *fixture) writeInput(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), []byte(content), 0o644))
}

func waitForTerminal(t *testing.T, s *store.Store, id string) *models.Task {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		task, err := s.Get(id)
		require.NoError(t, err)
		if task.Status.Terminal() {
			return task
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s never reached a terminal state", id)
	return nil
}

func TestWorker_CompletesTask(t *testing.T) {
	f := newFixture(t, 0, 0)
	f.writeInput(t, "doc.md", "# hello")

	id := f.submit(t, "doc.md", "")

	task := waitForTerminal(t, f.store, id)
	assert.Equal(t, models.StatusCompleted, task.Status)
	assert.Equal(t, "# converted", task.Result)
	assert.Empty(t, task.ErrorMessage)
	require.NotNil(t, task.CompletedAt)
}

func TestWorker_MissingFileFails(t *testing.T) {
	f := newFixture(t, 0, 0)

	id := f.submit(t, "missing.pdf", "")

	task := waitForTerminal(t, f.store, id)
	assert.Equal(t, models.StatusFailed, task.Status)
	assert.Contains(t, task.ErrorMessage, "file not found")
	assert.Empty(t, task.Result)
	require.NotNil(t, task.CompletedAt)
}

func TestWorker_ConverterErrorFails(t *testing.T) {
	f := newFixture(t, 0, 0)
	f.writeInput(t, "doc.md", "# hello")
	f.conv.convert = func(path string) (string, error) {
		return "", errors.New("garbled input")
	}

	id := f.submit(t, "doc.md", "")

	task := waitForTerminal(t, f.store, id)
	assert.Equal(t, models.StatusFailed, task.Status)
	assert.Contains(t, task.ErrorMessage, "conversion failed")
	assert.Contains(t, task.ErrorMessage, "garbled input")
}

func TestWorker_SurvivesPanickingConverter(t *testing.T) {
	f := newFixture(t, 0, 0)
	f.writeInput(t, "bad.md", "boom")
	f.writeInput(t, "good.md", "fine")

	calls := 0
	f.conv.convert = func(path string) (string, error) {
		calls++
		if calls == 1 {
			panic("converter exploded")
		}
		return "# ok", nil
	}

	badID := f.submit(t, "bad.md", "")
	goodID := f.submit(t, "good.md", "")

	badTask := waitForTerminal(t, f.store, badID)
	assert.Equal(t, models.StatusFailed, badTask.Status)
	assert.Contains(t, badTask.ErrorMessage, "conversion panicked")

	goodTask := waitForTerminal(t, f.store, goodID)
	assert.Equal(t, models.StatusCompleted, goodTask.Status)
}

func TestWorker_FIFOOrder(t *testing.T) {
	f := newFixture(t, 0, 0)
	f.conv.convert = func(path string) (string, error) {
		time.Sleep(20 * time.Millisecond) // staggered work, order must still hold
		return "# converted", nil
	}

	names := []string{"a.md", "b.md", "c.md", "d.md"}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		f.writeInput(t, name, "x")
		ids = append(ids, f.submit(t, name, ""))
	}

	var completions []time.Time
	for _, id := range ids {
		task := waitForTerminal(t, f.store, id)
		assert.Equal(t, models.StatusCompleted, task.Status)
		completions = append(completions, *task.CompletedAt)
	}

	calls := f.conv.calls()
	require.Len(t, calls, len(names))
	for i, name := range names {
		assert.Equal(t, filepath.Join(f.dir, name), calls[i], "conversion order mismatch at %d", i)
	}
	for i := 1; i < len(completions); i++ {
		assert.False(t, completions[i].Before(completions[i-1]), "completion order mismatch at %d", i)
	}
}

func TestWorker_SlowCallbackDoesNotBlockNextTask(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release // hold the callback open
	}))
	defer srv.Close()
	defer close(release)

	f := newFixture(t, 0, 0)
	f.writeInput(t, "first.md", "x")
	f.writeInput(t, "second.md", "y")

	firstID := f.submit(t, "first.md", srv.URL)

	task := waitForTerminal(t, f.store, firstID)
	require.Equal(t, models.StatusCompleted, task.Status)

	// the callback for the first task is still hanging; the second task
	// must complete regardless
	start := time.Now()
	secondID := f.submit(t, "second.md", "")
	second := waitForTerminal(t, f.store, secondID)
	assert.Equal(t, models.StatusCompleted, second.Status)
	assert.Less(t, time.Since(start), time.Second, "worker was blocked by a slow callback")
}

func TestWorker_NoCallbackNoTraffic(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	f := newFixture(t, 0, 0)
	f.writeInput(t, "a.md", "x")
	f.writeInput(t, "b.md", "y")

	firstID := f.submit(t, "a.md", "")
	secondID := f.submit(t, "b.md", "")

	first := waitForTerminal(t, f.store, firstID)
	second := waitForTerminal(t, f.store, secondID)
	assert.Equal(t, models.StatusCompleted, first.Status)
	assert.Equal(t, models.StatusCompleted, second.Status)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, hits, "callback traffic occurred without a callback URL")
}

func TestWorker_CallbackReceivesFailure(t *testing.T) {
	payloads := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		payloads <- body
	}))
	defer srv.Close()

	f := newFixture(t, 0, 0)

	id := f.submit(t, "missing.pdf", srv.URL)
	task := waitForTerminal(t, f.store, id)
	require.Equal(t, models.StatusFailed, task.Status)

	select {
	case body := <-payloads:
		assert.Contains(t, string(body), `"status":"failed"`)
		assert.Contains(t, string(body), id)
	case <-time.After(2 * time.Second):
		t.Fatal("callback was never delivered")
	}
}

func TestWorker_StopsOnCancel(t *testing.T) {
	f := newFixture(t, 0, 0)

	require.Eventually(t, f.worker.Alive, time.Second, 5*time.Millisecond)

	f.cancel()

	require.Eventually(t, func() bool { return !f.worker.Alive() }, time.Second, 5*time.Millisecond)
	assert.False(t, f.worker.Processing())
}
