package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/backtest-pipeline/internal/engine"
)

type fakeResolver struct {
	mu       sync.Mutex
	mappings map[string]uuid.UUID
}

func (f *fakeResolver) Resolve(jobID string) (uuid.UUID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.mappings[jobID]
	return id, ok
}

type recordingHandler struct {
	mu        sync.Mutex
	successes []uuid.UUID
	failures  []uuid.UUID
	done      chan struct{}
}

func newRecordingHandler(expected int) *recordingHandler {
	h := &recordingHandler{done: make(chan struct{}, expected)}
	return h
}

func (h *recordingHandler) OnSuccess(_ context.Context, backtestID uuid.UUID, _ *engine.CompletionSignal) error {
	h.mu.Lock()
	h.successes = append(h.successes, backtestID)
	h.mu.Unlock()
	h.done <- struct{}{}
	return nil
}

func (h *recordingHandler) OnFailure(_ context.Context, backtestID uuid.UUID, _ *engine.CompletionSignal) {
	h.mu.Lock()
	h.failures = append(h.failures, backtestID)
	h.mu.Unlock()
	h.done <- struct{}{}
}

func (h *recordingHandler) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-h.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for signal %d of %d", i+1, n)
		}
	}
}

func TestQueueDispatchesByOutcome(t *testing.T) {
	okID := uuid.New()
	badID := uuid.New()
	resolver := &fakeResolver{mappings: map[string]uuid.UUID{
		"job-ok":  okID,
		"job-bad": badID,
	}}
	handler := newRecordingHandler(2)

	q := NewQueue(8, 2, resolver, handler, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Close()

	require.NoError(t, q.Enqueue(&engine.CompletionSignal{JobID: "job-ok", Success: true}))
	require.NoError(t, q.Enqueue(&engine.CompletionSignal{JobID: "job-bad", Success: false}))
	handler.wait(t, 2)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Equal(t, []uuid.UUID{okID}, handler.successes)
	assert.Equal(t, []uuid.UUID{badID}, handler.failures)
}

func TestQueueDropsUnresolvableSignals(t *testing.T) {
	resolver := &fakeResolver{mappings: map[string]uuid.UUID{}}
	handler := newRecordingHandler(1)

	q := NewQueue(8, 1, resolver, handler, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	require.NoError(t, q.Enqueue(&engine.CompletionSignal{JobID: "job-unknown", Success: true}))
	q.Close()

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Empty(t, handler.successes)
	assert.Empty(t, handler.failures)
}

func TestQueueFullRejectsWithoutBlocking(t *testing.T) {
	resolver := &fakeResolver{mappings: map[string]uuid.UUID{}}
	handler := newRecordingHandler(0)

	// Workers never started: the buffer fills and stays full.
	q := NewQueue(1, 1, resolver, handler, testLogger())

	require.NoError(t, q.Enqueue(&engine.CompletionSignal{JobID: "a"}))
	assert.ErrorIs(t, q.Enqueue(&engine.CompletionSignal{JobID: "b"}), ErrQueueFull)
}

func TestQueueRejectsAfterClose(t *testing.T) {
	resolver := &fakeResolver{mappings: map[string]uuid.UUID{}}
	handler := newRecordingHandler(0)

	q := NewQueue(4, 1, resolver, handler, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	q.Close()

	assert.ErrorIs(t, q.Enqueue(&engine.CompletionSignal{JobID: "late"}), ErrQueueClosed)
}

func TestQueueCloseDrainsBufferedSignals(t *testing.T) {
	id := uuid.New()
	resolver := &fakeResolver{mappings: map[string]uuid.UUID{"job-1": id}}
	handler := newRecordingHandler(1)

	q := NewQueue(4, 1, resolver, handler, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.Enqueue(&engine.CompletionSignal{JobID: "job-1", Success: true}))
	q.Start(ctx)
	q.Close()

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Equal(t, []uuid.UUID{id}, handler.successes)
}
