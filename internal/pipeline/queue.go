package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/backtest-pipeline/internal/engine"
	"github.com/yourusername/backtest-pipeline/internal/metrics"
	"github.com/yourusername/backtest-pipeline/internal/tracing"
)

// ErrQueueFull is returned when the signal buffer is at capacity.
var ErrQueueFull = errors.New("signal queue full")

// ErrQueueClosed is returned when enqueueing after shutdown began.
var ErrQueueClosed = errors.New("signal queue closed")

// JobResolver resolves an engine job id to a backtest id.
type JobResolver interface {
	Resolve(jobID string) (uuid.UUID, bool)
}

// SignalHandler is implemented by the Orchestrator.
type SignalHandler interface {
	OnSuccess(ctx context.Context, backtestID uuid.UUID, signal *engine.CompletionSignal) error
	OnFailure(ctx context.Context, backtestID uuid.UUID, signal *engine.CompletionSignal)
}

// Queue buffers inbound completion signals and fans them out to worker
// goroutines. Each worker fully owns one signal's backtest id for the
// duration of its state-machine pass, so a slow or failing handler
// never blocks the component that delivered the signal.
type Queue struct {
	signals  chan *engine.CompletionSignal
	resolver JobResolver
	handler  SignalHandler
	workers  int
	logger   *logrus.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewQueue creates a signal queue with the given buffer size and worker
// count.
func NewQueue(size, workers int, resolver JobResolver, handler SignalHandler, logger *logrus.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	if workers <= 0 {
		workers = 1
	}
	return &Queue{
		signals:  make(chan *engine.CompletionSignal, size),
		resolver: resolver,
		handler:  handler,
		workers:  workers,
		logger:   logger,
	}
}

// Enqueue hands a signal to the worker pool without blocking the
// caller.
func (q *Queue) Enqueue(signal *engine.CompletionSignal) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.signals <- signal:
		metrics.UpdateQueueDepth(len(q.signals))
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the worker pool. Workers exit once the queue is
// closed and drained, or when ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
}

// Close stops accepting signals and waits for in-flight work to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.signals)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) worker(ctx context.Context, id int) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case signal, ok := <-q.signals:
			if !ok {
				return
			}
			metrics.UpdateQueueDepth(len(q.signals))
			q.dispatch(ctx, id, signal)
		}
	}
}

// dispatch resolves the job mapping and runs one full state-machine
// pass. Unresolvable signals are dropped with a warning; the mapping
// may simply have expired.
func (q *Queue) dispatch(ctx context.Context, workerID int, signal *engine.CompletionSignal) {
	log := q.logger.WithFields(logrus.Fields{
		"worker": workerID,
		"job_id": signal.JobID,
	})

	backtestID, ok := q.resolver.Resolve(signal.JobID)
	if !ok {
		metrics.RecordSignalProcessed("dropped")
		log.Warn("No backtest mapping for job, dropping signal")
		return
	}

	err := tracing.TraceSignal(ctx, backtestID.String(), signal.JobID, func(ctx context.Context) error {
		if signal.Success {
			return q.handler.OnSuccess(ctx, backtestID, signal)
		}
		q.handler.OnFailure(ctx, backtestID, signal)
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("backtest_id", backtestID).
			Error("Completion handling failed")
	}
}
