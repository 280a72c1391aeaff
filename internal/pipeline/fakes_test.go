package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/backtest-pipeline/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(discardWriter{})
	return log
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// fakeBacktestRepo tracks status transitions in memory.
type fakeBacktestRepo struct {
	mu        sync.Mutex
	statuses  map[uuid.UUID]models.BacktestStatus
	reasons   map[uuid.UUID]string
	failTrans error
	staleN    int64
}

func newFakeBacktestRepo() *fakeBacktestRepo {
	return &fakeBacktestRepo{
		statuses: make(map[uuid.UUID]models.BacktestStatus),
		reasons:  make(map[uuid.UUID]string),
	}
}

func (f *fakeBacktestRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Backtest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &models.Backtest{ID: id, Status: status}, nil
}

func (f *fakeBacktestRepo) Transition(_ context.Context, id uuid.UUID, from, to models.BacktestStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTrans != nil {
		return f.failTrans
	}
	status, ok := f.statuses[id]
	if !ok {
		return models.ErrNotFound
	}
	if status != from {
		return models.ErrBadTransition
	}
	f.statuses[id] = to
	return nil
}

func (f *fakeBacktestRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = models.StatusFailed
	f.reasons[id] = reason
	return nil
}

func (f *fakeBacktestRepo) MarkStaleRunning(_ context.Context, _ time.Duration, _ string) (int64, error) {
	return f.staleN, nil
}

func (f *fakeBacktestRepo) status(id uuid.UUID) models.BacktestStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[id]
}

func (f *fakeBacktestRepo) reason(id uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reasons[id]
}

// fakeSnapshotRepo stores snapshots in memory and can be primed to
// fail individual operations.
type fakeSnapshotRepo struct {
	mu         sync.Mutex
	snapshots  map[uuid.UUID]*models.ResultSnapshot
	reports    map[uuid.UUID]json.RawMessage
	failCreate error
	failAttach error
	failDelete error
	deletes    int
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{
		snapshots: make(map[uuid.UUID]*models.ResultSnapshot),
		reports:   make(map[uuid.UUID]json.RawMessage),
	}
}

func (f *fakeSnapshotRepo) Create(_ context.Context, snapshot *models.ResultSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	f.snapshots[snapshot.ID] = snapshot
	return nil
}

func (f *fakeSnapshotRepo) GetByBacktestID(_ context.Context, backtestID uuid.UUID) (*models.ResultSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.snapshots {
		if s.BacktestID == backtestID {
			return s, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeSnapshotRepo) AttachReport(_ context.Context, id uuid.UUID, report json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAttach != nil {
		return f.failAttach
	}
	if _, ok := f.snapshots[id]; !ok {
		return models.ErrNotFound
	}
	f.reports[id] = report
	return nil
}

func (f *fakeSnapshotRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.snapshots, id)
	return nil
}

func (f *fakeSnapshotRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots)
}

// fakeTradeLogRepo records inserted batches.
type fakeTradeLogRepo struct {
	mu      sync.Mutex
	batches [][]*models.TradeLogEntry
	fail    error
}

func (f *fakeTradeLogRepo) InsertBatch(_ context.Context, entries []*models.TradeLogEntry) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return 0, f.fail
	}
	f.batches = append(f.batches, entries)
	return int64(len(entries)), nil
}

func (f *fakeTradeLogRepo) rows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

// fakeHoldingRepo records inserted batches.
type fakeHoldingRepo struct {
	mu      sync.Mutex
	batches [][]*models.HoldingRecord
	fail    error
}

func (f *fakeHoldingRepo) InsertBatch(_ context.Context, records []*models.HoldingRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return 0, f.fail
	}
	f.batches = append(f.batches, records)
	return int64(len(records)), nil
}

func (f *fakeHoldingRepo) all() []*models.HoldingRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.HoldingRecord
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

// fakeGenerator returns a canned narrative or error.
type fakeGenerator struct {
	output string
	err    error
	calls  int
	mu     sync.Mutex
}

func (f *fakeGenerator) Generate(_ context.Context, _ json.RawMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

var errBoom = errors.New("store unavailable")
