package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/backtest-pipeline/internal/models"
)

// BacktestRepository defines backtest lifecycle access on the aggregate
// store. Only status and failure reason are ever mutated here.
type BacktestRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Backtest, error)
	// Transition performs a guarded from -> to status update. It returns
	// models.ErrBadTransition when the row is not in the expected state
	// and models.ErrNotFound when the backtest does not exist.
	Transition(ctx context.Context, id uuid.UUID, from, to models.BacktestStatus) error
	// MarkFailed unconditionally sets status FAILED with a reason.
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	// MarkStaleRunning fails every backtest stuck in RUNNING for longer
	// than olderThan, returning the number of rows updated.
	MarkStaleRunning(ctx context.Context, olderThan time.Duration, reason string) (int64, error)
}

// SnapshotRepository defines result snapshot persistence on the
// aggregate store.
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *models.ResultSnapshot) error
	GetByBacktestID(ctx context.Context, backtestID uuid.UUID) (*models.ResultSnapshot, error)
	// AttachReport rewrites the report field, the only mutation a
	// snapshot permits after creation.
	AttachReport(ctx context.Context, id uuid.UUID, report json.RawMessage) error
	// Delete removes a snapshot by id. Deleting a non-existent id is
	// not an error (compensation must be idempotent).
	Delete(ctx context.Context, id uuid.UUID) error
}

// TradeLogRepository defines bulk trade-log persistence on the
// timeseries store.
type TradeLogRepository interface {
	InsertBatch(ctx context.Context, entries []*models.TradeLogEntry) (int64, error)
}

// HoldingRepository defines bulk holding-record persistence on the
// timeseries store.
type HoldingRepository interface {
	InsertBatch(ctx context.Context, records []*models.HoldingRecord) (int64, error)
}
