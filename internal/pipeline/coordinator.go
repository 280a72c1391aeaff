// Package pipeline implements the backtest completion pipeline: the
// signal queue, the completion orchestrator, and the two-phase
// persistence saga across the aggregate and timeseries stores.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/backtest-pipeline/internal/engine"
	"github.com/yourusername/backtest-pipeline/internal/models"
	"github.com/yourusername/backtest-pipeline/internal/repository"
)

// Coordinator owns the durable representation of one backtest outcome:
// the snapshot row on the aggregate store (phase 1) and the bulk child
// collections on the timeseries store (phase 2). The two stores share
// no transaction; Rollback is the explicit compensation for a phase-2
// failure.
type Coordinator struct {
	snapshots repository.SnapshotRepository
	tradeLogs repository.TradeLogRepository
	holdings  repository.HoldingRepository
	chunkSize int
	logger    *logrus.Logger
	now       func() time.Time
}

// NewCoordinator creates a persistence coordinator. chunkSize <= 0
// falls back to repository.DefaultChunkSize.
func NewCoordinator(
	snapshots repository.SnapshotRepository,
	tradeLogs repository.TradeLogRepository,
	holdings repository.HoldingRepository,
	chunkSize int,
	logger *logrus.Logger,
) *Coordinator {
	if chunkSize <= 0 {
		chunkSize = repository.DefaultChunkSize
	}
	return &Coordinator{
		snapshots: snapshots,
		tradeLogs: tradeLogs,
		holdings:  holdings,
		chunkSize: chunkSize,
		logger:    logger,
		now:       time.Now,
	}
}

// SaveAggregate builds the ResultSnapshot from the signal and writes it
// as a single insert (phase 1). A failure here leaves no partial state.
func (c *Coordinator) SaveAggregate(ctx context.Context, backtestID uuid.UUID, signal *engine.CompletionSignal) (uuid.UUID, error) {
	startedAt, err := parseTimestamp(signal.Snapshot.StartAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid snapshot start timestamp: %w", err)
	}
	endedAt, err := parseTimestamp(signal.Snapshot.EndAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid snapshot end timestamp: %w", err)
	}

	metricsBlob, err := json.Marshal(signal.Metrics.ToMetricsRecord(signal.BenchmarkMetrics))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to serialize metrics record: %w", err)
	}

	snapshot := &models.ResultSnapshot{
		ID:                   uuid.New(),
		BacktestID:           backtestID,
		BaseValue:            signal.Snapshot.BaseValue,
		CurrentValue:         signal.Snapshot.CurrentValue,
		Metrics:              metricsBlob,
		StartedAt:            startedAt,
		EndedAt:              endedAt,
		ExecutionTimeSeconds: signal.Snapshot.ExecutionTimeSeconds,
		CreatedAt:            c.now(),
	}

	if err := c.snapshots.Create(ctx, snapshot); err != nil {
		return uuid.Nil, err
	}
	return snapshot.ID, nil
}

// SaveChildren bulk-inserts the trade log and per-day holdings for a
// snapshot (phase 2). Any error leaves the caller responsible for
// compensating phase 1.
func (c *Coordinator) SaveChildren(ctx context.Context, snapshotID uuid.UUID, signal *engine.CompletionSignal) error {
	if len(signal.ExecutionLogs) > 0 {
		entries, err := c.mapTradeLogEntries(snapshotID, signal.ExecutionLogs)
		if err != nil {
			return err
		}
		written, err := repository.InsertChunked(ctx, entries, c.chunkSize, c.tradeLogs.InsertBatch)
		if err != nil {
			return fmt.Errorf("failed to persist trade log: %w", err)
		}
		c.logger.WithFields(logrus.Fields{
			"snapshot_id": snapshotID,
			"rows":        written,
		}).Debug("Trade log persisted")
	}

	if len(signal.DailyResults) > 0 {
		records := buildHoldingRecords(snapshotID, signal.DailyResults)
		written, err := repository.InsertChunked(ctx, records, c.chunkSize, c.holdings.InsertBatch)
		if err != nil {
			return fmt.Errorf("failed to persist holding records: %w", err)
		}
		c.logger.WithFields(logrus.Fields{
			"snapshot_id": snapshotID,
			"rows":        written,
		}).Debug("Holding records persisted")
	}

	return nil
}

// Rollback deletes the phase-1 snapshot row. Idempotent: a missing row
// is not an error.
func (c *Coordinator) Rollback(ctx context.Context, backtestID, snapshotID uuid.UUID) error {
	if err := c.snapshots.Delete(ctx, snapshotID); err != nil {
		return fmt.Errorf("compensation failed for backtest %s: %w", backtestID, err)
	}
	return nil
}

// mapTradeLogEntries maps execution-log inputs to persistable rows. An
// unknown action kind is fatal to the whole batch; missing timestamps
// default to now with a warning instead of failing the batch.
func (c *Coordinator) mapTradeLogEntries(snapshotID uuid.UUID, inputs []engine.TradeLogInput) ([]*models.TradeLogEntry, error) {
	entries := make([]*models.TradeLogEntry, 0, len(inputs))
	for i, in := range inputs {
		action, err := models.ParseTradeAction(in.Action)
		if err != nil {
			return nil, fmt.Errorf("trade log entry %d: %w", i, err)
		}

		eventAt := c.now()
		if in.Date != nil {
			eventAt = *in.Date
		} else {
			c.logger.WithField("index", i).Warn("Trade log entry missing event timestamp, defaulting to now")
		}
		createdAt := c.now()
		if in.CreatedAt != nil {
			createdAt = *in.CreatedAt
		}

		entry := &models.TradeLogEntry{
			ID:             uuid.New(),
			SnapshotID:     snapshotID,
			EventAt:        eventAt,
			Action:         action,
			Category:       in.Category,
			TriggerValue:   orZero(in.TriggerValue),
			ThresholdValue: orZero(in.ThresholdValue),
			Reason:         in.Reason,
			PortfolioValue: orZero(in.PortfolioValue),
			SoldStocks:     in.SoldStocks,
			CreatedAt:      createdAt,
		}
		if in.CashGenerated != nil {
			entry.CashGenerated = *in.CashGenerated
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// buildHoldingRecords emits one instrument row per holding plus exactly
// one portfolio-aggregate row per day carrying the day's totals in
// explicit columns.
func buildHoldingRecords(snapshotID uuid.UUID, days []engine.DailyResultInput) []*models.HoldingRecord {
	records := make([]*models.HoldingRecord, 0, len(days)*4)
	for _, day := range days {
		var instrumentTotal float64
		for _, fig := range day.PerInstrument {
			value := orZero(fig.Value)
			instrumentTotal += value
			records = append(records, &models.HoldingRecord{
				ID:           uuid.New(),
				SnapshotID:   snapshotID,
				Kind:         models.HoldingInstrument,
				AsOf:         day.Date.Time,
				Code:         fig.Code,
				Price:        orZero(fig.ClosePrice),
				Quantity:     orZero(fig.Quantity),
				MarketValue:  value,
				Weight:       orZero(fig.Weight),
				Contribution: orZero(fig.Contribution),
				DailyReturn:  orZero(fig.DailyReturn),
			})
		}

		cash := orZero(day.CashBalance)
		stockValue := orZero(day.StockValue)
		if day.StockValue == nil {
			stockValue = instrumentTotal
		}
		total := orZero(day.PortfolioValue)
		if day.PortfolioValue == nil {
			total = stockValue + cash
		}

		records = append(records, &models.HoldingRecord{
			ID:          uuid.New(),
			SnapshotID:  snapshotID,
			Kind:        models.HoldingPortfolioAggregate,
			AsOf:        day.Date.Time,
			Code:        models.PortfolioCode,
			MarketValue: total,
			StockValue:  stockValue,
			CashBalance: cash,
		})
	}
	return records
}

// orZero applies the numeric defaulting policy: absent optional
// numerics persist as 0, never null.
func orZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// parseTimestamp accepts RFC3339 first, then the engine's legacy
// "2006-01-02 15:04:05" format.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}
