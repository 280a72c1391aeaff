package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/backtest-pipeline/internal/analytics"
	"github.com/yourusername/backtest-pipeline/internal/engine"
	"github.com/yourusername/backtest-pipeline/internal/metrics"
	"github.com/yourusername/backtest-pipeline/internal/models"
	"github.com/yourusername/backtest-pipeline/internal/report"
	"github.com/yourusername/backtest-pipeline/internal/repository"
	"github.com/yourusername/backtest-pipeline/internal/tracing"
)

// Orchestrator is the completion state machine. Each signal is handled
// as an independent unit of work scoped to its backtest id; the caller
// (queue worker) owns that id for the duration of one pass.
type Orchestrator struct {
	backtests   repository.BacktestRepository
	snapshots   repository.SnapshotRepository
	coordinator *Coordinator
	generator   report.Generator
	logger      *logrus.Logger
}

// NewOrchestrator creates a completion orchestrator.
func NewOrchestrator(
	backtests repository.BacktestRepository,
	snapshots repository.SnapshotRepository,
	coordinator *Coordinator,
	generator report.Generator,
	logger *logrus.Logger,
) *Orchestrator {
	return &Orchestrator{
		backtests:   backtests,
		snapshots:   snapshots,
		coordinator: coordinator,
		generator:   generator,
		logger:      logger,
	}
}

// Start moves a backtest from CREATED to RUNNING when its engine job is
// submitted.
func (o *Orchestrator) Start(ctx context.Context, backtestID uuid.UUID) error {
	return o.backtests.Transition(ctx, backtestID, models.StatusCreated, models.StatusRunning)
}

// OnSuccess drives the full success path: phase-1 aggregate write,
// phase-2 bulk writes, status COMPLETED, then best-effort report
// generation. A phase-2 failure compensates phase 1 and re-raises; a
// report failure never reverts a COMPLETED status.
func (o *Orchestrator) OnSuccess(ctx context.Context, backtestID uuid.UUID, signal *engine.CompletionSignal) error {
	start := time.Now()
	defer func() {
		metrics.RecordSignalHandling(time.Since(start).Seconds())
	}()

	log := o.logger.WithFields(logrus.Fields{
		"backtest_id": backtestID,
		"job_id":      signal.JobID,
	})

	phase1Ctx, closePhase1 := tracing.StartSubsegment(ctx, "persist-aggregate")
	snapshotID, err := o.coordinator.SaveAggregate(phase1Ctx, backtestID, signal)
	closePhase1(err)
	if err != nil {
		metrics.RecordPersistenceFailure("aggregate")
		log.WithError(err).Error("Phase-1 persistence failed")
		o.markFailed(ctx, backtestID, fmt.Sprintf("aggregate persistence failed: %v", err))
		return err
	}
	tracing.AddMetadata(ctx, "snapshot_id", snapshotID.String())

	phase2Ctx, closePhase2 := tracing.StartSubsegment(ctx, "persist-children")
	err = o.coordinator.SaveChildren(phase2Ctx, snapshotID, signal)
	closePhase2(err)
	if err != nil {
		metrics.RecordPersistenceFailure("children")
		log.WithError(err).Error("Phase-2 persistence failed, compensating")
		o.compensate(ctx, backtestID, snapshotID)
		o.markFailed(ctx, backtestID, fmt.Sprintf("bulk persistence failed: %v", err))
		return err
	}

	if err := o.backtests.Transition(ctx, backtestID, models.StatusRunning, models.StatusCompleted); err != nil {
		log.WithError(err).Error("Failed to mark backtest completed, compensating")
		o.compensate(ctx, backtestID, snapshotID)
		o.markFailed(ctx, backtestID, fmt.Sprintf("status update failed: %v", err))
		return err
	}

	metrics.RecordSignalProcessed("completed")
	log.WithField("snapshot_id", snapshotID).Info("Backtest completed")

	// Best effort from here on: the run is COMPLETED whatever happens
	// to the report.
	reportCtx, closeReport := tracing.StartSubsegment(ctx, "generate-report")
	err = o.generateReport(reportCtx, snapshotID, signal)
	closeReport(err)
	if err != nil {
		metrics.RecordReportGeneration("failed")
		log.WithError(err).Warn("Report generation failed, backtest stays completed without report")
	} else {
		metrics.RecordReportGeneration("ok")
	}

	return nil
}

// OnFailure unconditionally marks the backtest FAILED. It never lets an
// error escape its own boundary.
func (o *Orchestrator) OnFailure(ctx context.Context, backtestID uuid.UUID, signal *engine.CompletionSignal) {
	start := time.Now()
	defer func() {
		metrics.RecordSignalHandling(time.Since(start).Seconds())
	}()

	reason := "engine reported failure"
	if signal != nil && signal.Error != nil {
		reason = fmt.Sprintf("%s: %s", signal.Error.ErrorType, signal.Error.Message)
		if signal.Error.MissingStocksCount > 0 {
			reason = fmt.Sprintf("%s (missing data for %d of %d instruments)",
				reason, signal.Error.MissingStocksCount, signal.Error.TotalStocks)
		}
	}

	log := o.logger.WithField("backtest_id", backtestID)
	if signal != nil && signal.Error != nil {
		log = log.WithFields(logrus.Fields{
			"error_type":       signal.Error.ErrorType,
			"requested_period": signal.Error.RequestedPeriod,
		})
	}
	log.WithField("reason", reason).Warn("Backtest failed")

	o.markFailed(ctx, backtestID, reason)
	metrics.RecordSignalProcessed("failed")
}

func (o *Orchestrator) markFailed(ctx context.Context, backtestID uuid.UUID, reason string) {
	if err := o.backtests.MarkFailed(ctx, backtestID, reason); err != nil {
		o.logger.WithError(err).WithField("backtest_id", backtestID).
			Error("Failed to record FAILED status")
	}
}

// compensate deletes the phase-1 snapshot. A failing compensation is a
// critical inconsistency: orphaned data may exist and needs operator
// attention; the status is still forced to FAILED by the caller.
func (o *Orchestrator) compensate(ctx context.Context, backtestID, snapshotID uuid.UUID) {
	err := o.coordinator.Rollback(ctx, backtestID, snapshotID)
	metrics.RecordCompensation(err == nil)
	if err != nil {
		o.logger.WithError(err).WithFields(logrus.Fields{
			"backtest_id": backtestID,
			"snapshot_id": snapshotID,
		}).Error("CRITICAL: compensation failed, orphaned snapshot may exist")
	}
}

// generateReport runs analytics over the signal, calls the narrative
// generator, normalizes its output, and attaches it to the snapshot.
func (o *Orchestrator) generateReport(ctx context.Context, snapshotID uuid.UUID, signal *engine.CompletionSignal) error {
	points := buildDailyPoints(signal.DailyResults)
	entries := analyticsTradeEntries(signal.ExecutionLogs)

	var benchmark *models.BenchmarkMetrics
	if record := signal.Metrics.ToMetricsRecord(signal.BenchmarkMetrics); record.Benchmark != nil {
		benchmark = record.Benchmark
	}

	bundle := analytics.BuildBundle(points, entries, benchmark)
	document, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to serialize analysis bundle: %w", err)
	}

	raw, err := o.generator.Generate(ctx, document)
	if err != nil {
		return err
	}

	envelope := report.NormalizeEnvelope(raw)
	if err := o.snapshots.AttachReport(ctx, snapshotID, envelope); err != nil {
		return fmt.Errorf("failed to attach report: %w", err)
	}
	return nil
}

// buildDailyPoints converts the engine's per-day figures into the
// analytics series, recovering the portfolio total from explicit
// totals when present and from instrument sums plus cash otherwise.
func buildDailyPoints(days []engine.DailyResultInput) []analytics.DailyPoint {
	points := make([]analytics.DailyPoint, 0, len(days))
	for _, day := range days {
		values := make(map[string]float64, len(day.PerInstrument)+1)
		var instrumentTotal float64
		for _, fig := range day.PerInstrument {
			v := orZero(fig.Value)
			values[fig.Code] = v
			instrumentTotal += v
		}

		total := orZero(day.PortfolioValue)
		if day.PortfolioValue == nil {
			total = instrumentTotal + orZero(day.CashBalance)
		}
		values[analytics.PortfolioTotalKey] = total

		points = append(points, analytics.DailyPoint{Date: day.Date.Time, Values: values})
	}
	return points
}

// analyticsTradeEntries maps execution logs for the analytics engine.
// Entries with unknown actions are skipped here; persistence has
// already vetted the batch by the time reports are generated.
func analyticsTradeEntries(inputs []engine.TradeLogInput) []models.TradeLogEntry {
	entries := make([]models.TradeLogEntry, 0, len(inputs))
	for _, in := range inputs {
		action, err := models.ParseTradeAction(in.Action)
		if err != nil {
			continue
		}
		entry := models.TradeLogEntry{
			Action:         action,
			Category:       in.Category,
			Reason:         in.Reason,
			PortfolioValue: orZero(in.PortfolioValue),
		}
		if in.Date != nil {
			entry.EventAt = *in.Date
		}
		if in.CashGenerated != nil {
			entry.CashGenerated = *in.CashGenerated
		}
		entries = append(entries, entry)
	}
	return entries
}
