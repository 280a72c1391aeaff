package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/backtest-pipeline/internal/metrics"
	"github.com/yourusername/backtest-pipeline/internal/repository"
)

const staleRunReason = "run exceeded maximum duration"

// Watchdog periodically fails backtests stuck in RUNNING. A run can get
// stuck when the engine dies without a callback or when the job mapping
// expired before the signal arrived.
type Watchdog struct {
	cron      *cron.Cron
	backtests repository.BacktestRepository
	olderThan time.Duration
	schedule  string
	logger    *logrus.Logger
}

// NewWatchdog creates a stale-run watchdog.
func NewWatchdog(backtests repository.BacktestRepository, schedule string, olderThan time.Duration, logger *logrus.Logger) *Watchdog {
	return &Watchdog{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		backtests: backtests,
		olderThan: olderThan,
		schedule:  schedule,
		logger:    logger,
	}
}

// Start registers the sweep job and starts the cron scheduler.
func (w *Watchdog) Start() error {
	if _, err := w.cron.AddFunc(w.schedule, w.sweep); err != nil {
		return fmt.Errorf("failed to schedule watchdog: %w", err)
	}
	w.cron.Start()
	w.logger.WithFields(logrus.Fields{
		"schedule":   w.schedule,
		"older_than": w.olderThan,
	}).Info("Stale-run watchdog started")
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (w *Watchdog) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
}

func (w *Watchdog) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := w.backtests.MarkStaleRunning(ctx, w.olderThan, staleRunReason)
	if err != nil {
		w.logger.WithError(err).Error("Stale-run sweep failed")
		return
	}
	if count > 0 {
		metrics.RecordStaleRunsFailed(count)
		w.logger.WithField("count", count).Warn("Failed stale RUNNING backtests")
	}
}
