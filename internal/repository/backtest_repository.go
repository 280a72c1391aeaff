package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/backtest-pipeline/internal/database"
	"github.com/yourusername/backtest-pipeline/internal/models"
)

// PostgresBacktestRepository implements BacktestRepository against the
// aggregate store.
type PostgresBacktestRepository struct {
	db *database.DB
}

// NewPostgresBacktestRepository creates a new backtest repository
func NewPostgresBacktestRepository(db *database.DB) BacktestRepository {
	return &PostgresBacktestRepository{db: db}
}

// GetByID retrieves a backtest by id
func (r *PostgresBacktestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Backtest, error) {
	query := `
		SELECT id, portfolio_id, start_date, end_date, benchmark_code, rule_id,
			status, failure_reason, created_at, updated_at
		FROM backtests WHERE id = $1
	`
	bt := &models.Backtest{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&bt.ID, &bt.PortfolioID, &bt.StartDate, &bt.EndDate, &bt.BenchmarkCode, &bt.RuleID,
		&bt.Status, &bt.FailureReason, &bt.CreatedAt, &bt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query backtest: %w", err)
	}
	return bt, nil
}

// Transition performs a guarded from -> to status update.
func (r *PostgresBacktestRepository) Transition(ctx context.Context, id uuid.UUID, from, to models.BacktestStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", models.ErrBadTransition, from, to)
	}

	query := `
		UPDATE backtests SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`
	tag, err := r.db.GetPool().Exec(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update backtest status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a row in the wrong state.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: backtest %s not in %s", models.ErrBadTransition, id, from)
	}
	return nil
}

// MarkFailed unconditionally sets status FAILED with a reason.
func (r *PostgresBacktestRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE backtests SET status = $1, failure_reason = $2, updated_at = now()
		WHERE id = $3
	`
	tag, err := r.db.GetPool().Exec(ctx, query, models.StatusFailed, reason, id)
	if err != nil {
		return fmt.Errorf("failed to mark backtest failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// MarkStaleRunning fails backtests stuck in RUNNING for longer than
// olderThan.
func (r *PostgresBacktestRepository) MarkStaleRunning(ctx context.Context, olderThan time.Duration, reason string) (int64, error) {
	query := `
		UPDATE backtests SET status = $1, failure_reason = $2, updated_at = now()
		WHERE status = $3 AND updated_at < $4
	`
	cutoff := time.Now().Add(-olderThan)
	tag, err := r.db.GetPool().Exec(ctx, query, models.StatusFailed, reason, models.StatusRunning, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to mark stale backtests: %w", err)
	}
	return tag.RowsAffected(), nil
}
