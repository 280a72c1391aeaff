package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/backtest-pipeline/internal/database"
	"github.com/yourusername/backtest-pipeline/internal/models"
)

// PostgresSnapshotRepository implements SnapshotRepository against the
// aggregate store.
type PostgresSnapshotRepository struct {
	db *database.DB
}

// NewPostgresSnapshotRepository creates a new snapshot repository
func NewPostgresSnapshotRepository(db *database.DB) SnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

// Create inserts a result snapshot (phase 1 of the saga).
func (r *PostgresSnapshotRepository) Create(ctx context.Context, snapshot *models.ResultSnapshot) error {
	query := `
		INSERT INTO result_snapshots (
			id, backtest_id, base_value, current_value, metrics, report,
			started_at, ended_at, execution_time_seconds, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`
	_, err := r.db.GetPool().Exec(ctx, query,
		snapshot.ID, snapshot.BacktestID, snapshot.BaseValue, snapshot.CurrentValue,
		snapshot.Metrics, snapshot.Report,
		snapshot.StartedAt, snapshot.EndedAt, snapshot.ExecutionTimeSeconds, snapshot.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: snapshot for backtest %s", models.ErrDuplicateKey, snapshot.BacktestID)
		}
		return fmt.Errorf("failed to insert result snapshot: %w", err)
	}
	return nil
}

// GetByBacktestID retrieves the latest snapshot for a backtest.
func (r *PostgresSnapshotRepository) GetByBacktestID(ctx context.Context, backtestID uuid.UUID) (*models.ResultSnapshot, error) {
	query := `
		SELECT id, backtest_id, base_value, current_value, metrics, report,
			started_at, ended_at, execution_time_seconds, created_at
		FROM result_snapshots
		WHERE backtest_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	s := &models.ResultSnapshot{}
	err := r.db.GetPool().QueryRow(ctx, query, backtestID).Scan(
		&s.ID, &s.BacktestID, &s.BaseValue, &s.CurrentValue, &s.Metrics, &s.Report,
		&s.StartedAt, &s.EndedAt, &s.ExecutionTimeSeconds, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query result snapshot: %w", err)
	}
	return s, nil
}

// AttachReport rewrites the snapshot's report field.
func (r *PostgresSnapshotRepository) AttachReport(ctx context.Context, id uuid.UUID, report json.RawMessage) error {
	query := `UPDATE result_snapshots SET report = $1 WHERE id = $2`
	tag, err := r.db.GetPool().Exec(ctx, query, report, id)
	if err != nil {
		return fmt.Errorf("failed to attach report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a snapshot by id. Missing rows are not an error.
func (r *PostgresSnapshotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.GetPool().Exec(ctx, `DELETE FROM result_snapshots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete result snapshot: %w", err)
	}
	return nil
}
