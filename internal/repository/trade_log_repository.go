package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/backtest-pipeline/internal/database"
	"github.com/yourusername/backtest-pipeline/internal/models"
)

// PostgresTradeLogRepository implements TradeLogRepository against the
// timeseries store.
type PostgresTradeLogRepository struct {
	db *database.DB
}

// NewPostgresTradeLogRepository creates a new trade log repository
func NewPostgresTradeLogRepository(db *database.DB) TradeLogRepository {
	return &PostgresTradeLogRepository{db: db}
}

// InsertBatch bulk-inserts trade log entries using COPY.
func (r *PostgresTradeLogRepository) InsertBatch(ctx context.Context, entries []*models.TradeLogEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	columns := []string{
		"id", "snapshot_id", "event_at", "action", "category",
		"trigger_value", "threshold_value", "reason", "portfolio_value",
		"sold_stocks", "cash_generated", "created_at",
	}

	rows := make([][]interface{}, len(entries))
	for i, e := range entries {
		rows[i] = []interface{}{
			e.ID, e.SnapshotID, e.EventAt, string(e.Action), e.Category,
			e.TriggerValue, e.ThresholdValue, e.Reason, e.PortfolioValue,
			e.SoldStocks, e.CashGenerated, e.CreatedAt,
		}
	}

	// COPY inside a transaction so a short write rolls back the whole
	// chunk instead of leaving a partial batch behind.
	var count int64
	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"trade_log_entries"}, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to batch insert trade log entries: %w", err)
		}
		if n != int64(len(entries)) {
			return fmt.Errorf("inserted %d trade log rows, expected %d", n, len(entries))
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
