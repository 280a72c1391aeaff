package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/backtest-pipeline/internal/database"
	"github.com/yourusername/backtest-pipeline/internal/models"
)

// PostgresHoldingRepository implements HoldingRepository against the
// timeseries store.
type PostgresHoldingRepository struct {
	db *database.DB
}

// NewPostgresHoldingRepository creates a new holding repository
func NewPostgresHoldingRepository(db *database.DB) HoldingRepository {
	return &PostgresHoldingRepository{db: db}
}

// InsertBatch bulk-inserts holding records using COPY.
func (r *PostgresHoldingRepository) InsertBatch(ctx context.Context, records []*models.HoldingRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	columns := []string{
		"id", "snapshot_id", "kind", "as_of", "code",
		"price", "quantity", "market_value", "weight",
		"contribution", "daily_return", "stock_value", "cash_balance",
	}

	rows := make([][]interface{}, len(records))
	for i, h := range records {
		rows[i] = []interface{}{
			h.ID, h.SnapshotID, string(h.Kind), h.AsOf, h.Code,
			h.Price, h.Quantity, h.MarketValue, h.Weight,
			h.Contribution, h.DailyReturn, h.StockValue, h.CashBalance,
		}
	}

	// COPY inside a transaction so a short write rolls back the whole
	// chunk instead of leaving a partial batch behind.
	var count int64
	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"holding_records"}, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to batch insert holding records: %w", err)
		}
		if n != int64(len(records)) {
			return fmt.Errorf("inserted %d holding rows, expected %d", n, len(records))
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
