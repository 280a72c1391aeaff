package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/backtest-pipeline/internal/database"
)

// pgUniqueViolation is the Postgres error code for a unique constraint
// violation.
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation, e.g. a second snapshot insert for the same backtest.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Repositories holds all repository implementations, split across the
// two physical stores.
type Repositories struct {
	Backtest BacktestRepository
	Snapshot SnapshotRepository
	TradeLog TradeLogRepository
	Holding  HoldingRepository
}

// NewRepositories creates the repository set. aggregateDB backs
// backtests and result snapshots; timeseriesDB backs trade log entries
// and holding records.
func NewRepositories(aggregateDB, timeseriesDB *database.DB) (*Repositories, error) {
	if aggregateDB == nil || timeseriesDB == nil {
		return nil, fmt.Errorf("both store connections are required")
	}

	return &Repositories{
		Backtest: NewPostgresBacktestRepository(aggregateDB),
		Snapshot: NewPostgresSnapshotRepository(aggregateDB),
		TradeLog: NewPostgresTradeLogRepository(timeseriesDB),
		Holding:  NewPostgresHoldingRepository(timeseriesDB),
	}, nil
}
