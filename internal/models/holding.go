package models

import (
	"time"

	"github.com/google/uuid"
)

// HoldingKind discriminates per-instrument rows from the one
// whole-portfolio aggregate row emitted for each day.
type HoldingKind string

const (
	HoldingInstrument         HoldingKind = "INSTRUMENT"
	HoldingPortfolioAggregate HoldingKind = "PORTFOLIO_AGGREGATE"
)

// PortfolioCode is the reserved instrument code carried by aggregate
// rows so downstream consumers can key on it.
const PortfolioCode = "PORTFOLIO"

// HoldingRecord is one per-day holding row, persisted in bulk during
// phase 2 and immutable thereafter.
//
// Instrument rows populate Price/Quantity/MarketValue/Weight/
// Contribution/DailyReturn. Aggregate rows carry the day's totals in
// explicit columns (MarketValue = total portfolio value, StockValue =
// non-cash value, CashBalance = cash balance) instead of repurposing
// the instrument columns.
type HoldingRecord struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	SnapshotID   uuid.UUID   `db:"snapshot_id" json:"snapshot_id"`
	Kind         HoldingKind `db:"kind" json:"kind"`
	AsOf         time.Time   `db:"as_of" json:"as_of"`
	Code         string      `db:"code" json:"code"`
	Price        float64     `db:"price" json:"price"`
	Quantity     float64     `db:"quantity" json:"quantity"`
	MarketValue  float64     `db:"market_value" json:"market_value"`
	Weight       float64     `db:"weight" json:"weight"`
	Contribution float64     `db:"contribution" json:"contribution"`
	DailyReturn  float64     `db:"daily_return" json:"daily_return"`
	StockValue   float64     `db:"stock_value" json:"stock_value"`
	CashBalance  float64     `db:"cash_balance" json:"cash_balance"`
}
