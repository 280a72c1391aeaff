package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeAction is the closed set of actions the engine reports in its
// execution log.
type TradeAction string

const (
	ActionBuy         TradeAction = "BUY"
	ActionSell        TradeAction = "SELL"
	ActionStopLoss    TradeAction = "STOP_LOSS"
	ActionTakeProfit  TradeAction = "TAKE_PROFIT"
	ActionRebalance   TradeAction = "REBALANCE"
	ActionLiquidation TradeAction = "LIQUIDATION"
)

// ParseTradeAction maps an engine-reported action string onto the
// TradeAction enumeration. Unknown actions are an error, never a
// silent default: a bad action aborts the whole trade-log batch.
func ParseTradeAction(s string) (TradeAction, error) {
	switch TradeAction(s) {
	case ActionBuy, ActionSell, ActionStopLoss, ActionTakeProfit, ActionRebalance, ActionLiquidation:
		return TradeAction(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

// IsSellingLike reports whether the action releases cash from the
// portfolio (SELL, STOP_LOSS, TAKE_PROFIT).
func (a TradeAction) IsSellingLike() bool {
	switch a {
	case ActionSell, ActionStopLoss, ActionTakeProfit:
		return true
	default:
		return false
	}
}

// TradeLogEntry is one event from the engine's execution log, persisted
// in bulk during phase 2 and immutable thereafter.
type TradeLogEntry struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	SnapshotID     uuid.UUID       `db:"snapshot_id" json:"snapshot_id"`
	EventAt        time.Time       `db:"event_at" json:"event_at"`
	Action         TradeAction     `db:"action" json:"action"`
	Category       string          `db:"category" json:"category"`
	TriggerValue   float64         `db:"trigger_value" json:"trigger_value"`
	ThresholdValue float64         `db:"threshold_value" json:"threshold_value"`
	Reason         string          `db:"reason" json:"reason"`
	PortfolioValue float64         `db:"portfolio_value" json:"portfolio_value"`
	SoldStocks     json.RawMessage `db:"sold_stocks" json:"sold_stocks,omitempty"`
	CashGenerated  decimal.Decimal `db:"cash_generated" json:"cash_generated"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
