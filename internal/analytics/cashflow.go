package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/backtest-pipeline/internal/models"
)

// LargestCashEvent identifies the single largest cash-generating
// selling-like event. Ties keep the first occurrence.
type LargestCashEvent struct {
	EventAt       time.Time          `json:"event_at"`
	Action        models.TradeAction `json:"action"`
	CashGenerated decimal.Decimal    `json:"cash_generated"`
	Reason        string             `json:"reason,omitempty"`
}

// CashFlowSummary aggregates the trade log's cash movements.
type CashFlowSummary struct {
	SellingEventCount    int                        `json:"selling_event_count"`
	CountsByAction       map[models.TradeAction]int `json:"counts_by_action"`
	TotalCashGenerated   decimal.Decimal            `json:"total_cash_generated"`
	AverageCashGenerated decimal.Decimal            `json:"average_cash_generated"`
	LargestEvent         *LargestCashEvent          `json:"largest_event,omitempty"`
	MonthlyCash          map[string]decimal.Decimal `json:"monthly_cash"`
	MonthKeys            []string                   `json:"month_keys"`
}

// AggregateCashFlows computes per-action counts, selling-like cash
// totals, the largest selling-like event, and a year-month bucketed sum
// of positive cash across all events.
func AggregateCashFlows(entries []models.TradeLogEntry) CashFlowSummary {
	summary := CashFlowSummary{
		CountsByAction:       make(map[models.TradeAction]int),
		TotalCashGenerated:   decimal.Zero,
		AverageCashGenerated: decimal.Zero,
		MonthlyCash:          make(map[string]decimal.Decimal),
		MonthKeys:            []string{},
	}

	for _, e := range entries {
		summary.CountsByAction[e.Action]++
		cash := e.CashGenerated

		if e.Action.IsSellingLike() {
			summary.SellingEventCount++
			summary.TotalCashGenerated = summary.TotalCashGenerated.Add(cash)

			if summary.LargestEvent == nil || cash.GreaterThan(summary.LargestEvent.CashGenerated) {
				summary.LargestEvent = &LargestCashEvent{
					EventAt:       e.EventAt,
					Action:        e.Action,
					CashGenerated: cash,
					Reason:        e.Reason,
				}
			}
		}

		if cash.IsPositive() {
			key := e.EventAt.Format("2006-01")
			if _, seen := summary.MonthlyCash[key]; !seen {
				summary.MonthKeys = append(summary.MonthKeys, key)
			}
			summary.MonthlyCash[key] = summary.MonthlyCash[key].Add(cash)
		}
	}

	if summary.SellingEventCount > 0 {
		summary.AverageCashGenerated = summary.TotalCashGenerated.
			Div(decimal.NewFromInt(int64(summary.SellingEventCount)))
	}

	sort.Strings(summary.MonthKeys)
	return summary
}
