package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/backtest-pipeline/internal/models"
)

func tradeEntry(action models.TradeAction, at time.Time, cash float64) models.TradeLogEntry {
	return models.TradeLogEntry{
		EventAt:       at,
		Action:        action,
		CashGenerated: decimal.NewFromFloat(cash),
	}
}

func TestAggregateCashFlowsSellingTotals(t *testing.T) {
	at := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	entries := []models.TradeLogEntry{
		tradeEntry(models.ActionSell, at, 100),
		tradeEntry(models.ActionStopLoss, at.AddDate(0, 0, 1), 50),
		tradeEntry(models.ActionTakeProfit, at.AddDate(0, 0, 2), 0),
	}

	summary := AggregateCashFlows(entries)

	assert.Equal(t, 3, summary.SellingEventCount)
	assert.True(t, summary.TotalCashGenerated.Equal(decimal.NewFromInt(150)))
	assert.True(t, summary.AverageCashGenerated.Equal(decimal.NewFromInt(50)))

	require.NotNil(t, summary.LargestEvent)
	assert.Equal(t, models.ActionSell, summary.LargestEvent.Action)
	assert.True(t, summary.LargestEvent.CashGenerated.Equal(decimal.NewFromInt(100)))
}

func TestAggregateCashFlowsTieKeepsFirst(t *testing.T) {
	first := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	second := first.AddDate(0, 0, 7)
	entries := []models.TradeLogEntry{
		tradeEntry(models.ActionSell, first, 75),
		tradeEntry(models.ActionStopLoss, second, 75),
	}

	summary := AggregateCashFlows(entries)
	require.NotNil(t, summary.LargestEvent)
	assert.Equal(t, first, summary.LargestEvent.EventAt)
	assert.Equal(t, models.ActionSell, summary.LargestEvent.Action)
}

func TestAggregateCashFlowsBuysExcludedFromSellingTotals(t *testing.T) {
	at := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	entries := []models.TradeLogEntry{
		tradeEntry(models.ActionBuy, at, 500),
		tradeEntry(models.ActionRebalance, at, 20),
		tradeEntry(models.ActionSell, at, 30),
	}

	summary := AggregateCashFlows(entries)

	assert.Equal(t, 1, summary.SellingEventCount)
	assert.True(t, summary.TotalCashGenerated.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, 1, summary.CountsByAction[models.ActionBuy])
	assert.Equal(t, 1, summary.CountsByAction[models.ActionRebalance])
	assert.Equal(t, 1, summary.CountsByAction[models.ActionSell])
}

func TestAggregateCashFlowsMonthlyBuckets(t *testing.T) {
	// Month buckets sum positive cash across all actions, not just
	// selling-like ones.
	entries := []models.TradeLogEntry{
		tradeEntry(models.ActionSell, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 40),
		tradeEntry(models.ActionBuy, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), 10),
		tradeEntry(models.ActionSell, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), 25),
		tradeEntry(models.ActionSell, time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC), -5),
	}

	summary := AggregateCashFlows(entries)

	assert.Equal(t, []string{"2024-01", "2024-03"}, summary.MonthKeys)
	assert.True(t, summary.MonthlyCash["2024-01"].Equal(decimal.NewFromInt(50)))
	assert.True(t, summary.MonthlyCash["2024-03"].Equal(decimal.NewFromInt(25)))
	_, hasFebruary := summary.MonthlyCash["2024-02"]
	assert.False(t, hasFebruary)
}

func TestAggregateCashFlowsEmpty(t *testing.T) {
	summary := AggregateCashFlows(nil)

	assert.Equal(t, 0, summary.SellingEventCount)
	assert.True(t, summary.TotalCashGenerated.IsZero())
	assert.True(t, summary.AverageCashGenerated.IsZero())
	assert.Nil(t, summary.LargestEvent)
	assert.Empty(t, summary.MonthKeys)
}

func TestBuildBundlePeriodSummary(t *testing.T) {
	points := series(100, 102, 104, 101, 99, 97)

	bundle := BuildBundle(points, nil, nil)

	assert.Equal(t, 6, bundle.Period.DayCount)
	assert.Equal(t, day(0), bundle.Period.FirstDate)
	assert.Equal(t, day(5), bundle.Period.LastDate)
	assert.InDelta(t, -0.03, bundle.Period.OverallReturn, 1e-9)
	assert.Len(t, bundle.TrendChanges, 1)
	assert.Equal(t, InterpretationNoData, bundle.Benchmark.Interpretation)
}
