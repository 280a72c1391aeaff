// Package analytics derives report-ready facts from a backtest's daily
// value series and trade log. Everything here is pure: no I/O, no
// clocks, no stores.
package analytics

import (
	"time"

	"github.com/yourusername/backtest-pipeline/internal/models"
)

// PortfolioTotalKey is the value-map key carrying the whole-portfolio
// total for a day.
const PortfolioTotalKey = "PORTFOLIO"

// DailyPoint is one day's instrument values plus the portfolio total.
// Points must be ordered by date; callers re-sort before handing a
// series in, otherwise results are undefined.
type DailyPoint struct {
	Date   time.Time          `json:"date"`
	Values map[string]float64 `json:"values"`
}

// Total returns the whole-portfolio value for the day.
func (p DailyPoint) Total() float64 {
	return p.Values[PortfolioTotalKey]
}

// PeriodSummary is the basic first/last framing of the analyzed window.
type PeriodSummary struct {
	FirstDate     time.Time `json:"first_date"`
	LastDate      time.Time `json:"last_date"`
	FirstValue    float64   `json:"first_value"`
	LastValue     float64   `json:"last_value"`
	OverallReturn float64   `json:"overall_return"`
	DayCount      int       `json:"day_count"`
}

// Bundle is the full structured analysis handed to the narrative
// generator.
type Bundle struct {
	Period       PeriodSummary       `json:"period"`
	TrendChanges []TrendChange       `json:"trend_changes"`
	Consistency  Consistency         `json:"consistency"`
	Benchmark    BenchmarkComparison `json:"benchmark"`
	CashFlow     CashFlowSummary     `json:"cash_flow"`
}

// BuildBundle runs all four sub-analyses over the series and trade log.
func BuildBundle(points []DailyPoint, entries []models.TradeLogEntry, benchmark *models.BenchmarkMetrics) Bundle {
	return Bundle{
		Period:       summarizePeriod(points),
		TrendChanges: ExtractTrendChanges(points),
		Consistency:  AnalyzeConsistency(points),
		Benchmark:    CompareBenchmark(benchmark),
		CashFlow:     AggregateCashFlows(entries),
	}
}

func summarizePeriod(points []DailyPoint) PeriodSummary {
	summary := PeriodSummary{DayCount: len(points)}
	if len(points) == 0 {
		return summary
	}

	first, last := points[0], points[len(points)-1]
	summary.FirstDate = first.Date
	summary.LastDate = last.Date
	summary.FirstValue = first.Total()
	summary.LastValue = last.Total()
	if summary.FirstValue != 0 {
		summary.OverallReturn = (summary.LastValue - summary.FirstValue) / summary.FirstValue
	}
	return summary
}
