// Package engine models the external simulation engine's completion
// callbacks and the job-id resolution that ties them back to backtests.
package engine

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/backtest-pipeline/internal/models"
)

// Date is a civil date as the engine reports it ("2006-01-02").
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// UnmarshalJSON accepts both plain dates and RFC3339 timestamps.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON renders the date in the engine's format.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

// CompletionSignal is the success-or-failure notification delivered
// after an engine run finishes. It is never persisted verbatim.
type CompletionSignal struct {
	JobID            string             `json:"jobId"`
	Success          bool               `json:"success"`
	Snapshot         SnapshotInput      `json:"resultSnapshot"`
	Metrics          MetricsInput       `json:"metrics"`
	BenchmarkMetrics *BenchmarkInput    `json:"benchmarkMetrics,omitempty"`
	ExecutionLogs    []TradeLogInput    `json:"executionLogs,omitempty"`
	DailyResults     []DailyResultInput `json:"dailyResultSummary,omitempty"`
	Error            *EngineError       `json:"error,omitempty"`
	ExecutionTime    float64            `json:"executionTime"`
	Timestamp        time.Time          `json:"timestamp"`
}

// SnapshotInput carries the aggregate figures of one run. StartAt and
// EndAt arrive as RFC3339 strings and are parsed at the persistence
// boundary.
type SnapshotInput struct {
	BaseValue            float64 `json:"baseValue"`
	CurrentValue         float64 `json:"currentValue"`
	StartAt              string  `json:"startAt"`
	EndAt                string  `json:"endAt"`
	ExecutionTimeSeconds float64 `json:"executionTimeSeconds"`
}

// MetricsInput carries the engine's performance figures.
type MetricsInput struct {
	TotalReturn        float64 `json:"totalReturn"`
	AnnualizedReturn   float64 `json:"annualizedReturn"`
	MaxDrawdown        float64 `json:"maxDrawdown"`
	SharpeRatio        float64 `json:"sharpeRatio"`
	Volatility         float64 `json:"volatility"`
	WinRate            float64 `json:"winRate"`
	ProfitFactor       float64 `json:"profitFactor"`
	TotalTrades        float64 `json:"totalTrades"`
	AverageDailyReturn float64 `json:"averageDailyReturn"`
	BestDayReturn      float64 `json:"bestDayReturn"`
}

// BenchmarkInput carries the optional benchmark figures.
type BenchmarkInput struct {
	TotalReturn    float64 `json:"totalReturn"`
	Volatility     float64 `json:"volatility"`
	PeriodMaxPrice float64 `json:"periodMaxPrice"`
	PeriodMinPrice float64 `json:"periodMinPrice"`
	Alpha          float64 `json:"alpha"`
	DailyAverage   float64 `json:"dailyAverage"`
}

// ToMetricsRecord builds the typed, versioned metrics record persisted
// on the result snapshot.
func (m MetricsInput) ToMetricsRecord(benchmark *BenchmarkInput) models.PerformanceMetrics {
	record := models.PerformanceMetrics{
		SchemaVersion:      models.MetricsSchemaVersion,
		TotalReturn:        m.TotalReturn,
		AnnualizedReturn:   m.AnnualizedReturn,
		MaxDrawdown:        m.MaxDrawdown,
		SharpeRatio:        m.SharpeRatio,
		Volatility:         m.Volatility,
		WinRate:            m.WinRate,
		ProfitFactor:       m.ProfitFactor,
		TotalTrades:        m.TotalTrades,
		AverageDailyReturn: m.AverageDailyReturn,
		BestDayReturn:      m.BestDayReturn,
	}
	if benchmark != nil {
		record.Benchmark = &models.BenchmarkMetrics{
			TotalReturn:    benchmark.TotalReturn,
			Volatility:     benchmark.Volatility,
			PeriodMaxPrice: benchmark.PeriodMaxPrice,
			PeriodMinPrice: benchmark.PeriodMinPrice,
			Alpha:          benchmark.Alpha,
			DailyAverage:   benchmark.DailyAverage,
		}
	}
	return record
}

// TradeLogInput is one execution-log event as reported by the engine.
// Optional fields arrive as pointers; missing numerics persist as 0.
type TradeLogInput struct {
	Date           *time.Time       `json:"date,omitempty"`
	Action         string           `json:"action"`
	Category       string           `json:"category"`
	TriggerValue   *float64         `json:"triggerValue,omitempty"`
	ThresholdValue *float64         `json:"thresholdValue,omitempty"`
	Reason         string           `json:"reason"`
	PortfolioValue *float64         `json:"portfolioValue,omitempty"`
	SoldStocks     json.RawMessage  `json:"soldStocks,omitempty"`
	CashGenerated  *decimal.Decimal `json:"cashGenerated,omitempty"`
	CreatedAt      *time.Time       `json:"createdAt,omitempty"`
}

// DailyResultInput is one day's per-instrument figures plus portfolio
// totals.
type DailyResultInput struct {
	Date           Date               `json:"date"`
	PerInstrument  []InstrumentFigure `json:"perInstrument"`
	PortfolioValue *float64           `json:"portfolioValue,omitempty"`
	StockValue     *float64           `json:"stockValue,omitempty"`
	CashBalance    *float64           `json:"cashBalance,omitempty"`
	Quantities     map[string]float64 `json:"quantities,omitempty"`
}

// InstrumentFigure is one instrument's figures on one day.
type InstrumentFigure struct {
	Code         string   `json:"code"`
	ClosePrice   *float64 `json:"closePrice,omitempty"`
	Quantity     *float64 `json:"quantity,omitempty"`
	Value        *float64 `json:"value,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	Contribution *float64 `json:"contribution,omitempty"`
	DailyReturn  *float64 `json:"dailyReturn,omitempty"`
}

// EngineError is the structured failure description of an unsuccessful
// run.
type EngineError struct {
	ErrorType          string         `json:"errorType"`
	Message            string         `json:"message"`
	MissingData        []MissingRange `json:"missingData,omitempty"`
	RequestedPeriod    string         `json:"requestedPeriod"`
	TotalStocks        int            `json:"totalStocks"`
	MissingStocksCount int            `json:"missingStocksCount"`
}

// MissingRange identifies a gap in the engine's market data.
type MissingRange struct {
	Code  string `json:"code,omitempty"`
	Start Date   `json:"start"`
	End   Date   `json:"end"`
}
