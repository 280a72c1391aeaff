package models

// MetricsSchemaVersion is bumped whenever the shape of the persisted
// metrics blob changes.
const MetricsSchemaVersion = 1

// PerformanceMetrics is the typed, versioned metrics record built from
// the engine callback and serialized once at the persistence boundary.
type PerformanceMetrics struct {
	SchemaVersion      int               `json:"schema_version"`
	TotalReturn        float64           `json:"total_return"`
	AnnualizedReturn   float64           `json:"annualized_return"`
	MaxDrawdown        float64           `json:"max_drawdown"`
	SharpeRatio        float64           `json:"sharpe_ratio"`
	Volatility         float64           `json:"volatility"`
	WinRate            float64           `json:"win_rate"`
	ProfitFactor       float64           `json:"profit_factor"`
	TotalTrades        float64           `json:"total_trades"`
	AverageDailyReturn float64           `json:"average_daily_return"`
	BestDayReturn      float64           `json:"best_day_return"`
	Benchmark          *BenchmarkMetrics `json:"benchmark,omitempty"`
}

// BenchmarkMetrics is the optional benchmark sub-record. All fields are
// percentages except the period prices.
type BenchmarkMetrics struct {
	TotalReturn    float64 `json:"total_return"`
	Volatility     float64 `json:"volatility"`
	PeriodMaxPrice float64 `json:"period_max_price"`
	PeriodMinPrice float64 `json:"period_min_price"`
	Alpha          float64 `json:"alpha"`
	DailyAverage   float64 `json:"daily_average"`
}
