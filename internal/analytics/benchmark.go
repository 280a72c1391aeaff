package analytics

import "github.com/yourusername/backtest-pipeline/internal/models"

// Benchmark interpretation strings.
const (
	InterpretationOutperformed   = "portfolio outperformed benchmark"
	InterpretationUnderperformed = "portfolio underperformed benchmark"
	InterpretationSimilar        = "performance similar to benchmark"
	InterpretationNoData         = "no benchmark data"
)

// BenchmarkComparison carries the benchmark figures together with the
// alpha interpretation. A missing benchmark yields an explicit no-data
// marker rather than silence.
type BenchmarkComparison struct {
	HasData        bool    `json:"has_data"`
	Interpretation string  `json:"interpretation"`
	TotalReturn    float64 `json:"total_return,omitempty"`
	Volatility     float64 `json:"volatility,omitempty"`
	PeriodMaxPrice float64 `json:"period_max_price,omitempty"`
	PeriodMinPrice float64 `json:"period_min_price,omitempty"`
	Alpha          float64 `json:"alpha,omitempty"`
	DailyAverage   float64 `json:"daily_average,omitempty"`
}

// CompareBenchmark interprets the portfolio's alpha against the
// benchmark sub-record.
func CompareBenchmark(b *models.BenchmarkMetrics) BenchmarkComparison {
	if b == nil {
		return BenchmarkComparison{Interpretation: InterpretationNoData}
	}

	comparison := BenchmarkComparison{
		HasData:        true,
		TotalReturn:    b.TotalReturn,
		Volatility:     b.Volatility,
		PeriodMaxPrice: b.PeriodMaxPrice,
		PeriodMinPrice: b.PeriodMinPrice,
		Alpha:          b.Alpha,
		DailyAverage:   b.DailyAverage,
	}

	switch {
	case b.Alpha > 0:
		comparison.Interpretation = InterpretationOutperformed
	case b.Alpha < 0:
		comparison.Interpretation = InterpretationUnderperformed
	default:
		comparison.Interpretation = InterpretationSimilar
	}
	return comparison
}
