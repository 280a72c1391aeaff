package analytics

import "math"

// Classification thresholds for the consistency analysis.
const (
	consistentStdevMax = 0.02
	consistentMeanMin  = 0.005
	flatStdevMax       = 0.005
)

// Consistency labels applied by AnalyzeConsistency.
const (
	LabelInsufficientData  = "insufficient data"
	LabelSustainedUptrend  = "sustained uptrend"
	LabelSustainedDowntrend = "sustained downtrend"
	LabelSideways          = "sideways / flat"
	LabelChoppy            = "choppy/volatile"
)

// Consistency is the statistical classification of the daily-return
// series. Mean and stdev are carried as daily percentages.
type Consistency struct {
	Sufficient   bool    `json:"sufficient"`
	IsConsistent bool    `json:"is_consistent"`
	Label        string  `json:"label"`
	MeanDailyPct float64 `json:"mean_daily_pct"`
	StdevDailyPct float64 `json:"stdev_daily_pct"`
	ReturnDays   int     `json:"return_days"`
}

// AnalyzeConsistency classifies the series as sustained, flat, or
// choppy from the population statistics of its daily returns. Fewer
// than two points is insufficient data, never a trend.
func AnalyzeConsistency(points []DailyPoint) Consistency {
	if len(points) < 2 {
		return Consistency{Label: LabelInsufficientData}
	}

	returns := make([]float64, 0, len(points)-1)
	prev := points[0].Total()
	for i := 1; i < len(points); i++ {
		value := points[i].Total()
		if prev != 0 {
			returns = append(returns, (value-prev)/prev)
		}
		prev = value
	}
	if len(returns) == 0 {
		return Consistency{Label: LabelInsufficientData}
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	stdev := math.Sqrt(variance)

	result := Consistency{
		Sufficient:    true,
		MeanDailyPct:  mean * 100,
		StdevDailyPct: stdev * 100,
		ReturnDays:    len(returns),
	}

	switch {
	case stdev < consistentStdevMax && math.Abs(mean) > consistentMeanMin:
		result.IsConsistent = true
		if mean > 0 {
			result.Label = LabelSustainedUptrend
		} else {
			result.Label = LabelSustainedDowntrend
		}
	case stdev < flatStdevMax:
		result.Label = LabelSideways
	default:
		result.Label = LabelChoppy
	}

	return result
}
