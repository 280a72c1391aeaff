package analytics

import (
	"math"
	"time"
)

// DirectionalThreshold is the absolute daily return above which a day
// counts as directional.
const DirectionalThreshold = 0.01

// TrendDirection labels a daily-return regime.
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
)

// TrendChange records one detected direction flip: the segment that was
// just closed plus the direction the series flipped into.
type TrendChange struct {
	EndDate           time.Time      `json:"end_date"`
	NewDirection      TrendDirection `json:"new_direction"`
	DurationDays      int            `json:"duration_days"`
	SegmentStartDate  time.Time      `json:"segment_start_date"`
	SegmentStartValue float64        `json:"segment_start_value"`
	SegmentEndValue   float64        `json:"segment_end_value"`
	SegmentReturn     float64        `json:"segment_return"`
}

// ExtractTrendChanges walks the daily series and emits a change-point
// for every direction flip. Day 0 only seeds the series. A segment
// opens on the first directional day (silently, anchored at the
// previous day) and closes when a directional day disagrees with the
// open segment's label; non-directional days extend the open segment.
func ExtractTrendChanges(points []DailyPoint) []TrendChange {
	changes := []TrendChange{}
	if len(points) < 2 {
		return changes
	}

	var (
		current    TrendDirection
		open       bool
		startDate  time.Time
		startValue float64
		dayCount   int
	)

	prev := points[0].Total()
	for i := 1; i < len(points); i++ {
		value := points[i].Total()
		if prev == 0 {
			prev = value
			continue
		}
		r := (value - prev) / prev

		directional := math.Abs(r) > DirectionalThreshold
		direction := TrendDown
		if r > 0 {
			direction = TrendUp
		}

		switch {
		case directional && open && direction != current:
			change := TrendChange{
				EndDate:           points[i].Date,
				NewDirection:      direction,
				DurationDays:      dayCount,
				SegmentStartDate:  startDate,
				SegmentStartValue: startValue,
				SegmentEndValue:   value,
			}
			if startValue != 0 {
				change.SegmentReturn = (value - startValue) / startValue
			}
			changes = append(changes, change)

			current = direction
			startDate = points[i-1].Date
			startValue = prev
			dayCount = 1

		case directional && !open:
			// First directional day opens silently; the segment is
			// anchored at the previous day, where the move began.
			open = true
			current = direction
			startDate = points[i-1].Date
			startValue = prev
			dayCount = 1

		case open:
			dayCount++
		}

		prev = value
	}

	return changes
}
