package weather

import (
	"math"
	"time"
)

// DaySummary condenses one DailyAggregate for list views.
// RangeStart and RangeEnd place the day's min and max inside the overall
// forecast range, both in [0,1].
type DaySummary struct {
	Date       time.Time            `json:"date"`
	Min        float64              `json:"min"`
	Max        float64              `json:"max"`
	Condition  ConditionDescription `json:"condition"`
	RangeStart float64              `json:"rangeStart"`
	RangeEnd   float64              `json:"rangeEnd"`
}

// ForecastSummary holds the overall temperature range of a forecast.
type ForecastSummary struct {
	Min  float64      `json:"min"`
	Max  float64      `json:"max"`
	Days []DaySummary `json:"days"`
}

// Summarize computes the overall range of days and each day's position in it.
func Summarize(days []DailyAggregate) ForecastSummary {
	if len(days) == 0 {
		return ForecastSummary{Days: []DaySummary{}}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, d := range days {
		lo = math.Min(lo, d.MinTemperature())
		hi = math.Max(hi, d.MaxTemperature())
	}
	span := hi - lo

	out := ForecastSummary{
		Min:  lo,
		Max:  hi,
		Days: make([]DaySummary, 0, len(days)),
	}
	for _, d := range days {
		s := DaySummary{
			Date:      d.Date(),
			Min:       d.MinTemperature(),
			Max:       d.MaxTemperature(),
			Condition: d.Representative().Description,
			RangeEnd:  1,
		}
		if span > 0 {
			s.RangeStart = (s.Min - lo) / span
			s.RangeEnd = (s.Max - lo) / span
		}
		out.Days = append(out.Days, s)
	}
	return out
}
