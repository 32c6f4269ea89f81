package weather

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/i474232898/weather-forecast/internal/common"
)

// DailyAggregate is one UTC calendar day of observations, in chronological
// order. It is never empty; build it with NewDailyAggregate or GroupByDay.
type DailyAggregate struct {
	date         time.Time
	observations []HourlyObservation
}

// NewDailyAggregate validates that observations is non-empty and that every
// observation falls on date's UTC calendar day.
func NewDailyAggregate(date time.Time, observations []HourlyObservation) (DailyAggregate, error) {
	if len(observations) == 0 {
		return DailyAggregate{}, ErrEmptyDay
	}

	day := common.UTCDay(date)
	for _, o := range observations {
		if !common.UTCDay(o.Time).Equal(day) {
			return DailyAggregate{}, fmt.Errorf("%w: %s not on %s",
				ErrDayMismatch, o.Time.UTC().Format(time.RFC3339), day.Format("2006-01-02"))
		}
	}

	obs := make([]HourlyObservation, len(observations))
	copy(obs, observations)

	return DailyAggregate{date: day, observations: obs}, nil
}

// Date is midnight UTC of the aggregate's day.
func (d DailyAggregate) Date() time.Time {
	return d.date
}

// Observations returns a copy of the day's observations.
func (d DailyAggregate) Observations() []HourlyObservation {
	out := make([]HourlyObservation, len(d.observations))
	copy(out, d.observations)
	return out
}

// Len returns the number of observations in the day.
func (d DailyAggregate) Len() int {
	return len(d.observations)
}

// MinTemperature is the lowest Temperature.Min of the day.
func (d DailyAggregate) MinTemperature() float64 {
	lo := math.Inf(1)
	for _, o := range d.observations {
		lo = math.Min(lo, o.Temperature.Min)
	}
	return lo
}

// MaxTemperature is the highest Temperature.Max of the day.
func (d DailyAggregate) MaxTemperature() float64 {
	hi := math.Inf(-1)
	for _, o := range d.observations {
		hi = math.Max(hi, o.Temperature.Max)
	}
	return hi
}

// Representative is the chronological middle observation, used to pick one
// icon and description for the whole day.
func (d DailyAggregate) Representative() HourlyObservation {
	o, _ := common.Middle(d.observations)
	return o
}

// IsToday reports whether now falls on the aggregate's UTC day.
func (d DailyAggregate) IsToday(now time.Time) bool {
	return common.UTCDay(now).Equal(d.date)
}

// Before orders aggregates by date.
func (d DailyAggregate) Before(other DailyAggregate) bool {
	return d.date.Before(other.date)
}

type dailyAggregateJSON struct {
	Date           time.Time           `json:"date"`
	MinTemperature float64             `json:"minTemperature"`
	MaxTemperature float64             `json:"maxTemperature"`
	Representative HourlyObservation   `json:"representative"`
	Observations   []HourlyObservation `json:"observations"`
}

func (d DailyAggregate) MarshalJSON() ([]byte, error) {
	if len(d.observations) == 0 {
		return nil, ErrEmptyDay
	}
	return json.Marshal(dailyAggregateJSON{
		Date:           d.date,
		MinTemperature: d.MinTemperature(),
		MaxTemperature: d.MaxTemperature(),
		Representative: d.Representative(),
		Observations:   d.observations,
	})
}

// GroupByDay buckets observations by UTC calendar day. Input order is kept
// within each day and the result is sorted ascending by date.
func GroupByDay(observations []HourlyObservation) []DailyAggregate {
	byDay := make(map[time.Time][]HourlyObservation)
	for _, o := range observations {
		day := common.UTCDay(o.Time)
		byDay[day] = append(byDay[day], o)
	}

	days := make([]DailyAggregate, 0, len(byDay))
	for day, obs := range byDay {
		// obs is non-empty and shares day by construction.
		days = append(days, DailyAggregate{date: day, observations: obs})
	}

	SortDays(days)
	return days
}

// SortDays sorts aggregates ascending by date.
func SortDays(days []DailyAggregate) {
	sort.Slice(days, func(i, j int) bool {
		return days[i].Before(days[j])
	})
}
