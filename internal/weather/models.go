package weather

import (
	"fmt"
	"time"
)

// Location represents a place for which we fetch weather.
// Name is display only; coordinates are in degrees.
type Location struct {
	Name      string  `json:"name" validate:"omitempty,max=128"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return fmt.Sprintf("%s:%.4f,%.4f", l.Name, l.Latitude, l.Longitude)
}

// Wind describes wind speed, optional gusts and compass bearing (0-359).
type Wind struct {
	Speed     float64  `json:"speed"`
	Gusts     *float64 `json:"gusts,omitempty"`
	Direction int      `json:"direction"`
}

// Clouds holds cloud coverage in percent.
type Clouds struct {
	Coverage float64 `json:"coverage"`
}

// Rain is an hourly precipitation amount in mm (or an hourly mm-equivalent).
type Rain struct {
	Hourly float64 `json:"hourly"`
}

// Temperature summarizes one observation. For instantaneous hourly data
// Min, Max and Average all carry the single reading.
type Temperature struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	FeelsLike float64 `json:"feelsLike"`
	Average   float64 `json:"average"`
}

// HourlyObservation is one point of a provider time series, normalized.
type HourlyObservation struct {
	Temperature Temperature          `json:"temperature"`
	Wind        Wind                 `json:"wind"`
	Clouds      Clouds               `json:"clouds"`
	Rain        *Rain                `json:"rain,omitempty"`
	Description ConditionDescription `json:"description"`
	Humidity    int                  `json:"humidityPercent"`
	Pressure    int                  `json:"pressureHpa"`
	Time        time.Time            `json:"time"` // always UTC
}

// ID identifies an observation within one location's series.
func (o HourlyObservation) ID() time.Time {
	return o.Time
}

// CurrentTemperature is the current reading and its feels-like value.
type CurrentTemperature struct {
	Current   float64 `json:"current"`
	FeelsLike float64 `json:"feelsLike"`
}

// CurrentConditions is the weather at a location right now.
type CurrentConditions struct {
	Temperature CurrentTemperature   `json:"temperature"`
	Wind        Wind                 `json:"wind"`
	Clouds      Clouds               `json:"clouds"`
	Rain        *Rain                `json:"rain,omitempty"`
	Description ConditionDescription `json:"description"`
	Humidity    int                  `json:"humidityPercent"`
	Pressure    int                  `json:"pressureHpa"`
	Location    Location             `json:"location"`
	Time        time.Time            `json:"time"` // always UTC
}

// CurrentFromObservation derives current conditions from a series point.
func CurrentFromObservation(loc Location, o HourlyObservation) CurrentConditions {
	return CurrentConditions{
		Temperature: CurrentTemperature{
			Current:   o.Temperature.Average,
			FeelsLike: o.Temperature.FeelsLike,
		},
		Wind:        o.Wind,
		Clouds:      o.Clouds,
		Rain:        o.Rain,
		Description: o.Description,
		Humidity:    o.Humidity,
		Pressure:    o.Pressure,
		Location:    loc,
		Time:        o.Time,
	}
}

// Report bundles one refresh of a location: current conditions plus the
// daily forecast and its summary.
type Report struct {
	ID        string            `json:"id"`
	Provider  string            `json:"provider"`
	Location  Location          `json:"location"`
	FetchedAt time.Time         `json:"fetchedAt"`
	Current   CurrentConditions `json:"current"`
	Daily     []DailyAggregate  `json:"daily"`
	Summary   ForecastSummary   `json:"summary"`
}
