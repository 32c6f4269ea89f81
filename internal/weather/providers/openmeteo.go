package providers

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-forecast/internal/weather"
)

const openMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

// openMeteoHourlyMetrics is the fixed list of hourly series we request.
var openMeteoHourlyMetrics = []string{
	"temperature_2m",
	"relativehumidity_2m",
	"apparent_temperature",
	"pressure_msl",
	"cloudcover",
	"windspeed_10m",
	"winddirection_10m",
	"windgusts_10m",
	"precipitation",
	"weathercode",
}

// openMeteoConditions maps WMO weather interpretation codes.
var openMeteoConditions = weather.NewConditionTable(map[int]weather.ConditionDescription{
	0:  {Code: weather.ConditionClear, Text: "Clear sky"},
	1:  {Code: weather.ConditionScatteredClouds, Text: "Mainly clear sky"},
	2:  {Code: weather.ConditionPartlyCloudy, Text: "Partly cloudy"},
	3:  {Code: weather.ConditionBrokenClouds, Text: "Overcast"},
	45: {Code: weather.ConditionMist, Text: "Fog"},
	48: {Code: weather.ConditionMist, Text: "Fog"},
	51: {Code: weather.ConditionMist, Text: "Drizzle"},
	53: {Code: weather.ConditionMist, Text: "Drizzle"},
	55: {Code: weather.ConditionMist, Text: "Drizzle"},
	56: {Code: weather.ConditionMist, Text: "Freezing drizzle"},
	57: {Code: weather.ConditionMist, Text: "Freezing drizzle"},
	61: {Code: weather.ConditionRain, Text: "Rain"},
	63: {Code: weather.ConditionRain, Text: "Rain"},
	65: {Code: weather.ConditionRain, Text: "Rain"},
	66: {Code: weather.ConditionRain, Text: "Freezing rain"},
	67: {Code: weather.ConditionRain, Text: "Freezing rain"},
	71: {Code: weather.ConditionSnow, Text: "Snow"},
	73: {Code: weather.ConditionSnow, Text: "Snow"},
	75: {Code: weather.ConditionSnow, Text: "Snow"},
	77: {Code: weather.ConditionSnow, Text: "Snow"},
	80: {Code: weather.ConditionShowers, Text: "Rain showers"},
	81: {Code: weather.ConditionShowers, Text: "Rain showers"},
	82: {Code: weather.ConditionShowers, Text: "Rain showers"},
	85: {Code: weather.ConditionSnow, Text: "Snow showers"},
	86: {Code: weather.ConditionSnow, Text: "Snow showers"},
	95: {Code: weather.ConditionThunderstorm, Text: "Thunderstorm"},
	96: {Code: weather.ConditionThunderstorm, Text: "Thunderstorm"},
	99: {Code: weather.ConditionThunderstorm, Text: "Thunderstorm"},
})

// OpenMeteoResponse mirrors the parts of the Open-Meteo forecast payload we use.
// Series elements are pointers because the API sends null for gaps.
type OpenMeteoResponse struct {
	Hourly         OpenMeteoHourly          `json:"hourly"`
	CurrentWeather *OpenMeteoCurrentWeather `json:"current_weather"`
}

type OpenMeteoCurrentWeather struct {
	Time        int64    `json:"time"`
	Temperature *float64 `json:"temperature"`
	WeatherCode *int     `json:"weathercode"`
}

type OpenMeteoHourly struct {
	Time                []*int64   `json:"time"`
	Temperature         []*float64 `json:"temperature_2m"`
	RelativeHumidity    []*float64 `json:"relativehumidity_2m"`
	ApparentTemperature []*float64 `json:"apparent_temperature"`
	Pressure            []*float64 `json:"pressure_msl"`
	CloudCover          []*float64 `json:"cloudcover"`
	WindSpeed           []*float64 `json:"windspeed_10m"`
	WindDirection       []*float64 `json:"winddirection_10m"`
	WindGusts           []*float64 `json:"windgusts_10m"`
	Precipitation       []*float64 `json:"precipitation"`
	WeatherCode         []*int     `json:"weathercode"`
}

// OpenMeteoProvider implements weather.Source for Open-Meteo's hourly feed.
//
// The feed carries one instantaneous temperature per hour, so every
// observation has Min = Max = Average = temperature_2m. Current conditions
// are the hourly point matching current_weather.time.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	fetcher weather.Fetcher
	logger  *zap.Logger
}

var _ weather.Source = (*OpenMeteoProvider)(nil)

func NewOpenMeteoProvider(fetcher weather.Fetcher, baseURL string, logger *zap.Logger) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = openMeteoBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenMeteoProvider{
		name:    NameOpenMeteo,
		baseURL: baseURL,
		fetcher: fetcher,
		logger:  logger.Named(NameOpenMeteo),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// RequestURL builds the hourly+current forecast URL for loc.
func (p *OpenMeteoProvider) RequestURL(loc weather.Location) (string, error) {
	values := url.Values{}
	values.Set("hourly", strings.Join(openMeteoHourlyMetrics, ","))
	values.Set("current_weather", "true")
	values.Set("timezone", "UTC")
	values.Set("timeformat", "unixtime")

	u, err := buildURL(p.baseURL, "", loc, values, "latitude", "longitude")
	if err != nil {
		return "", &weather.RequestConstructionError{Provider: p.name, Err: err}
	}
	return u, nil
}

func (p *OpenMeteoProvider) DailyForecast(ctx context.Context, loc weather.Location) ([]weather.DailyAggregate, error) {
	_, observations, err := p.fetchSeries(ctx, loc)
	if err != nil {
		return nil, err
	}
	return weather.GroupByDay(observations), nil
}

func (p *OpenMeteoProvider) CurrentConditions(ctx context.Context, loc weather.Location) (weather.CurrentConditions, error) {
	payload, observations, err := p.fetchSeries(ctx, loc)
	if err != nil {
		return weather.CurrentConditions{}, err
	}
	if payload.CurrentWeather == nil {
		return weather.CurrentConditions{}, &weather.NetworkError{
			Provider: p.name,
			Err:      fmt.Errorf("%w: current_weather", weather.ErrMissingField),
		}
	}

	now := time.Unix(payload.CurrentWeather.Time, 0).UTC()
	for _, o := range observations {
		if o.Time.Equal(now) {
			return weather.CurrentFromObservation(loc, o), nil
		}
	}
	return weather.CurrentConditions{}, fmt.Errorf("%s at %s: %w",
		p.name, now.Format(time.RFC3339), weather.ErrNoCurrentObservation)
}

func (p *OpenMeteoProvider) fetchSeries(ctx context.Context, loc weather.Location) (OpenMeteoResponse, []weather.HourlyObservation, error) {
	u, err := p.RequestURL(loc)
	if err != nil {
		return OpenMeteoResponse{}, nil, err
	}

	body, err := p.fetcher.Fetch(ctx, u)
	if err != nil {
		return OpenMeteoResponse{}, nil, &weather.NetworkError{Provider: p.name, Err: err}
	}

	var payload OpenMeteoResponse
	if err := decodeJSON(body, &payload); err != nil {
		return OpenMeteoResponse{}, nil, &weather.NetworkError{Provider: p.name, Err: err}
	}

	observations, dropped := payload.Hourly.observations()
	if dropped > 0 {
		p.logger.Debug("dropped hourly points without temperature",
			zap.String("location", loc.Key()),
			zap.Int("dropped", dropped),
			zap.Int("kept", len(observations)))
	}
	return payload, observations, nil
}

// observations maps every point with a time and a temperature. Missing
// optional values leave their field empty; dropped counts skipped points.
func (h OpenMeteoHourly) observations() (out []weather.HourlyObservation, dropped int) {
	out = make([]weather.HourlyObservation, 0, len(h.Time))
	for i, ts := range h.Time {
		temp := at(h.Temperature, i)
		if ts == nil || temp == nil {
			dropped++
			continue
		}

		feelsLike := *temp
		if v := at(h.ApparentTemperature, i); v != nil {
			feelsLike = *v
		}

		var rain *weather.Rain
		if v := at(h.Precipitation, i); v != nil && *v > 0 {
			rain = &weather.Rain{Hourly: *v}
		}

		code, hasCode := 0, false
		if v := at(h.WeatherCode, i); v != nil {
			code, hasCode = *v, true
		}
		description := weather.ConditionDescription{Code: weather.ConditionClear, Text: weather.UnknownConditionText}
		if hasCode {
			description = openMeteoConditions.Translate(code, "")
		}

		out = append(out, weather.HourlyObservation{
			Temperature: weather.Temperature{
				Min:       *temp,
				Max:       *temp,
				FeelsLike: feelsLike,
				Average:   *temp,
			},
			Wind: weather.Wind{
				Speed:     valueOr(at(h.WindSpeed, i), 0),
				Gusts:     at(h.WindGusts, i),
				Direction: compassBearing(valueOr(at(h.WindDirection, i), 0)),
			},
			Clouds:      weather.Clouds{Coverage: valueOr(at(h.CloudCover, i), 0)},
			Rain:        rain,
			Description: description,
			Humidity:    int(math.Round(valueOr(at(h.RelativeHumidity, i), 0))),
			Pressure:    int(valueOr(at(h.Pressure, i), 0)),
			Time:        time.Unix(*ts, 0).UTC(),
		})
	}
	return out, dropped
}

func at[T any](s []*T, i int) *T {
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
