package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-forecast/internal/weather"
)

const openWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// openWeatherConditions is keyed by icon id; day and night variants map the
// same way. The provider's own description is kept as the text.
var openWeatherConditions = weather.NewConditionTable(openWeatherIconTable(map[string]weather.ConditionCode{
	"01": weather.ConditionClear,
	"02": weather.ConditionPartlyCloudy,
	"03": weather.ConditionScatteredClouds,
	"04": weather.ConditionBrokenClouds,
	"09": weather.ConditionShowers,
	"10": weather.ConditionRain,
	"11": weather.ConditionThunderstorm,
	"13": weather.ConditionSnow,
	"50": weather.ConditionMist,
}))

func openWeatherIconTable(prefixes map[string]weather.ConditionCode) map[string]weather.ConditionDescription {
	m := make(map[string]weather.ConditionDescription, 2*len(prefixes))
	for prefix, code := range prefixes {
		m[prefix+"d"] = weather.ConditionDescription{Code: code}
		m[prefix+"n"] = weather.ConditionDescription{Code: code}
	}
	return m
}

type OpenWeatherMain struct {
	Temp      *float64 `json:"temp"`
	TempMin   *float64 `json:"temp_min"`
	TempMax   *float64 `json:"temp_max"`
	FeelsLike *float64 `json:"feels_like"`
	Humidity  int      `json:"humidity"`
	Pressure  int      `json:"pressure"`
}

type OpenWeatherWind struct {
	Speed float64  `json:"speed"`
	Gust  *float64 `json:"gust"`
	Deg   float64  `json:"deg"`
}

type OpenWeatherRain struct {
	OneHour    *float64 `json:"1h"`
	ThreeHours *float64 `json:"3h"`
}

type OpenWeatherClouds struct {
	All float64 `json:"all"`
}

type OpenWeatherCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// OpenWeatherWeatherResponse is the /weather payload and also one element of
// the /forecast list.
type OpenWeatherWeatherResponse struct {
	Dt      int64                  `json:"dt"`
	Main    OpenWeatherMain        `json:"main"`
	Wind    OpenWeatherWind        `json:"wind"`
	Rain    *OpenWeatherRain       `json:"rain"`
	Clouds  OpenWeatherClouds      `json:"clouds"`
	Weather []OpenWeatherCondition `json:"weather"`
}

type OpenWeatherForecastResponse struct {
	List []OpenWeatherWeatherResponse `json:"list"`
}

// OpenWeatherProvider implements weather.Source for OpenWeatherMap's 2.5 API.
//
// Forecast points are 3-hourly and carry their own temp_min/temp_max, so an
// observation keeps them as Min/Max with temp as Average. A point without
// temp, temp_min or temp_max is dropped.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	fetcher weather.Fetcher
	logger  *zap.Logger
}

var _ weather.Source = (*OpenWeatherProvider)(nil)

func NewOpenWeatherProvider(fetcher weather.Fetcher, apiKey, baseURL string, logger *zap.Logger) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = openWeatherBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenWeatherProvider{
		name:    NameOpenWeather,
		apiKey:  apiKey,
		baseURL: baseURL,
		fetcher: fetcher,
		logger:  logger.Named(NameOpenWeather),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// RequestURL builds the URL for endpoint ("forecast" or "weather").
func (p *OpenWeatherProvider) RequestURL(endpoint string, loc weather.Location) (string, error) {
	if p.apiKey == "" {
		return "", &weather.RequestConstructionError{Provider: p.name, Err: weather.ErrMissingAPIKey}
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	values.Set("exclude", "hourly,minutely")

	u, err := buildURL(p.baseURL, endpoint, loc, values, "lat", "lon")
	if err != nil {
		return "", &weather.RequestConstructionError{Provider: p.name, Err: err}
	}
	return u, nil
}

func (p *OpenWeatherProvider) DailyForecast(ctx context.Context, loc weather.Location) ([]weather.DailyAggregate, error) {
	var payload OpenWeatherForecastResponse
	if err := p.fetch(ctx, "forecast", loc, &payload); err != nil {
		return nil, err
	}

	observations := make([]weather.HourlyObservation, 0, len(payload.List))
	for _, item := range payload.List {
		o, ok := item.observation()
		if !ok {
			p.logger.Debug("dropped forecast point without temperature range",
				zap.String("location", loc.Key()),
				zap.Int64("dt", item.Dt))
			continue
		}
		observations = append(observations, o)
	}

	return weather.GroupByDay(observations), nil
}

func (p *OpenWeatherProvider) CurrentConditions(ctx context.Context, loc weather.Location) (weather.CurrentConditions, error) {
	var payload OpenWeatherWeatherResponse
	if err := p.fetch(ctx, "weather", loc, &payload); err != nil {
		return weather.CurrentConditions{}, err
	}
	if payload.Main.Temp == nil {
		return weather.CurrentConditions{}, &weather.NetworkError{
			Provider: p.name,
			Err:      fmt.Errorf("%w: main.temp", weather.ErrMissingField),
		}
	}

	temp := *payload.Main.Temp
	return weather.CurrentConditions{
		Temperature: weather.CurrentTemperature{
			Current:   temp,
			FeelsLike: valueOr(payload.Main.FeelsLike, temp),
		},
		Wind:        payload.wind(),
		Clouds:      weather.Clouds{Coverage: payload.Clouds.All},
		Rain:        payload.rain(),
		Description: payload.description(),
		Humidity:    payload.Main.Humidity,
		Pressure:    payload.Main.Pressure,
		Location:    loc,
		Time:        time.Unix(payload.Dt, 0).UTC(),
	}, nil
}

func (p *OpenWeatherProvider) fetch(ctx context.Context, endpoint string, loc weather.Location, target any) error {
	u, err := p.RequestURL(endpoint, loc)
	if err != nil {
		return err
	}

	body, err := p.fetcher.Fetch(ctx, u)
	if err != nil {
		return &weather.NetworkError{Provider: p.name, Err: err}
	}
	if err := decodeJSON(body, target); err != nil {
		return &weather.NetworkError{Provider: p.name, Err: err}
	}
	return nil
}

func (r OpenWeatherWeatherResponse) observation() (weather.HourlyObservation, bool) {
	if r.Main.Temp == nil || r.Main.TempMin == nil || r.Main.TempMax == nil {
		return weather.HourlyObservation{}, false
	}

	temp := *r.Main.Temp
	return weather.HourlyObservation{
		Temperature: weather.Temperature{
			Min:       *r.Main.TempMin,
			Max:       *r.Main.TempMax,
			FeelsLike: valueOr(r.Main.FeelsLike, temp),
			Average:   temp,
		},
		Wind:        r.wind(),
		Clouds:      weather.Clouds{Coverage: r.Clouds.All},
		Rain:        r.rain(),
		Description: r.description(),
		Humidity:    r.Main.Humidity,
		Pressure:    r.Main.Pressure,
		Time:        time.Unix(r.Dt, 0).UTC(),
	}, true
}

func (r OpenWeatherWeatherResponse) wind() weather.Wind {
	return weather.Wind{
		Speed:     r.Wind.Speed,
		Gusts:     r.Wind.Gust,
		Direction: compassBearing(r.Wind.Deg),
	}
}

// rain prefers the 1h amount; a 3h amount is spread evenly over its hours.
func (r OpenWeatherWeatherResponse) rain() *weather.Rain {
	if r.Rain == nil {
		return nil
	}
	if r.Rain.OneHour != nil {
		return &weather.Rain{Hourly: *r.Rain.OneHour}
	}
	if r.Rain.ThreeHours != nil {
		return &weather.Rain{Hourly: *r.Rain.ThreeHours / 3}
	}
	return nil
}

func (r OpenWeatherWeatherResponse) description() weather.ConditionDescription {
	if len(r.Weather) == 0 {
		return openWeatherConditions.Translate("", "")
	}
	w := r.Weather[0]
	return openWeatherConditions.Translate(w.Icon, w.Description)
}
