package providers

import (
	"context"
	"errors"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-forecast/internal/weather"
)

// fakeFetcher returns a canned body and records requested URLs.
type fakeFetcher struct {
	bodies map[string][]byte // keyed by URL path suffix; "" matches anything
	err    error
	urls   []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, u string) ([]byte, error) {
	f.urls = append(f.urls, u)
	if f.err != nil {
		return nil, f.err
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, err
	}
	for suffix, body := range f.bodies {
		if suffix != "" && strings.HasSuffix(parsed.Path, suffix) {
			return body, nil
		}
	}
	return f.bodies[""], nil
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

var denver = weather.Location{Name: "Denver", Latitude: 39.7392, Longitude: -104.9903}

func TestOpenMeteo_RequestURL(t *testing.T) {
	p := NewOpenMeteoProvider(&fakeFetcher{}, "", nil)

	raw, err := p.RequestURL(denver)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "api.open-meteo.com", u.Host)
	assert.Equal(t, "/v1/forecast", u.Path)

	q := u.Query()
	assert.Equal(t, "39.7392", q.Get("latitude"))
	assert.Equal(t, "-104.9903", q.Get("longitude"))
	assert.Equal(t, "true", q.Get("current_weather"))
	assert.Equal(t, "UTC", q.Get("timezone"))
	assert.Equal(t, "unixtime", q.Get("timeformat"))
	assert.Equal(t, strings.Join(openMeteoHourlyMetrics, ","), q.Get("hourly"))
}

func TestOpenMeteo_RequestURLInvalidCoordinates(t *testing.T) {
	p := NewOpenMeteoProvider(&fakeFetcher{}, "", nil)

	for _, loc := range []weather.Location{
		{Latitude: 91, Longitude: 0},
		{Latitude: 0, Longitude: -181},
		{Latitude: math.NaN(), Longitude: 0},
		{Latitude: 0, Longitude: math.Inf(1)},
	} {
		_, err := p.RequestURL(loc)
		var reqErr *weather.RequestConstructionError
		assert.ErrorAs(t, err, &reqErr, "location %+v", loc)
	}
}

func TestOpenMeteo_RequestURLBadBase(t *testing.T) {
	p := NewOpenMeteoProvider(&fakeFetcher{}, "not a url", nil)

	_, err := p.RequestURL(denver)
	var reqErr *weather.RequestConstructionError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, NameOpenMeteo, reqErr.Provider)
}

func TestOpenMeteo_DailyForecast(t *testing.T) {
	f := &fakeFetcher{bodies: map[string][]byte{"": fixture(t, "openmeteo_forecast.json")}}
	p := NewOpenMeteoProvider(f, "", nil)

	days, err := p.DailyForecast(context.Background(), denver)
	require.NoError(t, err)
	require.Len(t, days, 2)
	require.Len(t, f.urls, 1)

	assert.Equal(t, time.Date(2022, 10, 23, 0, 0, 0, 0, time.UTC), days[0].Date())
	assert.Equal(t, time.Date(2022, 10, 24, 0, 0, 0, 0, time.UTC), days[1].Date())

	// the point with a null temperature is dropped
	assert.Equal(t, 2, days[0].Len())
	assert.Equal(t, 2, days[1].Len())

	assert.Equal(t, 19.0, days[0].MinTemperature())
	assert.Equal(t, 21.1, days[0].MaxTemperature())
	assert.Equal(t, 6.6, days[1].MinTemperature())
	assert.Equal(t, 8.6, days[1].MaxTemperature())

	first := days[0].Observations()[0]
	assert.Equal(t, weather.Temperature{Min: 21.1, Max: 21.1, FeelsLike: 18.6, Average: 21.1}, first.Temperature)
	assert.Equal(t, 24, first.Humidity)
	assert.Equal(t, 825, first.Pressure)
	assert.Equal(t, 135, first.Wind.Direction)
	require.NotNil(t, first.Wind.Gusts)
	assert.Equal(t, 8.6, *first.Wind.Gusts)
	assert.Nil(t, first.Rain)
	assert.Equal(t, weather.ConditionDescription{Code: weather.ConditionClear, Text: "Clear sky"}, first.Description)

	second := days[0].Observations()[1]
	assert.Nil(t, second.Wind.Gusts)

	last := days[1].Observations()[1]
	require.NotNil(t, last.Rain)
	assert.Equal(t, 0.3, last.Rain.Hourly)
	assert.Equal(t, weather.ConditionRain, last.Description.Code)
	assert.Equal(t, 96.0, days[1].Observations()[0].Clouds.Coverage)
	assert.Equal(t, weather.ConditionPartlyCloudy, days[1].Representative().Description.Code)
}

func TestOpenMeteo_CurrentConditions(t *testing.T) {
	f := &fakeFetcher{bodies: map[string][]byte{"": fixture(t, "openmeteo_forecast.json")}}
	p := NewOpenMeteoProvider(f, "", nil)

	current, err := p.CurrentConditions(context.Background(), denver)
	require.NoError(t, err)

	assert.Equal(t, time.Unix(1666483200, 0).UTC(), current.Time)
	assert.Equal(t, 21.1, current.Temperature.Current)
	assert.Equal(t, 18.6, current.Temperature.FeelsLike)
	assert.Equal(t, 2.5, current.Wind.Speed)
	assert.Equal(t, denver, current.Location)
	assert.Equal(t, weather.ConditionClear, current.Description.Code)
}

func TestOpenMeteo_CurrentConditionsNoMatchingPoint(t *testing.T) {
	body := []byte(`{
		"current_weather": {"time": 1666500000, "temperature": 10},
		"hourly": {"time": [1666483200], "temperature_2m": [21.1]}
	}`)
	p := NewOpenMeteoProvider(&fakeFetcher{bodies: map[string][]byte{"": body}}, "", nil)

	_, err := p.CurrentConditions(context.Background(), denver)
	assert.ErrorIs(t, err, weather.ErrNoCurrentObservation)
}

func TestOpenMeteo_CurrentConditionsMissingBlock(t *testing.T) {
	body := []byte(`{"hourly": {"time": [1666483200], "temperature_2m": [21.1]}}`)
	p := NewOpenMeteoProvider(&fakeFetcher{bodies: map[string][]byte{"": body}}, "", nil)

	_, err := p.CurrentConditions(context.Background(), denver)
	var netErr *weather.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, weather.ErrMissingField)
}

func TestOpenMeteo_OptionalFieldsMissing(t *testing.T) {
	body := []byte(`{"hourly": {"time": [1666483200, 1666486800], "temperature_2m": [5.5, 6.5]}}`)
	p := NewOpenMeteoProvider(&fakeFetcher{bodies: map[string][]byte{"": body}}, "", nil)

	days, err := p.DailyForecast(context.Background(), denver)
	require.NoError(t, err)
	require.Len(t, days, 1)

	o := days[0].Observations()[0]
	assert.Equal(t, 5.5, o.Temperature.FeelsLike)
	assert.Nil(t, o.Wind.Gusts)
	assert.Nil(t, o.Rain)
	assert.Equal(t, 0, o.Humidity)
	assert.Equal(t, weather.ConditionDescription{Code: weather.ConditionClear, Text: weather.UnknownConditionText}, o.Description)
}

func TestOpenMeteo_UnknownWeatherCode(t *testing.T) {
	body := []byte(`{"hourly": {"time": [1666483200], "temperature_2m": [5.5], "weathercode": [42]}}`)
	p := NewOpenMeteoProvider(&fakeFetcher{bodies: map[string][]byte{"": body}}, "", nil)

	days, err := p.DailyForecast(context.Background(), denver)
	require.NoError(t, err)
	assert.Equal(t, weather.ConditionDescription{Code: weather.ConditionClear, Text: weather.UnknownConditionText},
		days[0].Representative().Description)
}

func TestOpenMeteo_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *fakeFetcher
	}{
		{"transport", &fakeFetcher{err: errors.New("connection refused")}},
		{"empty body", &fakeFetcher{bodies: map[string][]byte{"": []byte("  ")}}},
		{"malformed json", &fakeFetcher{bodies: map[string][]byte{"": []byte(`{"hourly": [`)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewOpenMeteoProvider(tt.fetcher, "", nil)

			_, err := p.DailyForecast(context.Background(), denver)
			var netErr *weather.NetworkError
			require.ErrorAs(t, err, &netErr)
			assert.Equal(t, NameOpenMeteo, netErr.Provider)
		})
	}
}

func TestOpenMeteo_EmptySeries(t *testing.T) {
	body := []byte(`{"hourly": {"time": [], "temperature_2m": []}}`)
	p := NewOpenMeteoProvider(&fakeFetcher{bodies: map[string][]byte{"": body}}, "", nil)

	days, err := p.DailyForecast(context.Background(), denver)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestNew_SelectsAdapter(t *testing.T) {
	src, err := New("Open-Meteo", &fakeFetcher{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, NameOpenMeteo, src.Name())

	src, err = New("openweather", &fakeFetcher{}, Options{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, NameOpenWeather, src.Name())

	_, err = New("weatherkit", &fakeFetcher{}, Options{})
	assert.Error(t, err)
}

func TestOpenMeteo_WindDirectionIsCompassBearing(t *testing.T) {
	body := []byte(`{"hourly": {
		"time": [1666483200, 1666486800, 1666490400, 1666494000],
		"temperature_2m": [1, 2, 3, 4],
		"winddirection_10m": [360, -90, 359.7, 12.4]
	}}`)
	p := NewOpenMeteoProvider(&fakeFetcher{bodies: map[string][]byte{"": body}}, "", nil)

	days, err := p.DailyForecast(context.Background(), denver)
	require.NoError(t, err)
	require.Len(t, days, 1)

	var got []int
	for _, o := range days[0].Observations() {
		assert.GreaterOrEqual(t, o.Wind.Direction, 0)
		assert.LessOrEqual(t, o.Wind.Direction, 359)
		got = append(got, o.Wind.Direction)
	}
	assert.Equal(t, []int{0, 270, 0, 12}, got)
}

func TestCompassBearing(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{135, 135},
		{359.4, 359},
		{359.7, 0},
		{360, 0},
		{725, 5},
		{-1, 359},
		{-90, 270},
		{math.NaN(), 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, compassBearing(tt.in), "bearing %v", tt.in)
	}
}
