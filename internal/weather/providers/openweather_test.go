package providers

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-forecast/internal/weather"
)

func newOpenWeatherFixtureProvider(t *testing.T) (*OpenWeatherProvider, *fakeFetcher) {
	f := &fakeFetcher{bodies: map[string][]byte{
		"/forecast": fixture(t, "openweather_forecast.json"),
		"/weather":  fixture(t, "openweather_current.json"),
	}}
	return NewOpenWeatherProvider(f, "secret", "", nil), f
}

func TestOpenWeather_RequestURL(t *testing.T) {
	p := NewOpenWeatherProvider(&fakeFetcher{}, "secret", "", nil)

	raw, err := p.RequestURL("forecast", denver)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "api.openweathermap.org", u.Host)
	assert.Equal(t, "/data/2.5/forecast", u.Path)

	q := u.Query()
	assert.Equal(t, "secret", q.Get("appid"))
	assert.Equal(t, "metric", q.Get("units"))
	assert.Equal(t, "hourly,minutely", q.Get("exclude"))
	assert.Equal(t, "39.7392", q.Get("lat"))
	assert.Equal(t, "-104.9903", q.Get("lon"))
}

func TestOpenWeather_MissingAPIKey(t *testing.T) {
	f := &fakeFetcher{}
	p := NewOpenWeatherProvider(f, "", "", nil)

	_, err := p.DailyForecast(context.Background(), denver)
	var reqErr *weather.RequestConstructionError
	require.ErrorAs(t, err, &reqErr)
	assert.ErrorIs(t, err, weather.ErrMissingAPIKey)
	assert.Empty(t, f.urls, "no request may be issued without a key")
}

func TestOpenWeather_DailyForecast(t *testing.T) {
	p, f := newOpenWeatherFixtureProvider(t)

	days, err := p.DailyForecast(context.Background(), denver)
	require.NoError(t, err)
	require.Len(t, f.urls, 1)
	require.Len(t, days, 2)

	assert.Equal(t, time.Date(2022, 10, 22, 0, 0, 0, 0, time.UTC), days[0].Date())
	assert.Equal(t, time.Date(2022, 10, 26, 0, 0, 0, 0, time.UTC), days[1].Date())

	// the point without temp_min is dropped
	assert.Equal(t, 2, days[0].Len())

	assert.Equal(t, 8.2, days[0].MinTemperature())
	assert.Equal(t, 12.4, days[0].MaxTemperature())
	assert.Equal(t, 13.5, days[1].MinTemperature())
	assert.Equal(t, 16.0, days[1].MaxTemperature())

	first := days[0].Observations()[0]
	assert.Equal(t, weather.Temperature{Min: 10.9, Max: 12.4, FeelsLike: 11.2, Average: 12.4}, first.Temperature)
	assert.Equal(t, weather.ConditionDescription{Code: weather.ConditionBrokenClouds, Text: "broken clouds"}, first.Description)
	require.NotNil(t, first.Wind.Gusts)
	assert.Equal(t, 5.2, *first.Wind.Gusts)
	assert.Nil(t, first.Rain)

	night := days[0].Observations()[1]
	assert.Equal(t, weather.ConditionPartlyCloudy, night.Description.Code)
	assert.Nil(t, night.Wind.Gusts)
	require.NotNil(t, night.Rain)
	assert.InDelta(t, 0.3, night.Rain.Hourly, 1e-9)

	assert.Equal(t, weather.ConditionScatteredClouds, days[1].Observations()[1].Description.Code)
}

func TestOpenWeather_CurrentConditions(t *testing.T) {
	p, f := newOpenWeatherFixtureProvider(t)

	current, err := p.CurrentConditions(context.Background(), denver)
	require.NoError(t, err)
	require.Len(t, f.urls, 1)

	u, err := url.Parse(f.urls[0])
	require.NoError(t, err)
	assert.Equal(t, "/data/2.5/weather", u.Path)

	assert.Equal(t, 298.48, current.Temperature.Current)
	assert.Equal(t, 298.74, current.Temperature.FeelsLike)
	assert.Equal(t, 64, current.Humidity)
	assert.Equal(t, 1015, current.Pressure)
	assert.Equal(t, 0.62, current.Wind.Speed)
	require.NotNil(t, current.Wind.Gusts)
	assert.Equal(t, 1.18, *current.Wind.Gusts)
	assert.Equal(t, 349, current.Wind.Direction)
	require.NotNil(t, current.Rain)
	assert.Equal(t, 3.16, current.Rain.Hourly)
	assert.Equal(t, 100.0, current.Clouds.Coverage)
	assert.Equal(t, time.Unix(1661870592, 0).UTC(), current.Time)
	assert.Equal(t, weather.ConditionDescription{Code: weather.ConditionRain, Text: "moderate rain"}, current.Description)
	assert.Equal(t, denver, current.Location)
}

func TestOpenWeather_CurrentConditionsMissingTemp(t *testing.T) {
	body := []byte(`{"dt": 1661870592, "main": {"humidity": 50}}`)
	p := NewOpenWeatherProvider(&fakeFetcher{bodies: map[string][]byte{"": body}}, "secret", "", nil)

	_, err := p.CurrentConditions(context.Background(), denver)
	var netErr *weather.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, weather.ErrMissingField)
}

func TestOpenWeather_UnknownIconAndNoWeather(t *testing.T) {
	body := []byte(`{"list": [
		{"dt": 1666396800, "main": {"temp": 1, "temp_min": 0, "temp_max": 2}, "weather": [{"icon": "99x", "description": "haze"}]},
		{"dt": 1666400400, "main": {"temp": 1, "temp_min": 0, "temp_max": 2}}
	]}`)
	p := NewOpenWeatherProvider(&fakeFetcher{bodies: map[string][]byte{"": body}}, "secret", "", nil)

	days, err := p.DailyForecast(context.Background(), denver)
	require.NoError(t, err)
	require.Len(t, days, 1)

	obs := days[0].Observations()
	assert.Equal(t, weather.ConditionDescription{Code: weather.ConditionClear, Text: "haze"}, obs[0].Description)
	assert.Equal(t, weather.ConditionDescription{Code: weather.ConditionClear, Text: weather.UnknownConditionText}, obs[1].Description)
	assert.Equal(t, 1.0, obs[0].Temperature.FeelsLike)
}

func TestOpenWeather_IconTableCoversDayAndNight(t *testing.T) {
	assert.Equal(t, 18, openWeatherConditions.Len())
	for _, suffix := range []string{"d", "n"} {
		assert.Equal(t, weather.ConditionSnow, openWeatherConditions.Translate("13"+suffix, "snow").Code)
		assert.Equal(t, weather.ConditionMist, openWeatherConditions.Translate("50"+suffix, "mist").Code)
	}
}

func TestOpenWeather_WindDirectionDueNorth(t *testing.T) {
	body := []byte(`{"dt": 1661870592, "main": {"temp": 10}, "wind": {"speed": 3, "deg": 360}}`)
	p := NewOpenWeatherProvider(&fakeFetcher{bodies: map[string][]byte{"": body}}, "secret", "", nil)

	current, err := p.CurrentConditions(context.Background(), denver)
	require.NoError(t, err)
	assert.Equal(t, 0, current.Wind.Direction)
}
