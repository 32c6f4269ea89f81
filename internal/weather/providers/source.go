package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/i474232898/weather-forecast/internal/weather"
)

// Provider names accepted by New.
const (
	NameOpenMeteo   = "openmeteo"
	NameOpenWeather = "openweather"
)

// Options configures the adapter built by New.
type Options struct {
	APIKey  string // required by OpenWeatherMap only
	BaseURL string // empty means the provider default
	Logger  *zap.Logger
}

// New selects a provider adapter by name.
func New(name string, fetcher weather.Fetcher, opts Options) (weather.Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameOpenMeteo, "open-meteo":
		return NewOpenMeteoProvider(fetcher, opts.BaseURL, opts.Logger), nil
	case NameOpenWeather, "openweathermap":
		return NewOpenWeatherProvider(fetcher, opts.APIKey, opts.BaseURL, opts.Logger), nil
	default:
		return nil, fmt.Errorf("unknown weather provider %q", name)
	}
}

// buildURL joins base, an optional path and the query. It fails on an
// unparsable base or coordinates that are not finite and in range.
func buildURL(base, path string, loc weather.Location, values url.Values, latKey, lonKey string) (string, error) {
	if math.IsNaN(loc.Latitude) || math.IsInf(loc.Latitude, 0) || loc.Latitude < -90 || loc.Latitude > 90 {
		return "", fmt.Errorf("invalid latitude %v", loc.Latitude)
	}
	if math.IsNaN(loc.Longitude) || math.IsInf(loc.Longitude, 0) || loc.Longitude < -180 || loc.Longitude > 180 {
		return "", fmt.Errorf("invalid longitude %v", loc.Longitude)
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base url %q is not absolute", base)
	}
	if path != "" {
		u = u.JoinPath(path)
	}

	values.Set(latKey, formatCoordinate(loc.Latitude))
	values.Set(lonKey, formatCoordinate(loc.Longitude))
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// compassBearing rounds v to whole degrees and folds it into [0,359], so a
// due-north 360 becomes 0.
func compassBearing(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return ((int(math.Round(v)) % 360) + 360) % 360
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// decodeJSON rejects empty bodies so that a blank response never turns into
// zero-valued weather.
func decodeJSON(body []byte, target any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("error parsing JSON: %w", err)
	}
	return nil
}
