package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/i474232898/weather-forecast/internal/logging"
	"github.com/i474232898/weather-forecast/internal/weather"
	"github.com/i474232898/weather-forecast/internal/weather/providers"
)

func displayCurrent(c weather.CurrentConditions) {
	header := fmt.Sprintf("Current weather for %s:", locationLabel(c.Location))
	fmt.Printf("%s\n", header)
	fmt.Printf("%s\n", strings.Repeat("-", len(header)))
	fmt.Printf("Conditions:  %s\n", title(c.Description.Text))
	fmt.Printf("Temperature: %.1f°C\n", c.Temperature.Current)
	fmt.Printf("Feels Like:  %.1f°C\n", c.Temperature.FeelsLike)
	fmt.Printf("Humidity:    %d%%\n", c.Humidity)
	fmt.Printf("Pressure:    %d hPa\n", c.Pressure)
	fmt.Printf("Wind:        %.1f km/h from %d°\n", c.Wind.Speed, c.Wind.Direction)
	if c.Rain != nil {
		fmt.Printf("Rain:        %.1f mm/h\n", c.Rain.Hourly)
	}
}

func displayForecast(loc weather.Location, days []weather.DailyAggregate) {
	summary := weather.Summarize(days)

	header := fmt.Sprintf("%d-Day Forecast for %s:", len(summary.Days), locationLabel(loc))
	fmt.Printf("%s\n", header)
	fmt.Printf("%s\n", strings.Repeat("-", len(header)))

	for _, day := range summary.Days {
		fmt.Printf("%s %s: ",
			day.Date.Format("Mon"),
			day.Date.Format("2006-01-02"))
		fmt.Printf("%-25s Low: %5.1f°C. High: %5.1f°C. %s\n",
			title(day.Condition.Text),
			day.Min,
			day.Max,
			rangeBar(day.RangeStart, day.RangeEnd, 20))
	}
}

// rangeBar draws a day's span inside the forecast range.
func rangeBar(start, end float64, width int) string {
	from := int(start * float64(width))
	to := int(end * float64(width))
	if to <= from {
		to = from + 1
	}
	if to > width {
		to = width
		from = min(from, width-1)
	}
	return "[" + strings.Repeat(" ", from) + strings.Repeat("=", to-from) + strings.Repeat(" ", width-to) + "]"
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}

func locationLabel(loc weather.Location) string {
	if loc.Name != "" {
		return loc.Name
	}
	return fmt.Sprintf("%.4f, %.4f", loc.Latitude, loc.Longitude)
}

func main() {
	lat := flag.Float64("lat", 39.7392, "latitude in degrees")
	lon := flag.Float64("lon", -104.9903, "longitude in degrees")
	name := flag.String("name", "", "display name of the location")
	providerName := flag.String("provider", providers.NameOpenMeteo, "weather provider (openmeteo or openweather)")
	apiKey := flag.String("api-key", os.Getenv("OPENWEATHER_API_KEY"), "OpenWeatherMap API key")
	timeout := flag.Duration("timeout", 15*time.Second, "overall request timeout")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := "warn"
	if *debug {
		level = "debug"
	}
	log, err := logging.New(level, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	fetcher := providers.NewHTTPFetcher(*providerName, providers.HTTPClientConfig{
		Client:  &http.Client{Timeout: *timeout},
		Backoff: providers.DefaultBackoff,
	}, log)

	source, err := providers.New(*providerName, fetcher, providers.Options{
		APIKey: *apiKey,
		Logger: log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	service := weather.NewService(source, log)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	loc := weather.Location{Name: *name, Latitude: *lat, Longitude: *lon}

	current, err := service.CurrentConditions(ctx, loc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting current weather: %v\n", err)
		os.Exit(1)
	}
	displayCurrent(current)
	fmt.Println()

	days, err := service.DailyForecast(ctx, loc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting forecast: %v\n", err)
		os.Exit(1)
	}
	displayForecast(loc, days)
}
