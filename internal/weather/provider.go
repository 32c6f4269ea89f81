package weather

import (
	"context"
	"time"
)

// Fetcher is the network capability adapters compose: it returns the raw
// response body for url. Retries, timeouts and rate limiting belong here.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Source abstracts one weather provider (e.g. Open-Meteo, OpenWeatherMap).
type Source interface {
	Name() string
	CurrentConditions(ctx context.Context, loc Location) (CurrentConditions, error)
	DailyForecast(ctx context.Context, loc Location) ([]DailyAggregate, error)
}

// Store is the contract the in-memory report store must satisfy.
type Store interface {
	SaveReport(report Report)
	GetLatest(loc Location) (Report, error)
	GetRange(loc Location, from, to time.Time) ([]Report, error)
}
