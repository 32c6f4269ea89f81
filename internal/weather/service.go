package weather

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is the provider-agnostic forecast facade. It wraps exactly one
// Source and adds no retries or caching of its own.
type Service struct {
	source Source
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new Service.
func NewService(source Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source: source,
		logger: logger.Named("forecast-service"),
		now:    time.Now,
	}
}

// ProviderName returns the name of the wrapped source.
func (s *Service) ProviderName() string {
	return s.source.Name()
}

// CurrentConditions returns the current conditions at loc.
func (s *Service) CurrentConditions(ctx context.Context, loc Location) (CurrentConditions, error) {
	current, err := s.source.CurrentConditions(ctx, loc)
	if err != nil {
		s.logger.Warn("current conditions failed",
			zap.String("provider", s.source.Name()),
			zap.String("location", loc.Key()),
			zap.Error(err))
		return CurrentConditions{}, err
	}
	return current, nil
}

// DailyForecast returns the daily aggregates at loc, ascending by date.
func (s *Service) DailyForecast(ctx context.Context, loc Location) ([]DailyAggregate, error) {
	days, err := s.source.DailyForecast(ctx, loc)
	if err != nil {
		s.logger.Warn("daily forecast failed",
			zap.String("provider", s.source.Name()),
			zap.String("location", loc.Key()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Debug("daily forecast fetched",
		zap.String("provider", s.source.Name()),
		zap.String("location", loc.Key()),
		zap.Int("days", len(days)))
	return days, nil
}

// Report fetches current conditions and the daily forecast one after the
// other. The first failure is returned as is.
func (s *Service) Report(ctx context.Context, loc Location) (Report, error) {
	current, err := s.CurrentConditions(ctx, loc)
	if err != nil {
		return Report{}, err
	}

	days, err := s.DailyForecast(ctx, loc)
	if err != nil {
		return Report{}, err
	}

	return Report{
		ID:        uuid.NewString(),
		Provider:  s.source.Name(),
		Location:  loc,
		FetchedAt: s.now().UTC(),
		Current:   current,
		Daily:     days,
		Summary:   Summarize(days),
	}, nil
}
