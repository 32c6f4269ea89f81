package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-forecast/internal/weather"
)

// ReportService is the part of weather.Service the scheduler needs.
type ReportService interface {
	Report(ctx context.Context, loc weather.Location) (weather.Report, error)
}

// Scheduler periodically refreshes the configured location and stores the
// resulting report.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   ReportService
	store     weather.Store
	location  weather.Location
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler.
func New(location weather.Location, interval time.Duration, service ReportService, store weather.Store, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		store:     store,
		location:  location,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger.Named("scheduler"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval < time.Minute {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.RunOnce(ctx); err != nil {
			s.logger.Warn("refresh failed",
				zap.String("location", s.location.Key()),
				zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce fetches one report and saves it. On failure the last good report
// is kept.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.logger.Debug("running weather refresh job", zap.String("location", s.location.Key()))

	report, err := s.service.Report(ctx, s.location)
	if err != nil {
		return err
	}

	s.store.SaveReport(report)
	s.logger.Info("weather report stored",
		zap.String("location", s.location.Key()),
		zap.String("report_id", report.ID),
		zap.Int("days", len(report.Daily)))
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
