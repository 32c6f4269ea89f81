package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-forecast/internal/api/http"
	"github.com/i474232898/weather-forecast/internal/config"
	"github.com/i474232898/weather-forecast/internal/logging"
	"github.com/i474232898/weather-forecast/internal/scheduler"
	"github.com/i474232898/weather-forecast/internal/store"
	"github.com/i474232898/weather-forecast/internal/weather"
	"github.com/i474232898/weather-forecast/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Network capability with resilience (rate limit + backoff + circuit breaker).
	backoff := providers.DefaultBackoff
	backoff.MaxRetries = cfg.HTTPMaxRetries
	fetcher := providers.NewHTTPFetcher(cfg.Provider, providers.HTTPClientConfig{
		Client:  httpClient,
		Backoff: backoff,
		RateLimit: providers.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
	}, log)

	baseURL := cfg.OpenMeteoBaseURL
	if cfg.Provider == providers.NameOpenWeather {
		baseURL = cfg.OpenWeatherBaseURL
	}
	source, err := providers.New(cfg.Provider, fetcher, providers.Options{
		APIKey:  cfg.OpenWeatherAPIKey,
		BaseURL: baseURL,
		Logger:  log,
	})
	if err != nil {
		log.Fatal("failed to build provider", zap.Error(err))
	}

	// Core service wrapping the selected provider.
	service := weather.NewService(source, log)

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Scheduler that periodically refreshes the configured location.
	home := cfg.WeatherLocation()
	sched := scheduler.New(home, cfg.FetchInterval, service, memStore, log)
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-forecast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":     true,
				"message":   err.Error(),
				"requestId": c.GetRespHeader(httpapi.RequestIDHeader),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "weather-forecast",
			"provider": service.ProviderName(),
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Service: service,
		Reports: memStore,
		Home:    home,
		Logger:  log,
	})

	go func() {
		log.Info("http server listening",
			zap.String("port", cfg.Port),
			zap.String("provider", service.ProviderName()),
			zap.String("location", home.Key()))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Warn("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
}
