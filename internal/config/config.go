package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-forecast/internal/weather"
)

var validate = validator.New()

// LocationConfig is the single location the scheduler keeps fresh.
type LocationConfig struct {
	Name      string  `toml:"name" yaml:"name"`
	Latitude  float64 `toml:"latitude" yaml:"latitude"`
	Longitude float64 `toml:"longitude" yaml:"longitude"`
}

type AppConfig struct {
	Provider          string `toml:"provider" yaml:"provider" validate:"oneof=openmeteo openweather"`
	OpenWeatherAPIKey string `toml:"openweather_api_key" yaml:"openweather_api_key"`

	OpenMeteoBaseURL   string `toml:"openmeteo_base_url" yaml:"openmeteo_base_url" validate:"omitempty,url"`
	OpenWeatherBaseURL string `toml:"openweather_base_url" yaml:"openweather_base_url" validate:"omitempty,url"`

	// Outbound HTTP behaviour of the network capability.
	HTTPTimeout    time.Duration `toml:"-" yaml:"-"`
	HTTPMaxRetries int           `toml:"http_max_retries" yaml:"http_max_retries" validate:"gte=0"`
	RateLimitRPS   float64       `toml:"http_rate_limit_rps" yaml:"http_rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int           `toml:"http_rate_limit_burst" yaml:"http_rate_limit_burst" validate:"gte=0"`

	// FetchInterval controls how often the scheduler refreshes the location.
	FetchInterval time.Duration `toml:"-" yaml:"-"`

	Location LocationConfig `toml:"location" yaml:"location"`

	// In-memory store retention.
	StoreMaxHistory int           `toml:"store_max_history" yaml:"store_max_history"` // max reports kept (0 = unlimited)
	StoreMaxAge     time.Duration `toml:"-" yaml:"-"`                                  // max age of reports (0 = unlimited)

	Port      string `toml:"port" yaml:"port"`
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format" validate:"omitempty,oneof=json console"`

	// Duration fields as written in config files.
	HTTPTimeoutRaw   string `toml:"http_timeout" yaml:"http_timeout" validate:"-"`
	FetchIntervalRaw string `toml:"fetch_interval" yaml:"fetch_interval" validate:"-"`
	StoreMaxAgeRaw   string `toml:"store_max_age" yaml:"store_max_age" validate:"-"`
}

// WeatherLocation converts the configured location to the domain type.
func (c *AppConfig) WeatherLocation() weather.Location {
	return weather.Location{
		Name:      c.Location.Name,
		Latitude:  c.Location.Latitude,
		Longitude: c.Location.Longitude,
	}
}

// Default returns the configuration used when nothing is set.
func Default() *AppConfig {
	return &AppConfig{
		Provider:         "openmeteo",
		HTTPMaxRetries:   3,
		RateLimitBurst:   1,
		StoreMaxHistory:  96, // roughly 24h at 15-minute intervals
		Port:             "8080",
		LogLevel:         "info",
		LogFormat:        "json",
		HTTPTimeoutRaw:   "10s",
		FetchIntervalRaw: "15m",
		StoreMaxAgeRaw:   "24h",
		Location: LocationConfig{
			Name:      "Denver",
			Latitude:  39.7392,
			Longitude: -104.9903,
		},
	}
}

// Load reads configuration from an optional file named by CONFIG_FILE and
// then from the environment, which wins over the file.
func Load() (*AppConfig, error) {
	// .env is optional; a missing file leaves the environment untouched.
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a TOML or YAML file on top of the defaults without
// consulting the environment.
func LoadFile(path string) (*AppConfig, error) {
	cfg := Default()
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	cfg.Provider = getenvDefault("WEATHER_PROVIDER", cfg.Provider)
	cfg.OpenWeatherAPIKey = getenvDefault("OPENWEATHER_API_KEY", cfg.OpenWeatherAPIKey)
	cfg.OpenMeteoBaseURL = getenvDefault("OPENMETEO_BASE_URL", cfg.OpenMeteoBaseURL)
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", cfg.OpenWeatherBaseURL)

	cfg.HTTPTimeoutRaw = getenvDefault("HTTP_TIMEOUT", cfg.HTTPTimeoutRaw)
	var err error
	if cfg.HTTPMaxRetries, err = getenvInt("HTTP_MAX_RETRIES", cfg.HTTPMaxRetries); err != nil {
		return err
	}
	if cfg.RateLimitBurst, err = getenvInt("HTTP_RATE_LIMIT_BURST", cfg.RateLimitBurst); err != nil {
		return err
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid HTTP_RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = rps
	}

	cfg.FetchIntervalRaw = getenvDefault("FETCH_INTERVAL", cfg.FetchIntervalRaw)
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", cfg.StoreMaxHistory); err != nil {
		return err
	}
	cfg.StoreMaxAgeRaw = getenvDefault("STORE_MAX_AGE", cfg.StoreMaxAgeRaw)

	cfg.Port = getenvDefault("PORT", cfg.Port)
	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenvDefault("LOG_FORMAT", cfg.LogFormat)

	return loadPrimaryLocation(cfg)
}

func loadPrimaryLocation(cfg *AppConfig) error {
	cfg.Location.Name = getenvDefault("WEATHER_LOCATION_NAME", cfg.Location.Name)

	if v := os.Getenv("WEATHER_LOCATION_LAT"); v != "" {
		lat, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid WEATHER_LOCATION_LAT: %w", err)
		}
		cfg.Location.Latitude = lat
	}
	if v := os.Getenv("WEATHER_LOCATION_LON"); v != "" {
		lon, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid WEATHER_LOCATION_LON: %w", err)
		}
		cfg.Location.Longitude = lon
	}
	return nil
}

// finalize parses durations and validates the result.
func (c *AppConfig) finalize() error {
	var err error
	if c.HTTPTimeout, err = time.ParseDuration(c.HTTPTimeoutRaw); err != nil {
		return fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	if c.FetchInterval, err = time.ParseDuration(c.FetchIntervalRaw); err != nil {
		return fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	if c.StoreMaxAge, err = time.ParseDuration(c.StoreMaxAgeRaw); err != nil {
		return fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}

	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := validate.Struct(c.WeatherLocation()); err != nil {
		return fmt.Errorf("invalid location: %w", err)
	}
	if c.Provider == "openweather" && c.OpenWeatherAPIKey == "" {
		return fmt.Errorf("OPENWEATHER_API_KEY is required for provider openweather")
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
