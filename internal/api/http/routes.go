package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-forecast/internal/store"
	"github.com/i474232898/weather-forecast/internal/weather"
)

// RequestIDHeader carries the per-request id on every response.
const RequestIDHeader = "X-Request-ID"

var validate = validator.New()

// Deps are the collaborators the handlers use. Home is the location the
// scheduler keeps fresh; /latest and /history read its reports.
type Deps struct {
	Service *weather.Service
	Reports weather.Store
	Home    weather.Location
	Logger  *zap.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	v1 := app.Group("/api/v1", requestID)

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		loc, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		current, err := deps.Service.CurrentConditions(c.UserContext(), loc)
		if err != nil {
			return providerError(logger, c, err)
		}
		return c.JSON(current)
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		loc, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		days, err := deps.Service.DailyForecast(c.UserContext(), loc)
		if err != nil {
			return providerError(logger, c, err)
		}
		return c.JSON(fiber.Map{
			"provider": deps.Service.ProviderName(),
			"location": loc,
			"days":     days,
			"summary":  weather.Summarize(days),
		})
	})

	v1.Get("/weather/latest", func(c *fiber.Ctx) error {
		report, err := deps.Reports.GetLatest(deps.Home)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather report yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather report")
		}
		return c.JSON(report)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		reports, err := deps.Reports.GetRange(deps.Home, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"location": deps.Home,
			"from":     req.From,
			"to":       req.To,
			"reports":  reports,
		})
	})
}

// requestID reuses an incoming X-Request-ID or assigns a fresh one.
func requestID(c *fiber.Ctx) error {
	id := c.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(RequestIDHeader, id)
	c.Locals("requestid", id)
	return c.Next()
}

// StatusFor maps a forecast error to an HTTP status code.
func StatusFor(err error) int {
	var reqErr *weather.RequestConstructionError
	var netErr *weather.NetworkError

	switch {
	case errors.As(err, &reqErr):
		return fiber.StatusBadRequest
	case errors.As(err, &netErr), errors.Is(err, weather.ErrNoCurrentObservation):
		return fiber.StatusBadGateway
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// providerError logs err and answers with a status from StatusFor. Only
// request-construction failures echo the error; upstream failures get a
// fixed message so nothing from the provider URL reaches the client.
func providerError(logger *zap.Logger, c *fiber.Ctx, err error) error {
	code := StatusFor(err)
	id := c.GetRespHeader(RequestIDHeader)
	logger.Info("forecast request failed",
		zap.String("request_id", id),
		zap.String("path", c.Path()),
		zap.Int("status", code),
		zap.Error(err))

	message := "weather provider request failed"
	if code < fiber.StatusInternalServerError {
		message = err.Error()
	}
	return c.Status(code).JSON(fiber.Map{
		"error":     true,
		"message":   message,
		"requestId": id,
	})
}

// locationQuery holds query parameters for identifying a location.
type locationQuery struct {
	Name      string `validate:"omitempty,max=128"`
	Latitude  string `validate:"required,latitude"`
	Longitude string `validate:"required,longitude"`
}

func (l locationQuery) toLocation() (weather.Location, error) {
	lat, err := strconv.ParseFloat(l.Latitude, 64)
	if err != nil {
		return weather.Location{}, err
	}
	lon, err := strconv.ParseFloat(l.Longitude, 64)
	if err != nil {
		return weather.Location{}, err
	}
	return weather.Location{
		Name:      l.Name,
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

func parseLocationQuery(c *fiber.Ctx) (weather.Location, error) {
	q := locationQuery{
		Name:      c.Query("name"),
		Latitude:  c.Query("lat"),
		Longitude: c.Query("lon"),
	}

	if err := validate.Struct(q); err != nil {
		return weather.Location{}, err
	}

	return q.toLocation()
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
