package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCurrentObservation is returned when current conditions are derived
	// from a series that has no point at the provider's "now".
	ErrNoCurrentObservation = errors.New("no matching current-conditions point in fetched series")
	// ErrEmptyDay is returned when building a DailyAggregate without observations.
	ErrEmptyDay = errors.New("daily aggregate requires at least one observation")
	// ErrDayMismatch is returned when an observation falls outside the aggregate's day.
	ErrDayMismatch = errors.New("observation does not fall on aggregate date")
	// ErrMissingField is returned when a required provider field is absent.
	ErrMissingField = errors.New("required field missing")
	// ErrMissingAPIKey is returned when a provider needs a key that is not configured.
	ErrMissingAPIKey = errors.New("api key is not configured")
)

// RequestConstructionError reports that a provider request URL could not be built.
type RequestConstructionError struct {
	Provider string
	Err      error
}

func (e *RequestConstructionError) Error() string {
	return fmt.Sprintf("%s: cannot construct request: %v", e.Provider, e.Err)
}

func (e *RequestConstructionError) Unwrap() error {
	return e.Err
}

// NetworkError wraps a transport or response-decoding failure.
type NetworkError struct {
	Provider string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Provider, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
