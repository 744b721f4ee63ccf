package packing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWeights is returned when weights are missing or not positive integers.
	ErrInvalidWeights = errors.New("invalid weights")
	// ErrInvalidCapacity is returned when the bin capacity is not a positive integer.
	ErrInvalidCapacity = errors.New("invalid capacity")
	// ErrInvalidObjective is returned for an unrecognized objective.
	ErrInvalidObjective = errors.New("invalid objective")
	// ErrInvalidMinItems is returned when min_items_per_bin is negative or malformed.
	ErrInvalidMinItems = errors.New("invalid minimum items per bin")
	// ErrInvalidBinCount is returned when balance_bins has no usable bin count.
	ErrInvalidBinCount = errors.New("invalid bin count")
	// ErrInvalidSortMethod is returned for an unrecognized sort method.
	ErrInvalidSortMethod = errors.New("invalid sort method")
	// ErrInvalidMaxBins is returned when the bin budget is negative or malformed.
	ErrInvalidMaxBins = errors.New("invalid bin limit")
	// ErrInvalidSeed is returned when the random seed is not an integer.
	ErrInvalidSeed = errors.New("invalid seed")

	// ErrUnknownStrategy is returned when no strategy is registered for an objective.
	ErrUnknownStrategy = errors.New("no strategy registered for objective")
	// ErrStrategyPanic wraps a panic recovered while a strategy was running.
	ErrStrategyPanic = errors.New("strategy panicked")
)

// ValidationError describes why a raw request was rejected.
type ValidationError struct {
	Field  string
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:  field,
		Err:    err,
		Detail: fmt.Sprintf(format, args...),
	}
}

// IsValidationError reports whether err stems from request validation.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
