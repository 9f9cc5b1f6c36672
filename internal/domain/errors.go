package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRange     = errors.New("invalid grid range")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrPriceUnavailable = errors.New("price unavailable")
	ErrNewsUnavailable  = errors.New("news unavailable")

	ErrNotFound         = errors.New("not found")
	ErrPlanLimitReached = errors.New("plan limit reached")
)

// InvalidRangeError is returned when the bounds or grid count cannot form a grid.
type InvalidRangeError struct {
	Upper     float64
	Lower     float64
	GridCount int
	Reason    string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid grid range [%g, %g] x %d: %s", e.Lower, e.Upper, e.GridCount, e.Reason)
}

func (e *InvalidRangeError) Is(target error) bool { return target == ErrInvalidRange }

// InvalidParameterError is returned for a trading parameter outside its domain.
type InvalidParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s %g: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidParameterError) Is(target error) bool { return target == ErrInvalidParameter }

// PriceUnavailableError means no usable price exists for Symbol. Err holds the
// quote source failure, if any.
type PriceUnavailableError struct {
	Symbol string
	Err    error
}

func (e *PriceUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("price unavailable for %s: %v", e.Symbol, e.Err)
	}
	return fmt.Sprintf("price unavailable for %s", e.Symbol)
}

func (e *PriceUnavailableError) Is(target error) bool { return target == ErrPriceUnavailable }

func (e *PriceUnavailableError) Unwrap() error { return e.Err }
