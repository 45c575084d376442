package impact

import (
	"errors"
	"fmt"
)

var (
	// ErrDataSourceUnavailable marks a failed read from the ledger. The analysis is abandoned as a whole.
	ErrDataSourceUnavailable = errors.New("data source unavailable")

	// ErrUndefinedROI is returned when the event has no positive cost to compare against.
	ErrUndefinedROI = errors.New("no cost to compare")

	// ErrMissingBaseline is returned when the month baseline has no contributing days.
	ErrMissingBaseline = errors.New("month baseline has no data")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDataSourceUnavailable, op, err)
}
