package domain

import (
	"errors"
	"strings"
)

var (
	// ErrMissingTable is returned when the named source table does not exist
	ErrMissingTable = errors.New("base sheet does not exist")

	// ErrUnresolvableColumn is matched by every *UnresolvableColumnError
	ErrUnresolvableColumn = errors.New("required column not found in header row")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrSinkFailure is returned when the result table cannot be written
	ErrSinkFailure = errors.New("result sink write failed")

	// ErrSourceFailure is returned when a remote table source fails to answer
	ErrSourceFailure = errors.New("table source request failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

// UnresolvableColumnError lists the required columns absent from a header row
type UnresolvableColumnError struct {
	Missing []string
}

func (e *UnresolvableColumnError) Error() string {
	return ErrUnresolvableColumn.Error() + ": " + strings.Join(e.Missing, ", ")
}

// Is reports ErrUnresolvableColumn as a match so callers can use errors.Is
func (e *UnresolvableColumnError) Is(target error) bool {
	return target == ErrUnresolvableColumn
}
