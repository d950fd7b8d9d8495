package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrStoreUnavailable indicates a backing store cannot be reached.
	// This is the only condition that aborts an entire analytics run.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Pipeline-specific errors

var (
	// ErrNoSnapshot indicates no chain snapshot exists for a ticker
	ErrNoSnapshot = errors.New("no chain snapshot for ticker")

	// ErrNoPriceHistory indicates no price history exists for a ticker
	ErrNoPriceHistory = errors.New("no price history for ticker")

	// ErrInsufficientHistory indicates the price series is too short for
	// the requested indicator window
	ErrInsufficientHistory = errors.New("insufficient price history")

	// ErrRunNotCommitted indicates a reader asked for the latest batch
	// before any selection run has been committed
	ErrRunNotCommitted = errors.New("no committed selection run")
)

// TickerError carries the ticker whose processing failed so the caller can
// isolate it without cancelling sibling work.
type TickerError struct {
	Ticker string
	Err    error
}

// Error implements the error interface
func (e *TickerError) Error() string {
	return fmt.Sprintf("ticker %s: %v", e.Ticker, e.Err)
}

// Unwrap returns the wrapped error
func (e *TickerError) Unwrap() error {
	return e.Err
}

// NewTickerError wraps err with the failing ticker
func NewTickerError(ticker string, err error) *TickerError {
	return &TickerError{Ticker: ticker, Err: err}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
