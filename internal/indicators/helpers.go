package indicators

import (
	"profitscout/pkg/errors"
)

// ValidateMinLength checks if a series is long enough for a calculation
func ValidateMinLength(n, minLength int, indicatorName string) error {
	if n < minLength {
		return errors.Wrapf(errors.ErrInsufficientHistory,
			"%s requires at least %d observations, got %d",
			indicatorName, minLength, n)
	}
	return nil
}
