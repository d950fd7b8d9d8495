package pricehistory

import (
	"context"
	"time"
)

// Repository defines read access to daily price history
type Repository interface {
	// GetHistory returns the trailing windowDays of bars for a ticker,
	// ascending by date. An empty slice means no history, not an error.
	GetHistory(ctx context.Context, ticker string, windowDays int) ([]DailyBar, error)

	// GetLatestClose returns the most recent close and its date.
	// Returns errors.ErrNoPriceHistory when the ticker has no bars.
	GetLatestClose(ctx context.Context, ticker string) (float64, time.Time, error)
}
