package chain

import (
	"context"
	"time"
)

// Repository defines read access to chain snapshots
type Repository interface {
	// LatestCaptureDate returns the most recent capture date for a ticker.
	// Returns errors.ErrNoSnapshot when the ticker has no chain at all.
	LatestCaptureDate(ctx context.Context, ticker string) (time.Time, error)

	// GetSnapshot returns all contracts for (ticker, captureDate)
	GetSnapshot(ctx context.Context, ticker string, captureDate time.Time) (*Snapshot, error)

	// GetLatestSnapshot returns the snapshot with the maximum capture date
	GetLatestSnapshot(ctx context.Context, ticker string) (*Snapshot, error)
}
