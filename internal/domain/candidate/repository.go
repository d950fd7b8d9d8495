package candidate

import (
	"context"
)

// Repository defines the destination store for candidate batches.
//
// ReplaceBatch must be atomic from a reader's point of view: readers of the
// latest batch never observe a half-written generation, and the previous
// batch stays authoritative until the new one is committed.
type Repository interface {
	ReplaceBatch(ctx context.Context, batch *Batch) error

	// GetLatestBatch returns the records of the latest committed run with
	// composite score >= minScore (0 returns all). Returns
	// errors.ErrRunNotCommitted when no run has ever been committed.
	GetLatestBatch(ctx context.Context, minScore float64) ([]Record, error)

	// GetLatestRunTickers returns the distinct tickers in the latest
	// committed run
	GetLatestRunTickers(ctx context.Context) ([]string, error)
}

// UniverseProvider supplies the set of tickers eligible for selection.
// How the universe is gated (directional-score thresholds etc.) is the
// caller's concern.
type UniverseProvider interface {
	EligibleTickers(ctx context.Context) ([]string, error)
}
