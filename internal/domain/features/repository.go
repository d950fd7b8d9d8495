package features

import (
	"context"
)

// Repository defines the historical feature store.
//
// Upserts are keyed by (ticker, date): new non-nil fields overwrite, absent
// fields never null out stored values. Repeated writes for the same key must
// be tolerated (idempotent merge, not append). History is additive and must
// never be wholesale replaced.
type Repository interface {
	Upsert(ctx context.Context, records []Record) error

	// GetLatest returns the most recent record for a ticker, or
	// errors.ErrNotFound
	GetLatest(ctx context.Context, ticker string) (*Record, error)
}
