package pricecache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profitscout/internal/domain/pricehistory"
	"profitscout/pkg/errors"
)

type fakeStore struct {
	closes map[string]float64
	calls  int
}

func (f *fakeStore) GetHistory(context.Context, string, int) ([]pricehistory.DailyBar, error) {
	return nil, nil
}

func (f *fakeStore) GetLatestClose(_ context.Context, ticker string) (float64, time.Time, error) {
	f.calls++
	c, ok := f.closes[ticker]
	if !ok {
		return 0, time.Time{}, errors.Wrapf(errors.ErrNoPriceHistory, "ticker %s", ticker)
	}
	return c, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), nil
}

func TestLatestClose_NoRedisGoesToStore(t *testing.T) {
	store := &fakeStore{closes: map[string]float64{"ACME": 101.25}}
	cache := New(store, nil, 0)

	close, date, err := cache.LatestClose(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 101.25, close)
	assert.False(t, date.IsZero())
	assert.Equal(t, 1, store.calls)

	// Without a cache every read hits the store
	_, _, err = cache.LatestClose(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestLatestClose_MissingTicker(t *testing.T) {
	cache := New(&fakeStore{}, nil, 0)
	_, _, err := cache.LatestClose(context.Background(), "NEWCO")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoPriceHistory))
}
