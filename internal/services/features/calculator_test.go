package features

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profitscout/internal/domain/features"
	"profitscout/internal/domain/pricehistory"
	"profitscout/internal/indicators"
	"profitscout/pkg/errors"
)

// bars builds an ascending daily series with a reproducible random walk
func bars(n int, seed int64) []pricehistory.DailyBar {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	price := 100.0
	out := make([]pricehistory.DailyBar, n)
	for i := 0; i < n; i++ {
		price *= 1 + (rng.Float64()-0.48)*0.02
		out[i] = pricehistory.DailyBar{
			Ticker: "ACME",
			Date:   start.AddDate(0, 0, i),
			Open:   price * 0.995,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: int64(1_000_000 + rng.Intn(500_000)),
		}
	}
	return out
}

func TestCompute_EmptyHistory(t *testing.T) {
	_, err := NewCalculator().Compute(Input{Ticker: "ACME"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoPriceHistory))
}

func TestCompute_ShortHistoryDegrades(t *testing.T) {
	history := bars(50, 1)
	rec, err := NewCalculator().Compute(Input{Ticker: "ACME", History: history})
	require.NoError(t, err)
	require.NotNil(t, rec)

	latest := history[len(history)-1]
	assert.Equal(t, "ACME", rec.Ticker)
	assert.Equal(t, latest.Date, rec.Date)
	require.NotNil(t, rec.Close)
	assert.Equal(t, latest.Close, *rec.Close)

	// 50 bars: realized vol is computable, the 200-day indicators are not
	assert.NotNil(t, rec.HV30)
	assert.Nil(t, rec.RSI14)
	assert.Nil(t, rec.SMA200)
	assert.Nil(t, rec.Close30dDeltaPct)
	assert.Equal(t, features.IVSignalUnknown, rec.IVSignal)
}

func TestCompute_TechnicalsWithoutDeltas(t *testing.T) {
	// 210 bars define every indicator but leave only 11 qualifying rows,
	// short of the 31 the 30-day deltas require
	rec, err := NewCalculator().Compute(Input{Ticker: "ACME", History: bars(210, 2)})
	require.NoError(t, err)

	assert.NotNil(t, rec.RSI14)
	assert.NotNil(t, rec.MACD)
	assert.NotNil(t, rec.SMA50)
	assert.NotNil(t, rec.SMA200)
	assert.Nil(t, rec.Close30dDeltaPct)
	assert.Nil(t, rec.Close90dDeltaPct)
}

func TestCompute_FullHistory(t *testing.T) {
	history := bars(400, 3)
	rec, err := NewCalculator().Compute(Input{Ticker: "ACME", History: history})
	require.NoError(t, err)

	require.NotNil(t, rec.Close30dDeltaPct)
	require.NotNil(t, rec.RSI30dDelta)
	require.NotNil(t, rec.MACD30dDelta)
	require.NotNil(t, rec.Close90dDeltaPct)
	require.NotNil(t, rec.RSI90dDelta)
	require.NotNil(t, rec.MACD90dDelta)

	closes := pricehistory.Closes(history)
	last := len(closes) - 1
	want30 := (closes[last] - closes[last-30]) / closes[last-30] * 100.0
	want90 := (closes[last] - closes[last-90]) / closes[last-90] * 100.0
	assert.InDelta(t, want30, *rec.Close30dDeltaPct, 1e-9)
	assert.InDelta(t, want90, *rec.Close90dDeltaPct, 1e-9)

	ts := indicators.ComputeTechnicals(closes)
	assert.InDelta(t, ts.RSI[last], *rec.RSI14, 1e-9)
	assert.InDelta(t, ts.RSI[last]-ts.RSI[last-30], *rec.RSI30dDelta, 1e-9)
	assert.InDelta(t, ts.MACD[last]-ts.MACD[last-90], *rec.MACD90dDelta, 1e-9)

	hv, ok := indicators.RealizedVol(closes, 30)
	require.True(t, ok)
	require.NotNil(t, rec.HV30)
	assert.InDelta(t, hv, *rec.HV30, 1e-12)
	assert.Positive(t, *rec.HV30)
	assert.False(t, math.IsNaN(*rec.HV30))
}

func TestCompute_IVSignal(t *testing.T) {
	history := bars(400, 4)
	closes := pricehistory.Closes(history)
	hv, ok := indicators.RealizedVol(closes, 30)
	require.True(t, ok)

	calc := NewCalculator()

	rich := hv + 0.25
	rec, err := calc.Compute(Input{Ticker: "ACME", History: history, IVAvgATM: &rich})
	require.NoError(t, err)
	assert.Equal(t, features.IVSignalHigh, rec.IVSignal)
	require.NotNil(t, rec.IVAvgATM)
	assert.Equal(t, rich, *rec.IVAvgATM)

	fair := hv + 0.05
	rec, err = calc.Compute(Input{Ticker: "ACME", History: history, IVAvgATM: &fair})
	require.NoError(t, err)
	assert.Equal(t, features.IVSignalLow, rec.IVSignal)

	rec, err = calc.Compute(Input{Ticker: "ACME", History: history})
	require.NoError(t, err)
	assert.Equal(t, features.IVSignalUnknown, rec.IVSignal)
}

func TestCompute_Idempotent(t *testing.T) {
	history := bars(400, 5)
	calc := NewCalculator()

	first, err := calc.Compute(Input{Ticker: "ACME", History: history})
	require.NoError(t, err)
	second, err := calc.Compute(Input{Ticker: "ACME", History: history})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
