package features

import (
	"math"

	"profitscout/internal/domain/features"
	"profitscout/internal/domain/pricehistory"
	"profitscout/internal/indicators"
	"profitscout/pkg/errors"
	"profitscout/pkg/logger"
)

// hvWindow is the trailing return count behind the hv_30 field
const hvWindow = 30

// ivSignalGap is the premium IV must carry over realized vol to read as rich
const ivSignalGap = 0.10

// deltaHorizons are the lookbacks, in qualifying rows, for the trend deltas
var deltaHorizons = []int{30, 90}

// Input is one ticker's worth of feature computation input. History must be
// ascending by date; IVAvgATM is optional chain-derived context.
type Input struct {
	Ticker   string
	History  []pricehistory.DailyBar
	IVAvgATM *float64
}

// Calculator turns a daily price series into one technical feature record for
// the most recent date. Short history is a normal outcome that yields null
// fields, never an error.
type Calculator struct {
	log *logger.Logger
}

// NewCalculator creates a feature calculator
func NewCalculator() *Calculator {
	return &Calculator{
		log: logger.Get().With("component", "feature_calculator"),
	}
}

// Compute produces the feature record for the latest bar in the input.
// Returns errors.ErrNoPriceHistory when the series is empty; every other
// shortfall degrades to nil fields on the record.
func (c *Calculator) Compute(in Input) (*features.Record, error) {
	if len(in.History) == 0 {
		return nil, errors.Wrapf(errors.ErrNoPriceHistory, "ticker %s", in.Ticker)
	}

	latest := in.History[len(in.History)-1]
	rec := &features.Record{
		Ticker:   in.Ticker,
		Date:     latest.Date,
		Open:     ptr(latest.Open),
		High:     ptr(latest.High),
		Low:      ptr(latest.Low),
		Close:    ptr(latest.Close),
		Volume:   ptrI(latest.Volume),
		IVAvgATM: in.IVAvgATM,
	}

	closes := pricehistory.Closes(in.History)

	if hv, ok := indicators.RealizedVol(closes, hvWindow); ok && len(closes) > hvWindow {
		rec.HV30 = ptr(hv)
	}
	rec.IVSignal = ivSignal(in.IVAvgATM, rec.HV30)

	ts := indicators.ComputeTechnicals(closes)
	last := len(closes) - 1
	if err := indicators.ValidateMinLength(len(closes), ts.FirstValid+1, "technicals"); err != nil || !ts.Defined(last) {
		c.log.Debugw("insufficient history for technicals",
			"ticker", in.Ticker, "bars", len(closes), "required", ts.FirstValid+1)
		return rec, nil
	}

	rec.RSI14 = ptr(ts.RSI[last])
	rec.MACD = ptr(ts.MACD[last])
	rec.SMA50 = ptr(ts.SMA50[last])
	rec.SMA200 = ptr(ts.SMA200[last])

	// Deltas compare the latest row against the row N qualifying rows back.
	// Qualifying rows are those where every indicator is defined, so both
	// endpoints of each delta carry real values.
	qualifying := len(closes) - ts.FirstValid
	for _, n := range deltaHorizons {
		if qualifying < n+1 {
			continue
		}
		past := last - n
		closeDelta := (closes[last] - closes[past]) / closes[past] * 100.0
		rsiDelta := ts.RSI[last] - ts.RSI[past]
		macdDelta := ts.MACD[last] - ts.MACD[past]
		if math.IsNaN(closeDelta) || math.IsInf(closeDelta, 0) {
			continue
		}
		switch n {
		case 30:
			rec.Close30dDeltaPct = ptr(closeDelta)
			rec.RSI30dDelta = ptr(rsiDelta)
			rec.MACD30dDelta = ptr(macdDelta)
		case 90:
			rec.Close90dDeltaPct = ptr(closeDelta)
			rec.RSI90dDelta = ptr(rsiDelta)
			rec.MACD90dDelta = ptr(macdDelta)
		}
	}

	return rec, nil
}

// ivSignal classifies implied volatility against realized volatility
func ivSignal(iv, hv *float64) features.IVSignal {
	if iv == nil || hv == nil {
		return features.IVSignalUnknown
	}
	if *iv > *hv+ivSignalGap {
		return features.IVSignalHigh
	}
	return features.IVSignalLow
}

func ptr(v float64) *float64 { return &v }
func ptrI(v int64) *int64    { return &v }
