package indicators

import (
	"github.com/markcheno/go-talib"
)

// Standard lookbacks used across the pipeline
const (
	RSILen     = 14
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
	SMA50Len   = 50
	SMA200Len  = 200
)

// TechnicalSeries holds full indicator series aligned with the input closes.
// Entries before FirstValid are ta-lib warm-up output and must be ignored.
type TechnicalSeries struct {
	RSI    []float64
	MACD   []float64
	SMA50  []float64
	SMA200 []float64

	// FirstValid is the first index at which every series is defined
	FirstValid int
}

// ComputeTechnicals computes RSI-14, MACD(12,26,9) line, SMA-50 and SMA-200
// over an ascending close series using ta-lib.
func ComputeTechnicals(closes []float64) TechnicalSeries {
	ts := TechnicalSeries{
		RSI:    talib.Rsi(closes, RSILen),
		SMA50:  talib.Sma(closes, SMA50Len),
		SMA200: talib.Sma(closes, SMA200Len),
	}
	macd, _, _ := talib.Macd(closes, MACDFast, MACDSlow, MACDSignal)
	ts.MACD = macd

	// ta-lib lookbacks: RSI period, SMA period-1, MACD slow+signal-2.
	// SMA-200 dominates for any realistic configuration.
	ts.FirstValid = maxInt(RSILen, maxInt(SMA200Len-1, MACDSlow+MACDSignal-2))
	return ts
}

// Defined reports whether index i has valid values in every series
func (ts TechnicalSeries) Defined(i int) bool {
	return i >= ts.FirstValid && i < len(ts.RSI)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
