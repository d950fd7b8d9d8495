package pricehistory

import "time"

// DailyBar is one day of OHLCV for an underlying
type DailyBar struct {
	Ticker string    `ch:"ticker"`
	Date   time.Time `ch:"date"`
	Open   float64   `ch:"open"`
	High   float64   `ch:"high"`
	Low    float64   `ch:"low"`
	Close  float64   `ch:"close"`
	Volume int64     `ch:"volume"`
}

// Closes extracts closing prices from an ascending series
func Closes(bars []DailyBar) []float64 {
	closes := make([]float64, len(bars))
	for i := range bars {
		closes[i] = bars[i].Close
	}
	return closes
}
