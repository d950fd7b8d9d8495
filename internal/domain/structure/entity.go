package structure

import "time"

// Snapshot holds per-(ticker, capture date) market-structure metrics derived
// from one chain snapshot. Purely computed; never persisted or mutated.
//
// Walls, max pain, ratios and ATM IV are nil when the chain cannot support
// them (empty side, zero call volume, no ATM contracts) rather than zero.
type Snapshot struct {
	Ticker      string
	CaptureDate time.Time

	CallWall *float64
	PutWall  *float64
	MaxPain  *float64

	PutCallVolumeRatio *float64
	PutCallOIRatio     *float64

	// Gamma exposure, both sides stored as positive magnitudes
	NetCallGamma float64
	NetPutGamma  float64
	TotalGEX     float64

	IVAvgATM *float64
}
