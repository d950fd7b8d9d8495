package features

import "time"

// IVSignal compares the ATM implied volatility to realized volatility
type IVSignal string

const (
	IVSignalHigh    IVSignal = "high"
	IVSignalLow     IVSignal = "low"
	IVSignalUnknown IVSignal = "unknown"
)

// Record is one (ticker, date) row of the technical feature store.
//
// Optional fields are pointers: nil means "this run did not produce the
// value", which the upsert contract must preserve rather than null out.
// Missing history is a normal outcome for recently listed tickers, never
// an error.
type Record struct {
	Ticker string    `db:"ticker"`
	Date   time.Time `db:"date"`

	Open   *float64 `db:"open"`
	High   *float64 `db:"high"`
	Low    *float64 `db:"low"`
	Close  *float64 `db:"close"`
	Volume *int64   `db:"volume"`

	RSI14  *float64 `db:"rsi_14"`
	MACD   *float64 `db:"macd"`
	SMA50  *float64 `db:"sma_50"`
	SMA200 *float64 `db:"sma_200"`

	HV30     *float64 `db:"hv_30"`
	IVAvgATM *float64 `db:"iv_avg_atm"`
	IVSignal IVSignal `db:"iv_signal"`

	Close30dDeltaPct *float64 `db:"close_30d_delta_pct"`
	RSI30dDelta      *float64 `db:"rsi_30d_delta"`
	MACD30dDelta     *float64 `db:"macd_30d_delta"`
	Close90dDeltaPct *float64 `db:"close_90d_delta_pct"`
	RSI90dDelta      *float64 `db:"rsi_90d_delta"`
	MACD90dDelta     *float64 `db:"macd_90d_delta"`

	// Market-structure context merged in by the enrichment run
	TotalGEX        *float64 `db:"total_gex"`
	NetCallGamma    *float64 `db:"net_call_gamma"`
	NetPutGamma     *float64 `db:"net_put_gamma"`
	CallWall        *float64 `db:"call_wall"`
	PutWall         *float64 `db:"put_wall"`
	MaxPain         *float64 `db:"max_pain"`
	PutCallVolRatio *float64 `db:"put_call_vol_ratio"`
	PutCallOIRatio  *float64 `db:"put_call_oi_ratio"`
}

// Merge overlays update onto r: fields the update produced overwrite, fields
// it did not produce are left untouched. Mirrors the store-level upsert so
// in-process callers get identical semantics.
func (r *Record) Merge(update *Record) {
	if update == nil {
		return
	}
	mergeF := func(dst **float64, src *float64) {
		if src != nil {
			*dst = src
		}
	}
	mergeF(&r.Open, update.Open)
	mergeF(&r.High, update.High)
	mergeF(&r.Low, update.Low)
	mergeF(&r.Close, update.Close)
	if update.Volume != nil {
		r.Volume = update.Volume
	}
	mergeF(&r.RSI14, update.RSI14)
	mergeF(&r.MACD, update.MACD)
	mergeF(&r.SMA50, update.SMA50)
	mergeF(&r.SMA200, update.SMA200)
	mergeF(&r.HV30, update.HV30)
	mergeF(&r.IVAvgATM, update.IVAvgATM)
	if update.IVSignal != "" {
		r.IVSignal = update.IVSignal
	}
	mergeF(&r.Close30dDeltaPct, update.Close30dDeltaPct)
	mergeF(&r.RSI30dDelta, update.RSI30dDelta)
	mergeF(&r.MACD30dDelta, update.MACD30dDelta)
	mergeF(&r.Close90dDeltaPct, update.Close90dDeltaPct)
	mergeF(&r.RSI90dDelta, update.RSI90dDelta)
	mergeF(&r.MACD90dDelta, update.MACD90dDelta)
	mergeF(&r.TotalGEX, update.TotalGEX)
	mergeF(&r.NetCallGamma, update.NetCallGamma)
	mergeF(&r.NetPutGamma, update.NetPutGamma)
	mergeF(&r.CallWall, update.CallWall)
	mergeF(&r.PutWall, update.PutWall)
	mergeF(&r.MaxPain, update.MaxPain)
	mergeF(&r.PutCallVolRatio, update.PutCallVolRatio)
	mergeF(&r.PutCallOIRatio, update.PutCallOIRatio)
}
