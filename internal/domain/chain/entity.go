package chain

import "time"

// OptionType identifies the side of an option contract
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ContractQuote is one observed option contract at one capture time
type ContractQuote struct {
	Ticker            string     `ch:"ticker"`
	ContractID        string     `ch:"contract_id"`
	OptionType        OptionType `ch:"option_type"`
	ExpirationDate    time.Time  `ch:"expiration_date"`
	Strike            float64    `ch:"strike"`
	LastPrice         float64    `ch:"last_price"`
	Bid               float64    `ch:"bid"`
	Ask               float64    `ch:"ask"`
	Volume            int64      `ch:"volume"`
	OpenInterest      int64      `ch:"open_interest"`
	ImpliedVolatility float64    `ch:"implied_volatility"`
	Delta             float64    `ch:"delta"`
	Theta             float64    `ch:"theta"`
	Vega              float64    `ch:"vega"`
	Gamma             float64    `ch:"gamma"`
	UnderlyingPrice   *float64   `ch:"underlying_price"`
	CaptureDate       time.Time  `ch:"capture_date"`
}

// MidPrice derives the contract mid: (bid+ask)/2 when both sides are positive,
// last price as a fallback, otherwise undefined. A contract without a defined
// mid is ineligible for any pipeline that needs a price.
func (q *ContractQuote) MidPrice() (float64, bool) {
	if q.Bid > 0 && q.Ask > 0 {
		return (q.Bid + q.Ask) / 2.0, true
	}
	if q.LastPrice > 0 {
		return q.LastPrice, true
	}
	return 0, false
}

// DTE returns calendar days between capture and expiration
func (q *ContractQuote) DTE() int {
	return int(q.ExpirationDate.Sub(q.CaptureDate).Hours() / 24)
}

// IsCall reports whether the contract is a call, treating anything that is not
// a put as a call (matching upstream vendor feeds that only emit the two types)
func (q *ContractQuote) IsCall() bool {
	return q.OptionType != Put
}

// Snapshot is the full chain for one ticker at one capture date.
// Immutable once captured; the latest snapshot for a ticker is the one with
// the maximum capture date.
type Snapshot struct {
	Ticker      string
	CaptureDate time.Time
	Contracts   []ContractQuote
}

// UnderlyingPrice returns the first non-nil underlying price observed on the
// chain, or 0 when no contract carries one.
func (s *Snapshot) UnderlyingPrice() float64 {
	for i := range s.Contracts {
		if p := s.Contracts[i].UnderlyingPrice; p != nil && *p > 0 {
			return *p
		}
	}
	return 0
}
