package candidate

import (
	"time"

	"github.com/google/uuid"

	"profitscout/internal/domain/chain"
)

// Signal is the trade direction attached to a candidate
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
)

// SignalFor derives the default signal from the contract side
func SignalFor(optionType chain.OptionType) Signal {
	if optionType == chain.Put {
		return SignalSell
	}
	return SignalBuy
}

// Record is one selected option contract with its derived edge math, score
// and rank. A full batch of records is produced per run and wholly replaces
// the previous batch.
type Record struct {
	SelectionRunID uuid.UUID `db:"selection_run_id"`
	Ticker         string    `db:"ticker"`
	Signal         Signal    `db:"signal"`

	// Carried-through contract fields
	ContractID        string           `db:"contract_id"`
	OptionType        chain.OptionType `db:"option_type"`
	ExpirationDate    time.Time        `db:"expiration_date"`
	Strike            float64          `db:"strike"`
	LastPrice         float64          `db:"last_price"`
	Bid               float64          `db:"bid"`
	Ask               float64          `db:"ask"`
	Volume            int64            `db:"volume"`
	OpenInterest      int64            `db:"open_interest"`
	ImpliedVolatility float64          `db:"implied_volatility"`
	Delta             float64          `db:"delta"`
	Theta             float64          `db:"theta"`
	Vega              float64          `db:"vega"`
	Gamma             float64          `db:"gamma"`
	UnderlyingPrice   float64          `db:"underlying_price"`
	CaptureDate       time.Time        `db:"capture_date"`

	// Derived edge math
	MidPrice             float64 `db:"mid_price"`
	SpreadPct            float64 `db:"spread_pct"`
	DTE                  int     `db:"dte"`
	Moneyness            float64 `db:"moneyness"`
	MoneynessPct         float64 `db:"moneyness_pct"`
	ExpectedMovePct      float64 `db:"expected_move_pct"`
	BreakevenDistancePct float64 `db:"breakeven_distance_pct"`

	// Score and 1-based rank, unique within (ticker, option_type)
	CompositeScore float64 `db:"composite_score"`
	Rank           int     `db:"rank"`
}

// Batch is the atomic output of one selection run
type Batch struct {
	RunID   uuid.UUID
	RunAt   time.Time
	Records []Record
}
