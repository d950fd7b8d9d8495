package selector

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"profitscout/internal/domain/candidate"
	"profitscout/internal/domain/chain"
	"profitscout/pkg/logger"
)

// Composite score weights. They must sum to 1.
const (
	weightDelta     = 0.35
	weightTheta     = 0.25
	weightLiquidity = 0.20
	weightIVPctl    = 0.10
	weightGamma     = 0.10
)

// spreadPenaltyCap caps the spread used by the liquidity penalty: anything at
// or above 20% zeroes the liquidity sub-score entirely.
const spreadPenaltyCap = 0.20

// neutralSubScore is the fallback when a partition cannot be normalized
// (single member, or max == min)
const neutralSubScore = 0.5

// Config holds every selection threshold. All thresholds are explicit; the
// selector has no hidden defaults of its own.
type Config struct {
	MinDTE          int
	MaxDTE          int
	MinMoneyness    float64
	MaxMoneyness    float64
	MinOpenInterest int64
	MinVolume       int64
	MaxSpreadPct    float64
	MinMidPrice     float64
	MinAbsDelta     float64
	MaxAbsDelta     float64

	// ExpectedMoveHaircut discounts the statistical expected move used by
	// the edge-realism gate, in (0, 1]
	ExpectedMoveHaircut float64

	// MaxCandidatesPerPartition truncates each (ticker, option_type)
	// partition after ranking. 0 keeps every ranked survivor.
	MaxCandidatesPerPartition int
}

// DefaultConfig returns the production thresholds: a tightened window that
// tilts long-option expectancy toward liquid, modestly out-of-the-money
// contracts whose breakeven sits inside their own expected move.
func DefaultConfig() Config {
	return Config{
		MinDTE:                    10,
		MaxDTE:                    60,
		MinMoneyness:              1.02,
		MaxMoneyness:              1.10,
		MinOpenInterest:           300,
		MinVolume:                 0,
		MaxSpreadPct:              0.12,
		MinMidPrice:               0.50,
		MinAbsDelta:               0.25,
		MaxAbsDelta:               0.45,
		ExpectedMoveHaircut:       0.85,
		MaxCandidatesPerPartition: 0,
	}
}

// Input is one ticker's worth of selection input
type Input struct {
	Snapshot *chain.Snapshot

	// SpotFallback is the latest known close, used when a contract does
	// not carry an underlying price
	SpotFallback float64

	// IVPercentile is the ticker's IV percentile in [0,1] when the caller
	// has one; nil falls back to a neutral 0.5
	IVPercentile *float64

	// SignalOverride replaces the derived BUY/SELL signal with an
	// externally supplied directional hint
	SignalOverride *candidate.Signal
}

// Selector filters, scores and ranks option contracts from a single chain
// snapshot. It is a pure computation: same snapshot and config always yield
// the same records with the same ranks.
type Selector struct {
	cfg Config
	log *logger.Logger
}

// New creates a selector with the given thresholds
func New(cfg Config) *Selector {
	return &Selector{
		cfg: cfg,
		log: logger.Get().With("component", "candidate_selector"),
	}
}

// Config returns the thresholds the selector runs with
func (s *Selector) Config() Config {
	return s.cfg
}

// scored is a surviving contract with its derived edge math
type scored struct {
	quote                chain.ContractQuote
	spot                 float64
	midPrice             float64
	spreadPct            float64
	dte                  int
	moneyness            float64
	moneynessPct         float64
	expectedMovePct      float64
	breakevenDistancePct float64
	composite            float64
}

// Select runs derive → filter → score → rank for one ticker and returns its
// candidate records tagged with runID. A nil or empty snapshot yields zero
// records.
func (s *Selector) Select(runID uuid.UUID, in Input) []candidate.Record {
	if in.Snapshot == nil || len(in.Snapshot.Contracts) == 0 {
		return nil
	}

	// Partition survivors by option type; scoring normalizes within a
	// (ticker, option_type) partition only.
	partitions := map[chain.OptionType][]scored{}
	for i := range in.Snapshot.Contracts {
		sc, ok := s.derive(&in.Snapshot.Contracts[i], in.SpotFallback)
		if !ok {
			continue
		}
		side := chain.Call
		if !sc.quote.IsCall() {
			side = chain.Put
		}
		partitions[side] = append(partitions[side], sc)
	}

	ivPctl := neutralSubScore
	if in.IVPercentile != nil {
		ivPctl = *in.IVPercentile
	}

	var out []candidate.Record
	for _, side := range []chain.OptionType{chain.Call, chain.Put} {
		members := partitions[side]
		if len(members) == 0 {
			continue
		}
		s.score(members, ivPctl)
		s.rank(members)

		limit := len(members)
		if s.cfg.MaxCandidatesPerPartition > 0 && s.cfg.MaxCandidatesPerPartition < limit {
			limit = s.cfg.MaxCandidatesPerPartition
		}

		for i := 0; i < limit; i++ {
			out = append(out, s.toRecord(runID, &members[i], i+1, in.SignalOverride))
		}
	}

	return out
}

// derive computes the per-contract edge math and applies every filter.
// Any undefined intermediate value is a filter failure, never an error.
func (s *Selector) derive(q *chain.ContractQuote, spotFallback float64) (scored, bool) {
	sc := scored{quote: *q}

	sc.spot = spotFallback
	if q.UnderlyingPrice != nil && *q.UnderlyingPrice > 0 {
		sc.spot = *q.UnderlyingPrice
	}
	if sc.spot <= 0 || q.Strike <= 0 {
		return sc, false
	}

	sc.dte = q.DTE()
	if sc.dte < s.cfg.MinDTE || sc.dte > s.cfg.MaxDTE {
		return sc, false
	}

	// Moneyness is oriented so both sides read "how far out of the money
	// in the trade's favorable direction": strike/spot for calls,
	// spot/strike for puts.
	if q.IsCall() {
		sc.moneyness = q.Strike / sc.spot
	} else {
		sc.moneyness = sc.spot / q.Strike
	}
	if sc.moneyness < s.cfg.MinMoneyness || sc.moneyness > s.cfg.MaxMoneyness {
		return sc, false
	}

	base := (sc.spot - q.Strike) / sc.spot
	if q.IsCall() {
		sc.moneynessPct = base * 100.0
	} else {
		sc.moneynessPct = -base * 100.0
	}

	if q.OpenInterest < s.cfg.MinOpenInterest || q.Volume < s.cfg.MinVolume {
		return sc, false
	}

	mid, ok := q.MidPrice()
	if !ok || mid < s.cfg.MinMidPrice {
		return sc, false
	}
	sc.midPrice = mid

	sc.spreadPct = (q.Ask - q.Bid) / mid
	if sc.spreadPct > s.cfg.MaxSpreadPct {
		return sc, false
	}

	// Non-finite greeks or IV make every downstream value undefined and a
	// single NaN would poison the partition's normalization, so they are a
	// filter failure like any other undefined intermediate.
	if !isFinite(q.Delta) || !isFinite(q.Theta) || !isFinite(q.Gamma) || !isFinite(q.ImpliedVolatility) {
		return sc, false
	}

	absDelta := math.Abs(q.Delta)
	if absDelta < s.cfg.MinAbsDelta || absDelta > s.cfg.MaxAbsDelta {
		return sc, false
	}

	// Edge realism: reject contracts whose breakeven requires a move
	// larger than the haircut expected move implied by the contract's own
	// IV and horizon.
	sc.expectedMovePct = q.ImpliedVolatility * math.Sqrt(float64(sc.dte)/365.0) * s.cfg.ExpectedMoveHaircut * 100.0
	if q.IsCall() {
		sc.breakevenDistancePct = ((q.Strike + mid) - sc.spot) / sc.spot * 100.0
	} else {
		sc.breakevenDistancePct = (sc.spot - (q.Strike - mid)) / sc.spot * 100.0
	}
	if math.IsNaN(sc.expectedMovePct) || math.IsNaN(sc.breakevenDistancePct) {
		return sc, false
	}
	if sc.breakevenDistancePct > sc.expectedMovePct {
		return sc, false
	}

	return sc, true
}

// score assigns composite scores within one partition using independently
// min-max-normalized sub-scores
func (s *Selector) score(members []scored, ivPercentile float64) {
	absDelta := make([]float64, len(members))
	absTheta := make([]float64, len(members))
	absGamma := make([]float64, len(members))
	liquidity := make([]float64, len(members))
	for i := range members {
		q := &members[i].quote
		absDelta[i] = math.Abs(q.Delta)
		absTheta[i] = math.Abs(q.Theta)
		absGamma[i] = math.Abs(q.Gamma)
		liquidity[i] = math.Log10(1+float64(q.Volume)) + math.Log10(1+float64(q.OpenInterest))
	}

	nd := normalize(absDelta)
	it := normalizeInverse(absTheta)
	ng := normalize(absGamma)
	ls := normalize(liquidity)

	ivComplement := 1 - ivPercentile

	for i := range members {
		liq := ls[i]
		if !degenerate(liquidity) {
			// Penalize wide spreads; a spread at the cap zeroes liquidity
			penalty := 1 - math.Min(members[i].spreadPct, spreadPenaltyCap)/spreadPenaltyCap
			liq *= penalty
		}
		members[i].composite = weightDelta*nd[i] +
			weightTheta*it[i] +
			weightLiquidity*liq +
			weightIVPctl*ivComplement +
			weightGamma*ng[i]
	}
}

// rank orders a partition by composite score descending with volume, open
// interest, then contract id as tie-breaks so reruns are byte-identical
func (s *Selector) rank(members []scored) {
	sort.Slice(members, func(i, j int) bool {
		a, b := &members[i], &members[j]
		if a.composite != b.composite {
			return a.composite > b.composite
		}
		if a.quote.Volume != b.quote.Volume {
			return a.quote.Volume > b.quote.Volume
		}
		if a.quote.OpenInterest != b.quote.OpenInterest {
			return a.quote.OpenInterest > b.quote.OpenInterest
		}
		return a.quote.ContractID < b.quote.ContractID
	})
}

func (s *Selector) toRecord(runID uuid.UUID, sc *scored, rank int, override *candidate.Signal) candidate.Record {
	q := &sc.quote

	sig := candidate.SignalFor(q.OptionType)
	if override != nil {
		sig = *override
	}

	return candidate.Record{
		SelectionRunID:       runID,
		Ticker:               q.Ticker,
		Signal:               sig,
		ContractID:           q.ContractID,
		OptionType:           q.OptionType,
		ExpirationDate:       q.ExpirationDate,
		Strike:               q.Strike,
		LastPrice:            q.LastPrice,
		Bid:                  q.Bid,
		Ask:                  q.Ask,
		Volume:               q.Volume,
		OpenInterest:         q.OpenInterest,
		ImpliedVolatility:    q.ImpliedVolatility,
		Delta:                q.Delta,
		Theta:                q.Theta,
		Vega:                 q.Vega,
		Gamma:                q.Gamma,
		UnderlyingPrice:      sc.spot,
		CaptureDate:          q.CaptureDate,
		MidPrice:             sc.midPrice,
		SpreadPct:            sc.spreadPct,
		DTE:                  sc.dte,
		Moneyness:            sc.moneyness,
		MoneynessPct:         sc.moneynessPct,
		ExpectedMovePct:      sc.expectedMovePct,
		BreakevenDistancePct: sc.breakevenDistancePct,
		CompositeScore:       sc.composite,
		Rank:                 rank,
	}
}

// normalize min-max scales vals into [0,1]; a degenerate vector (single
// member or max == min) collapses to the neutral sub-score
func normalize(vals []float64) []float64 {
	out := make([]float64, len(vals))
	lo, hi := minMax(vals)
	if hi == lo {
		for i := range out {
			out[i] = neutralSubScore
		}
		return out
	}
	for i, v := range vals {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}

// normalizeInverse scales so the smallest magnitude scores highest
// (lower theta decay is preferred)
func normalizeInverse(vals []float64) []float64 {
	out := make([]float64, len(vals))
	lo, hi := minMax(vals)
	if hi == lo {
		for i := range out {
			out[i] = neutralSubScore
		}
		return out
	}
	for i, v := range vals {
		out[i] = (hi - v) / (hi - lo)
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func degenerate(vals []float64) bool {
	lo, hi := minMax(vals)
	return hi == lo
}

func minMax(vals []float64) (float64, float64) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
