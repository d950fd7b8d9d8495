package structure

import (
	"math"
	"sort"

	"profitscout/internal/domain/chain"
	"profitscout/internal/domain/structure"
)

const (
	// contractMultiplier is the standard US equity option share multiplier
	contractMultiplier = 100.0

	// maxPainNoiseOI excludes thinly held strikes from the max-pain search
	maxPainNoiseOI = 100

	// ATM window for the average implied volatility
	atmMinDTE        = 7
	atmMaxDTE        = 90
	atmMoneynessBand = 0.05
)

// Analyzer computes market-structure metrics from a single chain snapshot.
// Pure computation: same snapshot and spot always produce the same output.
type Analyzer struct{}

// NewAnalyzer creates a market-structure analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze derives walls, max pain, gamma exposure, put/call ratios and ATM IV
// for one ticker. A nil snapshot yields a zero-valued result with all optional
// metrics undefined.
func (a *Analyzer) Analyze(snap *chain.Snapshot, spot float64) structure.Snapshot {
	out := structure.Snapshot{}
	if snap == nil {
		return out
	}
	out.Ticker = snap.Ticker
	out.CaptureDate = snap.CaptureDate

	var (
		callVol, putVol int64
		callOI, putOI   int64
	)
	for i := range snap.Contracts {
		q := &snap.Contracts[i]
		exposure := math.Abs(q.Gamma) * float64(q.OpenInterest) * contractMultiplier * spot
		if q.IsCall() {
			out.NetCallGamma += exposure
			callVol += q.Volume
			callOI += q.OpenInterest
		} else {
			out.NetPutGamma += exposure
			putVol += q.Volume
			putOI += q.OpenInterest
		}
	}
	out.TotalGEX = out.NetCallGamma - out.NetPutGamma

	out.CallWall = wall(snap.Contracts, true)
	out.PutWall = wall(snap.Contracts, false)
	out.MaxPain = maxPain(snap.Contracts)

	if callVol > 0 {
		r := float64(putVol) / float64(callVol)
		out.PutCallVolumeRatio = &r
	}
	if callOI > 0 {
		r := float64(putOI) / float64(callOI)
		out.PutCallOIRatio = &r
	}

	out.IVAvgATM = atmIV(snap.Contracts, spot)
	return out
}

// wall returns the strike carrying the most open interest on one side, or nil
// when the side is empty. Ties resolve to the lowest strike.
func wall(contracts []chain.ContractQuote, calls bool) *float64 {
	var (
		best   float64
		bestOI int64 = -1
	)
	for i := range contracts {
		q := &contracts[i]
		if q.IsCall() != calls {
			continue
		}
		if q.OpenInterest > bestOI || (q.OpenInterest == bestOI && q.Strike < best) {
			best = q.Strike
			bestOI = q.OpenInterest
		}
	}
	if bestOI < 0 {
		return nil
	}
	return &best
}

// maxPain brute-forces the strike at which option holders collectively lose
// the most value at expiration. Candidate strikes come from contracts with
// open interest above the noise threshold, falling back to every strike when
// none qualify. Strikes are evaluated in ascending order with a strict
// comparison so the result does not depend on input ordering.
func maxPain(contracts []chain.ContractQuote) *float64 {
	if len(contracts) == 0 {
		return nil
	}

	strikeSet := map[float64]struct{}{}
	for i := range contracts {
		if contracts[i].OpenInterest > maxPainNoiseOI {
			strikeSet[contracts[i].Strike] = struct{}{}
		}
	}
	if len(strikeSet) == 0 {
		for i := range contracts {
			strikeSet[contracts[i].Strike] = struct{}{}
		}
	}

	strikes := make([]float64, 0, len(strikeSet))
	for k := range strikeSet {
		strikes = append(strikes, k)
	}
	sort.Float64s(strikes)

	var (
		best     float64
		bestLoss = math.Inf(1)
	)
	for _, k := range strikes {
		var loss float64
		for i := range contracts {
			q := &contracts[i]
			if q.IsCall() {
				loss += math.Max(0, k-q.Strike) * float64(q.OpenInterest)
			} else {
				loss += math.Max(0, q.Strike-k) * float64(q.OpenInterest)
			}
		}
		if loss < bestLoss {
			bestLoss = loss
			best = k
		}
	}
	return &best
}

// atmIV averages implied volatility across near-dated, near-the-money
// contracts, or nil when no contract qualifies
func atmIV(contracts []chain.ContractQuote, spot float64) *float64 {
	if spot <= 0 {
		return nil
	}
	var (
		sum float64
		n   int
	)
	for i := range contracts {
		q := &contracts[i]
		dte := q.DTE()
		if dte < atmMinDTE || dte > atmMaxDTE {
			continue
		}
		if math.Abs(q.Strike-spot)/spot > atmMoneynessBand {
			continue
		}
		if q.ImpliedVolatility <= 0 {
			continue
		}
		sum += q.ImpliedVolatility
		n++
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}
