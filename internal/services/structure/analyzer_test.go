package structure

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profitscout/internal/domain/chain"
)

var captureDate = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func contract(side chain.OptionType, strike float64, dte int, vol, oi int64, gamma, iv float64) chain.ContractQuote {
	return chain.ContractQuote{
		Ticker:            "ACME",
		OptionType:        side,
		ExpirationDate:    captureDate.AddDate(0, 0, dte),
		Strike:            strike,
		Volume:            vol,
		OpenInterest:      oi,
		Gamma:             gamma,
		ImpliedVolatility: iv,
		CaptureDate:       captureDate,
	}
}

func snap(contracts ...chain.ContractQuote) *chain.Snapshot {
	return &chain.Snapshot{Ticker: "ACME", CaptureDate: captureDate, Contracts: contracts}
}

func TestAnalyze_GEXIdentity(t *testing.T) {
	s := snap(
		contract(chain.Call, 105, 30, 100, 500, 0.02, 0.40),
		contract(chain.Call, 110, 30, 50, 200, 0.015, 0.42),
		contract(chain.Put, 95, 30, 80, 400, 0.018, 0.45),
	)

	out := NewAnalyzer().Analyze(s, 100.0)

	assert.InDelta(t, 0.02*500*100*100+0.015*200*100*100, out.NetCallGamma, 1e-9)
	assert.InDelta(t, 0.018*400*100*100, out.NetPutGamma, 1e-9)
	assert.Equal(t, out.NetCallGamma-out.NetPutGamma, out.TotalGEX)
	assert.Positive(t, out.NetPutGamma)
}

func TestAnalyze_Walls(t *testing.T) {
	s := snap(
		contract(chain.Call, 105, 30, 0, 500, 0, 0),
		contract(chain.Call, 110, 30, 0, 900, 0, 0),
		contract(chain.Put, 95, 30, 0, 700, 0, 0),
		contract(chain.Put, 90, 30, 0, 300, 0, 0),
	)

	out := NewAnalyzer().Analyze(s, 100.0)
	require.NotNil(t, out.CallWall)
	require.NotNil(t, out.PutWall)
	assert.Equal(t, 110.0, *out.CallWall)
	assert.Equal(t, 95.0, *out.PutWall)
}

func TestAnalyze_WallNilOnEmptySide(t *testing.T) {
	s := snap(contract(chain.Call, 105, 30, 10, 500, 0.01, 0.40))

	out := NewAnalyzer().Analyze(s, 100.0)
	assert.NotNil(t, out.CallWall)
	assert.Nil(t, out.PutWall)
	assert.Nil(t, out.PutCallVolumeRatio)
	assert.Zero(t, out.NetPutGamma)
}

func TestAnalyze_PutCallRatios(t *testing.T) {
	s := snap(
		contract(chain.Call, 105, 30, 200, 1000, 0, 0),
		contract(chain.Put, 95, 30, 300, 500, 0, 0),
	)

	out := NewAnalyzer().Analyze(s, 100.0)
	require.NotNil(t, out.PutCallVolumeRatio)
	require.NotNil(t, out.PutCallOIRatio)
	assert.InDelta(t, 1.5, *out.PutCallVolumeRatio, 1e-9)
	assert.InDelta(t, 0.5, *out.PutCallOIRatio, 1e-9)
}

func TestAnalyze_RatiosNilWithoutCalls(t *testing.T) {
	s := snap(contract(chain.Put, 95, 30, 300, 500, 0.01, 0.40))

	out := NewAnalyzer().Analyze(s, 100.0)
	assert.Nil(t, out.PutCallVolumeRatio)
	assert.Nil(t, out.PutCallOIRatio)
}

func TestAnalyze_MaxPainPinsBetweenWalls(t *testing.T) {
	// Heavy call OI at 110 and put OI at 90 pull max pain toward the middle
	s := snap(
		contract(chain.Call, 100, 30, 0, 500, 0, 0),
		contract(chain.Call, 110, 30, 0, 2000, 0, 0),
		contract(chain.Put, 100, 30, 0, 500, 0, 0),
		contract(chain.Put, 90, 30, 0, 2000, 0, 0),
	)

	out := NewAnalyzer().Analyze(s, 100.0)
	require.NotNil(t, out.MaxPain)
	assert.Equal(t, 100.0, *out.MaxPain)
}

func TestAnalyze_MaxPainNoiseFilter(t *testing.T) {
	// Strike 50 carries negligible OI and must not be a candidate even
	// though expiring there would hurt call holders the most
	s := snap(
		contract(chain.Call, 50, 30, 0, 5, 0, 0),
		contract(chain.Call, 100, 30, 0, 800, 0, 0),
		contract(chain.Call, 105, 30, 0, 600, 0, 0),
	)

	out := NewAnalyzer().Analyze(s, 100.0)
	require.NotNil(t, out.MaxPain)
	assert.Equal(t, 100.0, *out.MaxPain)
}

func TestAnalyze_MaxPainFallbackWhenAllThin(t *testing.T) {
	s := snap(
		contract(chain.Call, 100, 30, 0, 10, 0, 0),
		contract(chain.Put, 95, 30, 0, 20, 0, 0),
	)

	out := NewAnalyzer().Analyze(s, 100.0)
	require.NotNil(t, out.MaxPain)
}

func TestAnalyze_MaxPainOrderInvariant(t *testing.T) {
	contracts := []chain.ContractQuote{
		contract(chain.Call, 100, 30, 0, 500, 0, 0),
		contract(chain.Call, 105, 30, 0, 700, 0, 0),
		contract(chain.Call, 110, 30, 0, 300, 0, 0),
		contract(chain.Put, 95, 30, 0, 600, 0, 0),
		contract(chain.Put, 100, 30, 0, 400, 0, 0),
		contract(chain.Put, 105, 30, 0, 200, 0, 0),
	}

	analyzer := NewAnalyzer()
	base := analyzer.Analyze(snap(contracts...), 100.0)
	require.NotNil(t, base.MaxPain)

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 10; trial++ {
		shuffled := append([]chain.ContractQuote(nil), contracts...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		out := analyzer.Analyze(snap(shuffled...), 100.0)
		require.NotNil(t, out.MaxPain)
		assert.Equal(t, *base.MaxPain, *out.MaxPain)
	}
}

func TestAnalyze_ATMIV(t *testing.T) {
	s := snap(
		contract(chain.Call, 102, 30, 0, 0, 0, 0.40),  // in band
		contract(chain.Put, 98, 30, 0, 0, 0, 0.50),    // in band
		contract(chain.Call, 120, 30, 0, 0, 0, 0.90),  // too far from spot
		contract(chain.Call, 100, 3, 0, 0, 0, 0.90),   // too near expiry
		contract(chain.Call, 100, 120, 0, 0, 0, 0.90), // too far out
	)

	out := NewAnalyzer().Analyze(s, 100.0)
	require.NotNil(t, out.IVAvgATM)
	assert.InDelta(t, 0.45, *out.IVAvgATM, 1e-9)
}

func TestAnalyze_ATMIVNilWhenNoQualifiers(t *testing.T) {
	s := snap(contract(chain.Call, 150, 30, 0, 0, 0, 0.90))

	out := NewAnalyzer().Analyze(s, 100.0)
	assert.Nil(t, out.IVAvgATM)
}

func TestAnalyze_NilSnapshot(t *testing.T) {
	out := NewAnalyzer().Analyze(nil, 100.0)
	assert.Nil(t, out.MaxPain)
	assert.Zero(t, out.TotalGEX)
}
