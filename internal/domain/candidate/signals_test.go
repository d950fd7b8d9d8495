package candidate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"profitscout/internal/domain/chain"
)

func TestSignalFor(t *testing.T) {
	assert.Equal(t, SignalBuy, SignalFor(chain.Call))
	assert.Equal(t, SignalSell, SignalFor(chain.Put))
}

func TestCompareVolatility(t *testing.T) {
	tests := []struct {
		name string
		iv   float64
		hv   float64
		want VolatilityComparison
	}{
		{"expensive above ratio", 0.50, 0.30, VolExpensive},
		{"cheap below ratio", 0.20, 0.30, VolCheap},
		{"fair inside band", 0.30, 0.30, VolFair},
		{"fair at upper bound", 0.375, 0.30, VolFair},
		{"fair at lower bound", 0.24, 0.30, VolFair},
		{"unknown zero iv", 0, 0.30, VolUnknown},
		{"unknown unusable hv", 0.30, 0.01, VolUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareVolatility(tt.iv, tt.hv))
		})
	}
}

func TestOutlookFromScore(t *testing.T) {
	assert.Equal(t, OutlookStronglyBullish, OutlookFromScore(0.80))
	assert.Equal(t, OutlookStronglyBullish, OutlookFromScore(0.75))
	assert.Equal(t, OutlookModeratelyBullish, OutlookFromScore(0.60))
	assert.Equal(t, OutlookNeutral, OutlookFromScore(0.50))
	assert.Equal(t, OutlookModeratelyBearish, OutlookFromScore(0.30))
	assert.Equal(t, OutlookStronglyBearish, OutlookFromScore(0.10))
}
