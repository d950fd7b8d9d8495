package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSelector() SelectorConfig {
	return SelectorConfig{
		MinDTE:                    10,
		MaxDTE:                    60,
		MinMoneyness:              1.02,
		MaxMoneyness:              1.10,
		MinOpenInterest:           300,
		MaxSpreadPct:              0.12,
		MinMidPrice:               0.50,
		MinAbsDelta:               0.25,
		MaxAbsDelta:               0.45,
		ExpectedMoveHaircut:       0.85,
		MaxCandidatesPerPartition: 0,
	}
}

func TestSelectorValidate(t *testing.T) {
	require.NoError(t, validSelector().Validate())

	cfg := validSelector()
	cfg.MinDTE = 90
	assert.Error(t, cfg.Validate())

	cfg = validSelector()
	cfg.MinMoneyness = 1.20
	assert.Error(t, cfg.Validate())

	cfg = validSelector()
	cfg.MinAbsDelta = 0.50
	assert.Error(t, cfg.Validate())

	cfg = validSelector()
	cfg.ExpectedMoveHaircut = 0
	assert.Error(t, cfg.Validate())

	cfg = validSelector()
	cfg.ExpectedMoveHaircut = 1.10
	assert.Error(t, cfg.Validate())

	cfg = validSelector()
	cfg.MaxCandidatesPerPartition = -1
	assert.Error(t, cfg.Validate())
}
