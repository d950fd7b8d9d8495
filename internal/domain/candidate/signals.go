package candidate

// VolatilityComparison classifies a contract's implied volatility against the
// underlying's 30-day realized volatility
type VolatilityComparison string

const (
	VolCheap     VolatilityComparison = "cheap"
	VolExpensive VolatilityComparison = "expensive"
	VolFair      VolatilityComparison = "fair"
	VolUnknown   VolatilityComparison = "unknown"
)

// CompareVolatility returns cheap when contract IV trades more than 20% under
// realized, expensive when more than 25% over, fair in between. HV at or
// below 0.01 is treated as unusable.
func CompareVolatility(contractIV, hv30 float64) VolatilityComparison {
	if contractIV <= 0 || hv30 <= 0.01 {
		return VolUnknown
	}
	ratio := contractIV / hv30
	switch {
	case ratio > 1.25:
		return VolExpensive
	case ratio < 0.80:
		return VolCheap
	default:
		return VolFair
	}
}

// Outlook buckets an externally supplied directional weighted score
type Outlook string

const (
	OutlookStronglyBullish   Outlook = "Strongly Bullish"
	OutlookModeratelyBullish Outlook = "Moderately Bullish"
	OutlookNeutral           Outlook = "Neutral / Mixed"
	OutlookModeratelyBearish Outlook = "Moderately Bearish"
	OutlookStronglyBearish   Outlook = "Strongly Bearish"
)

// OutlookFromScore maps a [0,1] weighted score to its directional bucket
func OutlookFromScore(score float64) Outlook {
	switch {
	case score >= 0.75:
		return OutlookStronglyBullish
	case score >= 0.60:
		return OutlookModeratelyBullish
	case score >= 0.40:
		return OutlookNeutral
	case score >= 0.25:
		return OutlookModeratelyBearish
	default:
		return OutlookStronglyBearish
	}
}
