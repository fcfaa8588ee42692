package rules

import (
	"github.com/openclaims/kestrel/internal/domain"
)

const maxScore = 100

// Score aggregates triggered rule weights into a fraud score and band.
// The sum is clamped to [0, 100]; the band is derived from the clamped score.
func Score(triggers []domain.RuleTrigger) domain.ScoreResult {
	sum := 0
	for _, t := range triggers {
		sum += t.Weight
	}
	if sum > maxScore {
		sum = maxScore
	}
	if sum < 0 {
		sum = 0
	}
	return domain.ScoreResult{
		Score: sum,
		Band:  BandFor(sum),
	}
}

// BandFor maps a clamped score to its risk band:
// below 30 is low, 30 to 60 inclusive is medium, above 60 is high.
func BandFor(score int) domain.RiskBand {
	switch {
	case score < 30:
		return domain.BandLow
	case score <= 60:
		return domain.BandMedium
	default:
		return domain.BandHigh
	}
}
