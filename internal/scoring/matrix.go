package scoring

import "github.com/postureops/posture-backend/model"

// displayDivisor maps the raw 1-25 rank product onto the 0-10 scale used
// for CVSS-style display
const displayDivisor = 2.5

// MatrixScore maps a (likelihood, impact) pair onto the 5x5 risk matrix.
// The raw score is the product of the two ranks (1-25); the level is a
// fixed threshold lookup on that product: >=16 VERY_HIGH, >=12 HIGH,
// >=6 MEDIUM, else LOW. Ties resolve through the thresholds, never by
// rounding.
func MatrixScore(likelihood, impact model.RiskLevel) (float64, model.RiskLevel) {
	raw := likelihood.Rank() * impact.Rank()
	return float64(raw) / displayDivisor, levelForProduct(raw)
}

func levelForProduct(raw int) model.RiskLevel {
	switch {
	case raw >= 16:
		return model.RiskVeryHigh
	case raw >= 12:
		return model.RiskHigh
	case raw >= 6:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// Rescore recomputes the derived score and level on a risk record after
// its likelihood or impact changed
func Rescore(r *model.RiskRecord) {
	r.Score, r.Level = MatrixScore(r.Likelihood, r.Impact)
}
