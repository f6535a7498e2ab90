package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/postureops/posture-backend/model"
)

func TestMatrixScore_Table(t *testing.T) {
	tests := []struct {
		likelihood model.RiskLevel
		impact     model.RiskLevel
		wantScore  float64
		wantLevel  model.RiskLevel
	}{
		{model.RiskVeryLow, model.RiskVeryLow, 0.4, model.RiskLow},      // 1x1=1
		{model.RiskLow, model.RiskLow, 1.6, model.RiskLow},              // 2x2=4
		{model.RiskLow, model.RiskMedium, 2.4, model.RiskMedium},        // 2x3=6, boundary
		{model.RiskMedium, model.RiskMedium, 3.6, model.RiskMedium},     // 3x3=9
		{model.RiskMedium, model.RiskHigh, 4.8, model.RiskHigh},         // 3x4=12, boundary
		{model.RiskHigh, model.RiskHigh, 6.4, model.RiskVeryHigh},       // 4x4=16, boundary
		{model.RiskHigh, model.RiskVeryHigh, 8.0, model.RiskVeryHigh},   // 4x5=20
		{model.RiskVeryHigh, model.RiskVeryHigh, 10, model.RiskVeryHigh}, // 5x5=25
		{model.RiskVeryHigh, model.RiskVeryLow, 2.0, model.RiskLow},     // 5x1=5
		{model.RiskVeryHigh, model.RiskMedium, 6.0, model.RiskHigh},     // 5x3=15
	}
	for _, tt := range tests {
		score, level := MatrixScore(tt.likelihood, tt.impact)
		assert.InDelta(t, tt.wantScore, score, 0.001, "%s x %s", tt.likelihood, tt.impact)
		assert.Equal(t, tt.wantLevel, level, "%s x %s", tt.likelihood, tt.impact)
	}
}

func TestMatrixScore_Symmetric(t *testing.T) {
	levels := []model.RiskLevel{
		model.RiskVeryLow, model.RiskLow, model.RiskMedium,
		model.RiskHigh, model.RiskVeryHigh,
	}
	for _, l := range levels {
		for _, i := range levels {
			s1, lv1 := MatrixScore(l, i)
			s2, lv2 := MatrixScore(i, l)
			assert.Equal(t, s1, s2)
			assert.Equal(t, lv1, lv2)
		}
	}
}

func TestMatrixScore_DisplayRange(t *testing.T) {
	levels := []model.RiskLevel{
		model.RiskVeryLow, model.RiskLow, model.RiskMedium,
		model.RiskHigh, model.RiskVeryHigh,
	}
	for _, l := range levels {
		for _, i := range levels {
			score, _ := MatrixScore(l, i)
			assert.GreaterOrEqual(t, score, 0.4)
			assert.LessOrEqual(t, score, 10.0)
		}
	}
}

func TestRescore(t *testing.T) {
	r := model.NewRiskRecord()
	r.Likelihood = model.RiskHigh
	r.Impact = model.RiskVeryHigh

	Rescore(r)
	assert.InDelta(t, 8.0, r.Score, 0.001)
	assert.Equal(t, model.RiskVeryHigh, r.Level)

	// Lowering the impact recomputes both derived fields
	r.Impact = model.RiskVeryLow
	Rescore(r)
	assert.InDelta(t, 1.6, r.Score, 0.001)
	assert.Equal(t, model.RiskLow, r.Level)
}
