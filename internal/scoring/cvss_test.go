package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postureops/posture-backend/model"
)

func TestClassify_Bands(t *testing.T) {
	tests := []struct {
		score float64
		want  model.Severity
	}{
		{0.0, model.SeverityInfo},
		{0.1, model.SeverityLow},
		{3.9, model.SeverityLow},
		{4.0, model.SeverityMedium},
		{6.9, model.SeverityMedium},
		{7.0, model.SeverityHigh},
		{8.9, model.SeverityHigh},
		{9.0, model.SeverityCritical},
		{10.0, model.SeverityCritical},
	}
	for _, tt := range tests {
		got, err := Classify(tt.score)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "score %.1f", tt.score)
	}
}

func TestClassify_OutOfRange(t *testing.T) {
	_, err := Classify(-0.1)
	assert.ErrorIs(t, err, ErrInvalidScore)

	_, err = Classify(10.1)
	assert.ErrorIs(t, err, ErrInvalidScore)

	// NaN compares false against both range bounds
	_, err = Classify(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidScore)

	_, err = Classify(math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidScore)
}

func TestClassify_MonotonicAndStable(t *testing.T) {
	prev := -1
	for s := 0.0; s <= 10.0; s += 0.1 {
		first, err := Classify(s)
		require.NoError(t, err)
		second, err := Classify(s)
		require.NoError(t, err)

		// Same input, same band
		assert.Equal(t, first, second)

		// Band rank never decreases as the score increases
		assert.GreaterOrEqual(t, first.Rank(), prev, "score %.1f", s)
		prev = first.Rank()
	}
}

func TestBaseScoreFromVector(t *testing.T) {
	tests := []struct {
		name   string
		vector string
		want   float64
	}{
		{
			name:   "CVSS 3.1 critical",
			vector: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
			want:   9.8,
		},
		{
			name:   "CVSS 3.1 medium",
			vector: "CVSS:3.1/AV:N/AC:L/PR:L/UI:N/S:U/C:L/I:L/A:N",
			want:   5.4,
		},
		{
			name:   "empty vector",
			vector: "",
			want:   0,
		},
		{
			name:   "not a CVSS vector",
			vector: "AV:N/AC:L",
			want:   0,
		},
		{
			name:   "garbage after prefix",
			vector: "CVSS:3.1/not-a-vector",
			want:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BaseScoreFromVector(tt.vector), 0.01)
		})
	}
}

func TestHighestBaseScore(t *testing.T) {
	vectors := []string{
		"CVSS:3.1/AV:N/AC:L/PR:L/UI:N/S:U/C:L/I:L/A:N", // 5.4
		"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", // 9.8
		"not-a-vector",
	}
	assert.InDelta(t, 9.8, HighestBaseScore(vectors), 0.01)
	assert.Zero(t, HighestBaseScore(nil))
}
