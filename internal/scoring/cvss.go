// Package scoring implements the pure scoring primitives: the CVSS
// severity classifier and the likelihood/impact risk matrix.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"

	gocvss31 "github.com/pandatix/go-cvss/31"
	gocvss40 "github.com/pandatix/go-cvss/40"

	"github.com/postureops/posture-backend/model"
)

// ErrInvalidScore is returned when a CVSS score is outside [0, 10]
var ErrInvalidScore = errors.New("cvss score outside [0, 10]")

// Classify maps a numeric CVSS score to its severity band.
// Bands (inclusive lower bound): >=9.0 CRITICAL, >=7.0 HIGH, >=4.0 MEDIUM,
// >=0.1 LOW, exactly 0 INFO.
func Classify(score float64) (model.Severity, error) {
	// NaN compares false against both bounds and must not slip through
	if math.IsNaN(score) || score < 0 || score > 10 {
		return "", fmt.Errorf("%w: %.2f", ErrInvalidScore, score)
	}
	switch {
	case score >= 9.0:
		return model.SeverityCritical, nil
	case score >= 7.0:
		return model.SeverityHigh, nil
	case score >= 4.0:
		return model.SeverityMedium, nil
	case score >= 0.1:
		return model.SeverityLow, nil
	default:
		return model.SeverityInfo, nil
	}
}

// BaseScoreFromVector calculates the CVSS base score from a vector string.
// Unparseable or non-CVSS input yields 0.
func BaseScoreFromVector(vectorStr string) float64 {
	if vectorStr == "" || !strings.HasPrefix(vectorStr, "CVSS:") {
		return 0
	}
	if strings.HasPrefix(vectorStr, "CVSS:3.1") || strings.HasPrefix(vectorStr, "CVSS:3.0") {
		if cvss31, err := gocvss31.ParseVector(vectorStr); err == nil {
			return cvss31.BaseScore()
		}
	}
	if strings.HasPrefix(vectorStr, "CVSS:4.0") {
		if cvss40, err := gocvss40.ParseVector(vectorStr); err == nil {
			return cvss40.Score()
		}
	}
	return 0
}

// HighestBaseScore returns the highest base score among the given vector
// strings, for vulnerability records carrying multiple CVSS entries
func HighestBaseScore(vectors []string) float64 {
	var highest float64
	for _, v := range vectors {
		if s := BaseScoreFromVector(v); s > highest {
			highest = s
		}
	}
	return highest
}
