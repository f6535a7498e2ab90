// Package model defines the data structures used by the posture-backend,
// including assets, vulnerabilities, compliance frameworks, and jobs.
package model

import "strings"

// Severity represents a discrete CVSS severity band
type Severity string

const (
	// SeverityInfo represents informational findings with a zero CVSS score.
	SeverityInfo Severity = "INFO"
	// SeverityLow represents findings with a CVSS score below 4.0.
	SeverityLow Severity = "LOW"
	// SeverityMedium represents findings with a CVSS score of 4.0 up to 7.0.
	SeverityMedium Severity = "MEDIUM"
	// SeverityHigh represents findings with a CVSS score of 7.0 up to 9.0.
	SeverityHigh Severity = "HIGH"
	// SeverityCritical represents findings with a CVSS score of 9.0 or above.
	SeverityCritical Severity = "CRITICAL"
)

// severityOrder maps each severity to its ordinal rank for comparisons
var severityOrder = map[Severity]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the ordinal rank of the severity (INFO=0 .. CRITICAL=4)
func (s Severity) Rank() int {
	return severityOrder[s]
}

// IsValid reports whether the severity is one of the known bands
func (s Severity) IsValid() bool {
	_, ok := severityOrder[s]
	return ok
}

// ParseSeverity normalizes an external casing (e.g. "critical", "Critical")
// to the canonical severity. Presentation layers own any reverse mapping.
func ParseSeverity(raw string) (Severity, bool) {
	s := Severity(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.IsValid()
}

// RiskLevel represents an ordinal rating used for likelihood, impact,
// and the derived risk level
type RiskLevel string

const (
	// RiskVeryLow is rank 1 on the risk matrix axes.
	RiskVeryLow RiskLevel = "VERY_LOW"
	// RiskLow is rank 2 on the risk matrix axes.
	RiskLow RiskLevel = "LOW"
	// RiskMedium is rank 3 on the risk matrix axes.
	RiskMedium RiskLevel = "MEDIUM"
	// RiskHigh is rank 4 on the risk matrix axes.
	RiskHigh RiskLevel = "HIGH"
	// RiskVeryHigh is rank 5 on the risk matrix axes.
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

var riskLevelRank = map[RiskLevel]int{
	RiskVeryLow:  1,
	RiskLow:      2,
	RiskMedium:   3,
	RiskHigh:     4,
	RiskVeryHigh: 5,
}

// Rank returns the matrix rank of the level (VERY_LOW=1 .. VERY_HIGH=5)
func (l RiskLevel) Rank() int {
	return riskLevelRank[l]
}

// IsValid reports whether the level is one of the known ratings
func (l RiskLevel) IsValid() bool {
	_, ok := riskLevelRank[l]
	return ok
}

// ParseRiskLevel normalizes an external casing to the canonical level
func ParseRiskLevel(raw string) (RiskLevel, bool) {
	l := RiskLevel(strings.ToUpper(strings.TrimSpace(raw)))
	return l, l.IsValid()
}
