package model

import "time"

// LinkStatus represents the workflow state of an asset-vulnerability link
type LinkStatus string

const (
	// LinkStatusOpen marks a confirmed, unresolved finding.
	LinkStatusOpen LinkStatus = "OPEN"
	// LinkStatusInvestigating marks a finding under triage.
	LinkStatusInvestigating LinkStatus = "INVESTIGATING"
	// LinkStatusResolved marks a remediated finding.
	LinkStatusResolved LinkStatus = "RESOLVED"
	// LinkStatusAccepted marks a finding whose risk was formally accepted.
	LinkStatusAccepted LinkStatus = "ACCEPTED"
	// LinkStatusFalsePositive marks a finding dismissed as incorrect.
	LinkStatusFalsePositive LinkStatus = "FALSE_POSITIVE"
)

// IsActive reports whether the link counts toward the asset risk rollup
func (s LinkStatus) IsActive() bool {
	return s == LinkStatusOpen || s == LinkStatusInvestigating
}

// Vulnerability represents a vulnerability definition (CVE or finding)
type Vulnerability struct {
	Key         string    `json:"_key,omitempty"`
	CveID       string    `json:"cve_id,omitempty"` // e.g., "CVE-2024-1234"
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CvssScore   float64   `json:"cvss_score"`            // e.g., 9.8
	CvssVector  string    `json:"cvss_vector,omitempty"` // e.g., "CVSS:3.1/AV:N/..."
	Severity    Severity  `json:"severity"`              // Derived from CvssScore
	ObjType     string    `json:"objtype,omitempty"`     // "Vulnerability"
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewVulnerability creates a new Vulnerability instance with default values
func NewVulnerability() *Vulnerability {
	now := time.Now()
	return &Vulnerability{
		ObjType:   "Vulnerability",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// VulnerabilityLink is the asset2vuln edge connecting an asset to a
// vulnerability, carrying the per-asset workflow status
type VulnerabilityLink struct {
	Key        string     `json:"_key,omitempty"`
	From       string     `json:"_from"` // asset/<key>
	To         string     `json:"_to"`   // vulnerability/<key>
	Status     LinkStatus `json:"status"`
	DetectedAt time.Time  `json:"detected_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ScanJobID  string     `json:"scan_job_id,omitempty"` // Job that discovered the link
}

// ActiveLink is the read-model row the asset risk aggregator consumes:
// one active link with the severity and score of the underlying vulnerability
type ActiveLink struct {
	Severity  Severity `json:"severity"`
	CvssScore float64  `json:"cvss_score"`
}
