// Package notifications defines types for Kafka publication of threshold
// notification events.
package notifications

import "time"

// Metric names carried in NotificationEvent.Metric
const (
	// MetricRiskScore is an asset's 0-10 risk score.
	MetricRiskScore = "risk_score"
	// MetricCriticalVulnCount is an asset's count of active critical links.
	MetricCriticalVulnCount = "critical_vuln_count"
	// MetricComplianceScore is the 0-100 organization compliance score.
	MetricComplianceScore = "compliance_score"
)

// NotificationEvent represents a threshold crossing published to Kafka.
type NotificationEvent struct {
	EventType     string    `json:"event_type"` // "posture.threshold.crossed"
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	EntityID  string  `json:"entity_id"` // Asset key, or "organization"
	Metric    string  `json:"metric"`
	Threshold float64 `json:"threshold"`
	Previous  float64 `json:"previous"`
	Current   float64 `json:"current"`
	Message   string  `json:"message"`
}
