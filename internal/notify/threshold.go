// Package notify evaluates aggregate metrics against configured
// thresholds and emits notification events on crossings.
package notify

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/postureops/posture-backend/events/modules/notifications"
)

// Metrics is a snapshot of the aggregate values a caller evaluates
type Metrics struct {
	RiskScore         float64
	CriticalVulnCount int
	ComplianceScore   float64
}

// Thresholds is the configured notification policy. Risk and critical
// counts alert on rising crossings; compliance alerts when the score
// falls below the floor.
type Thresholds struct {
	RiskScore         float64 `yaml:"risk_score"`
	CriticalVulnCount int     `yaml:"critical_vuln_count"`
	ComplianceFloor   float64 `yaml:"compliance_floor"`
}

// DefaultThresholds is the policy used when no config file is present
var DefaultThresholds = Thresholds{
	RiskScore:         8.0,
	CriticalVulnCount: 1,
	ComplianceFloor:   70.0,
}

// LoadThresholds reads the threshold policy from a YAML file, falling
// back to DefaultThresholds when the path is empty or missing
func LoadThresholds(path string) (Thresholds, error) {
	if path == "" {
		return DefaultThresholds, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultThresholds, nil
		}
		return Thresholds{}, err
	}
	th := DefaultThresholds
	if err := yaml.Unmarshal(data, &th); err != nil {
		return Thresholds{}, fmt.Errorf("failed to parse threshold config %s: %w", path, err)
	}
	return th, nil
}

// Evaluate compares the current metrics against the previous snapshot and
// returns one event per threshold crossed. Only crossings emit: a value
// that was already past the threshold stays silent, so repeated
// evaluations of a high value cannot storm the notification sink.
// The evaluator holds no state; the caller supplies the previous values.
func Evaluate(entityID string, current, previous Metrics, th Thresholds) []notifications.NotificationEvent {
	var events []notifications.NotificationEvent

	if crossedUp(previous.RiskScore, current.RiskScore, th.RiskScore) {
		events = append(events, notifications.NotificationEvent{
			EntityID:  entityID,
			Metric:    notifications.MetricRiskScore,
			Threshold: th.RiskScore,
			Previous:  previous.RiskScore,
			Current:   current.RiskScore,
			Message: fmt.Sprintf("Risk score for %s rose from %.1f to %.1f, crossing %.1f",
				entityID, previous.RiskScore, current.RiskScore, th.RiskScore),
		})
	}

	if crossedUp(float64(previous.CriticalVulnCount), float64(current.CriticalVulnCount), float64(th.CriticalVulnCount)) {
		events = append(events, notifications.NotificationEvent{
			EntityID:  entityID,
			Metric:    notifications.MetricCriticalVulnCount,
			Threshold: float64(th.CriticalVulnCount),
			Previous:  float64(previous.CriticalVulnCount),
			Current:   float64(current.CriticalVulnCount),
			Message: fmt.Sprintf("Critical vulnerability count for %s rose from %d to %d",
				entityID, previous.CriticalVulnCount, current.CriticalVulnCount),
		})
	}

	if crossedDown(previous.ComplianceScore, current.ComplianceScore, th.ComplianceFloor) {
		events = append(events, notifications.NotificationEvent{
			EntityID:  entityID,
			Metric:    notifications.MetricComplianceScore,
			Threshold: th.ComplianceFloor,
			Previous:  previous.ComplianceScore,
			Current:   current.ComplianceScore,
			Message: fmt.Sprintf("Compliance score for %s fell from %.1f to %.1f, below %.1f",
				entityID, previous.ComplianceScore, current.ComplianceScore, th.ComplianceFloor),
		})
	}

	return events
}

// crossedUp reports a rising crossing: previously below the threshold,
// now at or above it
func crossedUp(previous, current, threshold float64) bool {
	return previous < threshold && current >= threshold
}

// crossedDown reports a falling crossing: previously at or above the
// floor, now below it
func crossedDown(previous, current, floor float64) bool {
	return previous >= floor && current < floor
}

// Publisher is the notification sink events are handed to
type Publisher interface {
	Publish(ctx context.Context, event notifications.NotificationEvent) error
}

// Notifier couples the evaluator with a publisher for callers that want
// evaluate-and-emit in one step
type Notifier struct {
	thresholds Thresholds
	publisher  Publisher
	logger     *zap.SugaredLogger
}

// NewNotifier creates a Notifier with the given policy and sink
func NewNotifier(th Thresholds, publisher Publisher, logger *zap.Logger) *Notifier {
	return &Notifier{
		thresholds: th,
		publisher:  publisher,
		logger:     logger.Sugar(),
	}
}

// Check evaluates the metrics and publishes every crossing. Publish
// failures are logged per event; the first is returned.
func (n *Notifier) Check(ctx context.Context, entityID string, current, previous Metrics) error {
	var firstErr error
	for _, event := range Evaluate(entityID, current, previous, n.thresholds) {
		if err := n.publisher.Publish(ctx, event); err != nil {
			n.logger.Errorf("Failed to publish notification for %s/%s: %v", entityID, event.Metric, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		n.logger.Infof("Published notification: %s", event.Message)
	}
	return firstErr
}
