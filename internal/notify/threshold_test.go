package notify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/postureops/posture-backend/events/modules/notifications"
)

func TestEvaluate_RisingCrossingEmitsOnce(t *testing.T) {
	th := Thresholds{RiskScore: 8.0, CriticalVulnCount: 100, ComplianceFloor: 0}

	// 7.9 -> 8.1 crosses the 8.0 threshold: exactly one event
	events := Evaluate("asset-1", Metrics{RiskScore: 8.1}, Metrics{RiskScore: 7.9}, th)
	require.Len(t, events, 1)
	assert.Equal(t, notifications.MetricRiskScore, events[0].Metric)
	assert.InDelta(t, 7.9, events[0].Previous, 0.001)
	assert.InDelta(t, 8.1, events[0].Current, 0.001)

	// A second evaluation that stays at 8.1 emits nothing
	events = Evaluate("asset-1", Metrics{RiskScore: 8.1}, Metrics{RiskScore: 8.1}, th)
	assert.Empty(t, events)
}

func TestEvaluate_ExceedingWithoutCrossingIsSilent(t *testing.T) {
	th := Thresholds{RiskScore: 8.0, CriticalVulnCount: 100}
	events := Evaluate("asset-1", Metrics{RiskScore: 9.5}, Metrics{RiskScore: 9.0}, th)
	assert.Empty(t, events)
}

func TestEvaluate_ExactThresholdCounts(t *testing.T) {
	th := Thresholds{RiskScore: 8.0, CriticalVulnCount: 100}
	events := Evaluate("asset-1", Metrics{RiskScore: 8.0}, Metrics{RiskScore: 7.9}, th)
	assert.Len(t, events, 1)
}

func TestEvaluate_CriticalCount(t *testing.T) {
	th := Thresholds{RiskScore: 100, CriticalVulnCount: 1}

	events := Evaluate("asset-1", Metrics{CriticalVulnCount: 1}, Metrics{CriticalVulnCount: 0}, th)
	require.Len(t, events, 1)
	assert.Equal(t, notifications.MetricCriticalVulnCount, events[0].Metric)

	events = Evaluate("asset-1", Metrics{CriticalVulnCount: 2}, Metrics{CriticalVulnCount: 1}, th)
	assert.Empty(t, events)
}

func TestEvaluate_ComplianceFloor(t *testing.T) {
	th := Thresholds{RiskScore: 100, CriticalVulnCount: 100, ComplianceFloor: 70}

	events := Evaluate("organization", Metrics{ComplianceScore: 69.5}, Metrics{ComplianceScore: 72.0}, th)
	require.Len(t, events, 1)
	assert.Equal(t, notifications.MetricComplianceScore, events[0].Metric)

	// Staying below the floor is silent
	events = Evaluate("organization", Metrics{ComplianceScore: 65.0}, Metrics{ComplianceScore: 69.5}, th)
	assert.Empty(t, events)

	// Recovering above the floor is silent too
	events = Evaluate("organization", Metrics{ComplianceScore: 75.0}, Metrics{ComplianceScore: 65.0}, th)
	assert.Empty(t, events)
}

func TestEvaluate_MultipleCrossings(t *testing.T) {
	th := Thresholds{RiskScore: 8.0, CriticalVulnCount: 1, ComplianceFloor: 0}
	events := Evaluate("asset-1",
		Metrics{RiskScore: 9.0, CriticalVulnCount: 2},
		Metrics{RiskScore: 5.0, CriticalVulnCount: 0},
		th)
	assert.Len(t, events, 2)
}

type capturingPublisher struct {
	events []notifications.NotificationEvent
}

func (p *capturingPublisher) Publish(_ context.Context, event notifications.NotificationEvent) error {
	p.events = append(p.events, event)
	return nil
}

func TestNotifier_Check(t *testing.T) {
	pub := &capturingPublisher{}
	n := NewNotifier(Thresholds{RiskScore: 8.0, CriticalVulnCount: 100}, pub, zap.NewNop())

	err := n.Check(context.Background(), "asset-1",
		Metrics{RiskScore: 8.5}, Metrics{RiskScore: 7.0})
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "asset-1", pub.events[0].EntityID)
}

func TestLoadThresholds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("risk_score: 6.5\ncritical_vuln_count: 3\ncompliance_floor: 80\n"), 0o600))

	th, err := LoadThresholds(path)
	require.NoError(t, err)
	assert.InDelta(t, 6.5, th.RiskScore, 0.001)
	assert.Equal(t, 3, th.CriticalVulnCount)
	assert.InDelta(t, 80.0, th.ComplianceFloor, 0.001)
}

func TestLoadThresholds_MissingFileUsesDefaults(t *testing.T) {
	th, err := LoadThresholds(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultThresholds, th)

	th, err = LoadThresholds("")
	require.NoError(t, err)
	assert.Equal(t, DefaultThresholds, th)
}
