package aggregate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/postureops/posture-backend/model"
	"github.com/postureops/posture-backend/util"
)

// ControlReader provides read access to a framework's control statuses
type ControlReader interface {
	ListControls(ctx context.Context, frameworkID string) ([]model.ControlStatus, error)
}

// FrameworkReader lists the scores of all ACTIVE frameworks
type FrameworkReader interface {
	ListActiveFrameworkScores(ctx context.Context) ([]model.FrameworkScore, error)
}

// ComplianceWriter persists recomputed compliance scores
type ComplianceWriter interface {
	SaveFrameworkScore(ctx context.Context, score model.FrameworkScore) error
	SaveOrganizationScore(ctx context.Context, score model.OrganizationComplianceScore) error
}

// ComplianceAggregator rolls control statuses up into framework scores and
// framework scores into the organization-wide compliance score. The write
// path calls back in after a committed control-status write; framework
// creation alone never triggers a recompute.
type ComplianceAggregator struct {
	controls   ControlReader
	frameworks FrameworkReader
	writer     ComplianceWriter
	locks      *util.KeyedMutex
	logger     *zap.SugaredLogger
	now        func() time.Time
}

// NewComplianceAggregator creates a ComplianceAggregator backed by the given collaborators
func NewComplianceAggregator(controls ControlReader, frameworks FrameworkReader, writer ComplianceWriter, logger *zap.Logger) *ComplianceAggregator {
	return &ComplianceAggregator{
		controls:   controls,
		frameworks: frameworks,
		writer:     writer,
		locks:      util.NewKeyedMutex(),
		logger:     logger.Sugar(),
		now:        time.Now,
	}
}

// RecomputeFrameworkScore recomputes one framework's compliance score:
// 100 x (weighted sum of control statuses) / (control count). A framework
// with zero controls scores 0, never NaN and never a silent 100.
func (c *ComplianceAggregator) RecomputeFrameworkScore(ctx context.Context, frameworkID string) (model.FrameworkScore, error) {
	c.locks.Lock(frameworkID)
	defer c.locks.Unlock(frameworkID)

	statuses, err := c.controls.ListControls(ctx, frameworkID)
	if err != nil {
		return model.FrameworkScore{}, err
	}

	score := model.FrameworkScore{
		FrameworkID: frameworkID,
		Score:       FrameworkScoreOf(statuses),
	}

	if err := c.writer.SaveFrameworkScore(ctx, score); err != nil {
		return model.FrameworkScore{}, err
	}

	c.logger.Infof("Recomputed compliance for framework %s: score=%.1f controls=%d",
		frameworkID, score.Score, len(statuses))
	return score, nil
}

// RecomputeOrganizationScore averages the scores of ACTIVE frameworks.
// Zero active frameworks score 0. The mean is unweighted: a 5-control
// framework counts the same as a 500-control one.
func (c *ComplianceAggregator) RecomputeOrganizationScore(ctx context.Context) (model.OrganizationComplianceScore, error) {
	const orgKey = "organization"
	c.locks.Lock(orgKey)
	defer c.locks.Unlock(orgKey)

	scores, err := c.frameworks.ListActiveFrameworkScores(ctx)
	if err != nil {
		return model.OrganizationComplianceScore{}, err
	}

	org := model.OrganizationComplianceScore{
		Score:          OrganizationScoreOf(scores),
		FrameworkCount: len(scores),
		RecomputedAt:   c.now(),
	}

	if err := c.writer.SaveOrganizationScore(ctx, org); err != nil {
		return model.OrganizationComplianceScore{}, err
	}

	c.logger.Infof("Recomputed organization compliance: score=%.1f frameworks=%d",
		org.Score, org.FrameworkCount)
	return org, nil
}

// FrameworkScoreOf computes the 0-100 framework score from control statuses
func FrameworkScoreOf(statuses []model.ControlStatus) float64 {
	if len(statuses) == 0 {
		return 0
	}
	var sum float64
	for _, s := range statuses {
		sum += s.Weight()
	}
	return 100 * sum / float64(len(statuses))
}

// OrganizationScoreOf computes the unweighted mean of framework scores
func OrganizationScoreOf(scores []model.FrameworkScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s.Score
	}
	return sum / float64(len(scores))
}
