// Package aggregate implements the derived-score rollups: per-asset risk
// from active vulnerability links, and framework/organization compliance
// from control statuses.
package aggregate

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/postureops/posture-backend/model"
	"github.com/postureops/posture-backend/util"
)

// Severity weights for the asset risk rollup. A single critical finding
// reaches a visible floor on its own; low-severity findings alone cannot
// push an asset into critical territory.
const (
	weightCritical = 4.0
	weightHigh     = 2.0
	weightMedium   = 1.0
	weightLow      = 0.25
	weightInfo     = 0.0
)

// maxRiskScore clamps the weighted sum onto the 0-10 display scale
const maxRiskScore = 10.0

// LinkReader provides read access to an asset's active vulnerability links
type LinkReader interface {
	ListActiveLinks(ctx context.Context, assetID string) ([]model.ActiveLink, error)
}

// ProfileWriter persists a recomputed asset risk profile
type ProfileWriter interface {
	SaveAssetRiskProfile(ctx context.Context, profile model.AssetRiskProfile) error
}

// AssetAggregator rolls an asset's active vulnerability links up into a
// single risk score. Recomputes for the same asset are serialized; for
// different assets they run concurrently.
type AssetAggregator struct {
	links    LinkReader
	profiles ProfileWriter
	locks    *util.KeyedMutex
	logger   *zap.SugaredLogger
}

// NewAssetAggregator creates an AssetAggregator backed by the given collaborators
func NewAssetAggregator(links LinkReader, profiles ProfileWriter, logger *zap.Logger) *AssetAggregator {
	return &AssetAggregator{
		links:    links,
		profiles: profiles,
		locks:    util.NewKeyedMutex(),
		logger:   logger.Sugar(),
	}
}

// RecomputeAssetRisk reads the asset's active link set, recomputes the
// weighted risk score, and persists the profile in a single write. A
// failed read or write leaves the stored profile untouched. Recomputing
// twice with unchanged inputs yields identical results.
func (a *AssetAggregator) RecomputeAssetRisk(ctx context.Context, assetID string) (model.AssetRiskProfile, error) {
	a.locks.Lock(assetID)
	defer a.locks.Unlock(assetID)

	links, err := a.links.ListActiveLinks(ctx, assetID)
	if err != nil {
		return model.AssetRiskProfile{}, err
	}

	profile := model.AssetRiskProfile{
		AssetID:            assetID,
		VulnerabilityCount: len(links),
		CriticalCount:      countCritical(links),
		RiskScore:          weightedRiskScore(links),
	}

	if err := a.profiles.SaveAssetRiskProfile(ctx, profile); err != nil {
		return model.AssetRiskProfile{}, err
	}

	a.logger.Infof("Recomputed risk for asset %s: score=%.2f links=%d",
		assetID, profile.RiskScore, profile.VulnerabilityCount)
	return profile, nil
}

// RecomputeAssets recomputes every asset in the list, typically the set
// covered by a completed scan. Errors are logged and do not stop the
// remaining assets; the first error is returned.
func (a *AssetAggregator) RecomputeAssets(ctx context.Context, assetIDs []string) error {
	var firstErr error
	for _, id := range assetIDs {
		if _, err := a.RecomputeAssetRisk(ctx, id); err != nil {
			a.logger.Errorf("Failed to recompute risk for asset %s: %v", id, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func weightedRiskScore(links []model.ActiveLink) float64 {
	var sum float64
	for _, link := range links {
		switch link.Severity {
		case model.SeverityCritical:
			sum += weightCritical
		case model.SeverityHigh:
			sum += weightHigh
		case model.SeverityMedium:
			sum += weightMedium
		case model.SeverityLow:
			sum += weightLow
		default:
			sum += weightInfo
		}
	}
	return math.Min(sum, maxRiskScore)
}

func countCritical(links []model.ActiveLink) int {
	var n int
	for _, link := range links {
		if link.Severity == model.SeverityCritical {
			n++
		}
	}
	return n
}
