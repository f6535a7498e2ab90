// Package vulnerabilities implements the REST API handlers for
// vulnerability definitions and asset-vulnerability links.
package vulnerabilities

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/postureops/posture-backend/internal/aggregate"
	"github.com/postureops/posture-backend/internal/notify"
	"github.com/postureops/posture-backend/internal/scoring"
	"github.com/postureops/posture-backend/internal/store"
	"github.com/postureops/posture-backend/model"
)

// CreateVulnerabilityRequest is the request body for a vulnerability
// definition. The severity is always derived, never taken from the caller.
type CreateVulnerabilityRequest struct {
	CveID       string   `json:"cve_id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	CvssScore   *float64 `json:"cvss_score,omitempty"`
	CvssVectors []string `json:"cvss_vectors,omitempty"`
}

// CreateLinkRequest is the request body for linking a vulnerability to an asset
type CreateLinkRequest struct {
	VulnerabilityKey string `json:"vulnerability_key"`
	ScanJobID        string `json:"scan_job_id,omitempty"`
}

// UpdateLinkRequest is the request body for a link workflow transition
type UpdateLinkRequest struct {
	Status string `json:"status"`
}

// CreateVulnerability handles POST requests registering a vulnerability.
// The CVSS score comes from the request or from the highest-scoring vector;
// the severity band derives from that score.
func CreateVulnerability(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateVulnerabilityRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		score := scoring.HighestBaseScore(req.CvssVectors)
		if req.CvssScore != nil {
			score = *req.CvssScore
		}
		severity, err := scoring.Classify(score)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		ctx := context.Background()
		if req.CveID != "" {
			existing, err := st.FindVulnerabilityByCveID(ctx, req.CveID)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"success": false,
					"message": "Failed to check for existing vulnerability: " + err.Error(),
				})
			}
			if existing != "" {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"success": false,
					"message": "Vulnerability already exists with key " + existing,
				})
			}
		}

		vuln := model.NewVulnerability()
		vuln.CveID = req.CveID
		vuln.Title = req.Title
		vuln.Description = req.Description
		vuln.CvssScore = score
		vuln.Severity = severity
		if len(req.CvssVectors) > 0 {
			vuln.CvssVector = req.CvssVectors[0]
		}

		if _, err := st.CreateVulnerability(ctx, vuln); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to create vulnerability: " + err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(vuln)
	}
}

// CreateLink handles POST requests linking a vulnerability to an asset as
// an OPEN finding, then recomputes the asset's risk rollup
func CreateLink(st *store.Store, agg *aggregate.AssetAggregator, notifier *notify.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateLinkRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}
		if req.VulnerabilityKey == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "vulnerability_key is required",
			})
		}

		assetID := c.Params("key")
		link := &model.VulnerabilityLink{
			From:       "asset/" + assetID,
			To:         "vulnerability/" + req.VulnerabilityKey,
			Status:     model.LinkStatusOpen,
			DetectedAt: time.Now(),
			ScanJobID:  req.ScanJobID,
		}

		ctx := context.Background()
		if _, err := st.CreateLink(ctx, link); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to create link: " + err.Error(),
			})
		}

		profile, err := recomputeAndNotify(ctx, st, agg, notifier, assetID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Link created but recompute failed: " + err.Error(),
			})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"link":    link,
			"profile": profile,
		})
	}
}

// UpdateLinkStatus handles PATCH requests moving a link through its
// workflow. Any status change recomputes the owning asset's rollup, since
// both activation and resolution shift the active link set.
func UpdateLinkStatus(st *store.Store, agg *aggregate.AssetAggregator, notifier *notify.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req UpdateLinkRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		status := model.LinkStatus(req.Status)
		switch status {
		case model.LinkStatusOpen, model.LinkStatusInvestigating, model.LinkStatusResolved,
			model.LinkStatusAccepted, model.LinkStatusFalsePositive:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "status must be OPEN, INVESTIGATING, RESOLVED, ACCEPTED, or FALSE_POSITIVE",
			})
		}

		var resolvedAt *time.Time
		if !status.IsActive() {
			now := time.Now()
			resolvedAt = &now
		}

		ctx := context.Background()
		assetID, err := st.UpdateLinkStatus(ctx, c.Params("key"), status, resolvedAt)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to update link: " + err.Error(),
			})
		}
		if assetID == "" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Link not found",
			})
		}

		profile, err := recomputeAndNotify(ctx, st, agg, notifier, assetID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Link updated but recompute failed: " + err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"status":  status,
			"profile": profile,
		})
	}
}

// recomputeAndNotify refreshes the asset rollup and checks thresholds
// against the previous stored profile
func recomputeAndNotify(ctx context.Context, st *store.Store, agg *aggregate.AssetAggregator, notifier *notify.Notifier, assetID string) (model.AssetRiskProfile, error) {
	previous, err := st.GetAssetProfile(ctx, assetID)
	if err != nil {
		return model.AssetRiskProfile{}, err
	}

	profile, err := agg.RecomputeAssetRisk(ctx, assetID)
	if err != nil {
		return model.AssetRiskProfile{}, err
	}

	// Notification failures do not fail the write
	_ = notifier.Check(ctx, assetID,
		notify.Metrics{RiskScore: profile.RiskScore, CriticalVulnCount: profile.CriticalCount},
		notify.Metrics{RiskScore: previous.RiskScore, CriticalVulnCount: previous.CriticalCount},
	)
	return profile, nil
}
