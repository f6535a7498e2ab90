// Package scores implements the REST API handlers for severity
// classification, risk matrix scoring, and asset risk recomputes.
package scores

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/postureops/posture-backend/database"
	"github.com/postureops/posture-backend/internal/aggregate"
	"github.com/postureops/posture-backend/internal/notify"
	"github.com/postureops/posture-backend/internal/scoring"
	"github.com/postureops/posture-backend/internal/store"
	"github.com/postureops/posture-backend/model"
)

// CreateAssetRequest is the request body for registering an asset
type CreateAssetRequest struct {
	Name        string `json:"name"`
	AssetType   string `json:"asset_type"`
	Environment string `json:"environment"`
	Owner       string `json:"owner,omitempty"`
}

// ClassifyRequest carries either a numeric CVSS score or a vector string
type ClassifyRequest struct {
	CvssScore  *float64 `json:"cvss_score,omitempty"`
	CvssVector string   `json:"cvss_vector,omitempty"`
}

// MatrixRequest carries a likelihood/impact pair for the 5x5 risk matrix
type MatrixRequest struct {
	Likelihood string `json:"likelihood"`
	Impact     string `json:"impact"`
}

// CreateRiskRequest is the request body for a risk register entry
type CreateRiskRequest struct {
	Title      string `json:"title"`
	Likelihood string `json:"likelihood"`
	Impact     string `json:"impact"`
}

// Classify handles POST requests mapping a CVSS score or vector onto a
// severity band
func Classify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ClassifyRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		score := 0.0
		switch {
		case req.CvssScore != nil:
			score = *req.CvssScore
		case req.CvssVector != "":
			score = scoring.BaseScoreFromVector(req.CvssVector)
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Provide cvss_score or cvss_vector",
			})
		}

		severity, err := scoring.Classify(score)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"cvss_score": score,
			"severity":   severity,
		})
	}
}

// MatrixScore handles POST requests mapping a likelihood/impact pair onto
// the risk matrix
func MatrixScore() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req MatrixRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		likelihood, ok := model.ParseRiskLevel(req.Likelihood)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "likelihood must be VERY_LOW, LOW, MEDIUM, HIGH, or VERY_HIGH",
			})
		}
		impact, ok := model.ParseRiskLevel(req.Impact)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "impact must be VERY_LOW, LOW, MEDIUM, HIGH, or VERY_HIGH",
			})
		}

		score, level := scoring.MatrixScore(likelihood, impact)
		return c.JSON(fiber.Map{
			"likelihood": likelihood,
			"impact":     impact,
			"score":      score,
			"level":      level,
		})
	}
}

// CreateRiskRecord handles POST requests adding a risk register entry.
// Score and level derive from the matrix; the request cannot set them.
func CreateRiskRecord(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateRiskRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		likelihood, ok := model.ParseRiskLevel(req.Likelihood)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "likelihood must be VERY_LOW, LOW, MEDIUM, HIGH, or VERY_HIGH",
			})
		}
		impact, ok := model.ParseRiskLevel(req.Impact)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "impact must be VERY_LOW, LOW, MEDIUM, HIGH, or VERY_HIGH",
			})
		}

		record := model.NewRiskRecord()
		record.Title = req.Title
		record.Likelihood = likelihood
		record.Impact = impact
		scoring.Rescore(record)

		if _, err := st.CreateRiskRecord(context.Background(), record); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to create risk record: " + err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(record)
	}
}

// ListRiskRecords handles GET requests for the risk register
func ListRiskRecords(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		records, err := st.ListRiskRecords(context.Background())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to query risk register: " + err.Error(),
			})
		}
		if records == nil {
			records = []model.RiskRecord{}
		}
		return c.JSON(records)
	}
}

// CreateAsset handles POST requests registering a new asset. Asset names
// are unique; a duplicate name conflicts instead of creating a twin.
func CreateAsset(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateAssetRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}
		if req.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "name is required",
			})
		}

		ctx := context.Background()
		existing, err := database.FindAssetByName(ctx, st.DB.Database, req.Name)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to check for existing asset: " + err.Error(),
			})
		}
		if existing != "" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "Asset already exists with key " + existing,
			})
		}

		asset := model.NewAsset()
		asset.Name = req.Name
		asset.AssetType = req.AssetType
		asset.Environment = req.Environment
		asset.Owner = req.Owner

		if _, err := st.CreateAsset(ctx, asset); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to create asset: " + err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(asset)
	}
}

// GetAssetProfile handles GET requests for an asset's stored risk rollup
func GetAssetProfile(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profile, err := st.GetAssetProfile(context.Background(), c.Params("key"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to query asset profile: " + err.Error(),
			})
		}
		if profile.AssetID == "" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Asset not found",
			})
		}
		return c.JSON(profile)
	}
}

// RecomputeAssetRisk handles POST requests forcing a recompute of one
// asset's risk rollup. The previous rollup is read first so threshold
// crossings can be detected against it.
func RecomputeAssetRisk(st *store.Store, agg *aggregate.AssetAggregator, notifier *notify.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()
		assetID := c.Params("key")

		previous, err := st.GetAssetProfile(ctx, assetID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to read previous profile: " + err.Error(),
			})
		}

		profile, err := agg.RecomputeAssetRisk(ctx, assetID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to recompute asset risk: " + err.Error(),
			})
		}

		// Notification failures do not fail the recompute
		_ = notifier.Check(ctx, assetID,
			notify.Metrics{RiskScore: profile.RiskScore, CriticalVulnCount: profile.CriticalCount},
			notify.Metrics{RiskScore: previous.RiskScore, CriticalVulnCount: previous.CriticalCount},
		)

		return c.JSON(profile)
	}
}
