// Package compliance implements the REST API handlers for control status
// updates and compliance score reads.
package compliance

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/postureops/posture-backend/database"
	"github.com/postureops/posture-backend/internal/aggregate"
	"github.com/postureops/posture-backend/internal/notify"
	"github.com/postureops/posture-backend/internal/store"
	"github.com/postureops/posture-backend/model"
)

// CreateFrameworkRequest is the request body for registering a framework
type CreateFrameworkRequest struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
}

// SetControlRequest is the request body for a control status update
type SetControlRequest struct {
	Status string `json:"status"` // NOT_IMPLEMENTED, PARTIAL, or IMPLEMENTED
}

// SetFrameworkStatusRequest is the request body for a framework lifecycle change
type SetFrameworkStatusRequest struct {
	Status string `json:"status"` // DRAFT, ACTIVE, or ARCHIVED
}

// CreateFramework handles POST requests registering a new framework in
// DRAFT status. Creation alone never triggers a score recompute.
func CreateFramework(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateFrameworkRequest
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
		existing, err := database.FindFrameworkByName(ctx, st.DB.Database, req.Name)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to check for existing framework: " + err.Error(),
			})
		}
		if existing != "" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "Framework already exists with key " + existing,
			})
		}

		framework := model.NewFramework()
		framework.Name = req.Name
		framework.Version = req.Version
		framework.Description = req.Description

		if _, err := st.CreateFramework(ctx, framework); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to create framework: " + err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(framework)
	}
}

// SetFrameworkStatus handles PATCH requests moving a framework between
// DRAFT, ACTIVE, and ARCHIVED. Activation and archival change the set of
// frameworks entering the organization mean, so the organization score
// recomputes and the compliance floor is checked against the previous
// stored score.
func SetFrameworkStatus(st *store.Store, agg *aggregate.ComplianceAggregator, notifier *notify.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SetFrameworkStatusRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		status := model.FrameworkStatus(req.Status)
		if !status.IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "status must be DRAFT, ACTIVE, or ARCHIVED",
			})
		}

		ctx := context.Background()

		previous, err := st.GetOrganizationScore(ctx)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to read previous organization score: " + err.Error(),
			})
		}

		key, err := st.UpdateFrameworkStatus(ctx, c.Params("key"), status)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to update framework status: " + err.Error(),
			})
		}
		if key == "" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Framework not found",
			})
		}

		org, err := agg.RecomputeOrganizationScore(ctx)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to recompute organization score: " + err.Error(),
			})
		}

		// Notification failures do not fail the update
		_ = notifier.Check(ctx, "organization",
			notify.Metrics{ComplianceScore: org.Score},
			notify.Metrics{ComplianceScore: previous.Score},
		)

		return c.JSON(fiber.Map{
			"framework_id":       key,
			"status":             status,
			"organization_score": org,
		})
	}
}

// SetControlStatus handles PUT requests updating one control's
// implementation status. The write commits first; the framework and
// organization scores recompute afterwards, so a recompute failure never
// rolls back the status change.
func SetControlStatus(st *store.Store, agg *aggregate.ComplianceAggregator, notifier *notify.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SetControlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		status := model.ControlStatus(req.Status)
		if !status.IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "status must be NOT_IMPLEMENTED, PARTIAL, or IMPLEMENTED",
			})
		}

		ctx := context.Background()
		frameworkID := c.Params("key")
		controlID := c.Params("controlId")

		if err := st.SaveControlStatus(ctx, frameworkID, controlID, status); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to save control status: " + err.Error(),
			})
		}

		previous, err := st.GetOrganizationScore(ctx)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to read previous organization score: " + err.Error(),
			})
		}

		score, err := agg.RecomputeFrameworkScore(ctx, frameworkID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to recompute framework score: " + err.Error(),
			})
		}

		org, err := agg.RecomputeOrganizationScore(ctx)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to recompute organization score: " + err.Error(),
			})
		}

		// Notification failures do not fail the update
		_ = notifier.Check(ctx, "organization",
			notify.Metrics{ComplianceScore: org.Score},
			notify.Metrics{ComplianceScore: previous.Score},
		)

		return c.JSON(fiber.Map{
			"framework_score":    score,
			"organization_score": org,
		})
	}
}

// GetFrameworkScore handles GET requests recomputing and returning one
// framework's compliance score
func GetFrameworkScore(agg *aggregate.ComplianceAggregator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		score, err := agg.RecomputeFrameworkScore(context.Background(), c.Params("key"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to compute framework score: " + err.Error(),
			})
		}
		return c.JSON(score)
	}
}

// GetOrganizationScore handles GET requests for the stored
// organization-wide compliance score
func GetOrganizationScore(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		score, err := st.GetOrganizationScore(context.Background())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to query organization score: " + err.Error(),
			})
		}
		return c.JSON(score)
	}
}
