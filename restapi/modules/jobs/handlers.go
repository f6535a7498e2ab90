// Package jobs implements the REST API handlers for job lifecycle operations.
package jobs

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/postureops/posture-backend/internal/lifecycle"
	"github.com/postureops/posture-backend/internal/store"
	"github.com/postureops/posture-backend/model"
)

// CreateJobRequest is the request body for creating a job
type CreateJobRequest struct {
	Kind string `json:"kind"` // "SCAN" or "REPORT"
}

// CompleteRequest is the request body for completing a job
type CompleteRequest struct {
	ScanResult   *model.ScanResult   `json:"scan_result,omitempty"`
	ReportResult *model.ReportResult `json:"report_result,omitempty"`
}

// FailRequest is the request body for failing a job
type FailRequest struct {
	Error string `json:"error"`
}

// ProgressRequest is the request body for a progress update
type ProgressRequest struct {
	Progress int `json:"progress"`
}

// CreateJob handles POST requests creating a new PENDING job
func CreateJob(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateJobRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		kind := model.JobKind(req.Kind)
		if kind != model.JobKindScan && kind != model.JobKindReport {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "kind must be SCAN or REPORT",
			})
		}

		job := model.NewJob(kind)
		if _, err := st.CreateJob(context.Background(), job); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to create job: " + err.Error(),
			})
		}

		return c.Status(fiber.StatusCreated).JSON(job)
	}
}

// GetJob handles GET requests for a single job
func GetJob(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		job, err := st.GetJob(context.Background(), c.Params("key"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to query job: " + err.Error(),
			})
		}
		if job == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Job not found",
			})
		}
		return c.JSON(job)
	}
}

// StartJob handles POST requests transitioning a job to RUNNING
func StartJob(machine *lifecycle.Machine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		job, err := machine.Start(context.Background(), c.Params("key"))
		if err != nil {
			return transitionError(c, err)
		}
		return c.JSON(job)
	}
}

// CompleteJob handles POST requests transitioning a job to COMPLETED
func CompleteJob(machine *lifecycle.Machine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CompleteRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		job, err := machine.Complete(context.Background(), c.Params("key"), req.ScanResult, req.ReportResult)
		if err != nil {
			return transitionError(c, err)
		}
		return c.JSON(job)
	}
}

// FailJob handles POST requests transitioning a job to FAILED
func FailJob(machine *lifecycle.Machine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req FailRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		job, err := machine.Fail(context.Background(), c.Params("key"), req.Error)
		if err != nil {
			return transitionError(c, err)
		}
		return c.JSON(job)
	}
}

// CancelJob handles POST requests for cooperative cancellation
func CancelJob(machine *lifecycle.Machine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		job, err := machine.Cancel(context.Background(), c.Params("key"))
		if err != nil {
			return transitionError(c, err)
		}
		return c.JSON(job)
	}
}

// SetProgress handles PATCH requests updating a RUNNING job's progress
func SetProgress(machine *lifecycle.Machine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ProgressRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		job, err := machine.SetProgress(context.Background(), c.Params("key"), req.Progress)
		if err != nil {
			return transitionError(c, err)
		}
		return c.JSON(job)
	}
}

// transitionError maps lifecycle errors onto HTTP statuses
func transitionError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, lifecycle.ErrJobNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, lifecycle.ErrInvalidTransition), errors.Is(err, lifecycle.ErrAlreadyTerminal):
		status = fiber.StatusConflict
	case errors.Is(err, lifecycle.ErrInvalidProgress), errors.Is(err, lifecycle.ErrInvalidResult):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
	})
}
