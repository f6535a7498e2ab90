// Package restapi provides the main router and initialization for REST API endpoints.
package restapi

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/postureops/posture-backend/internal/aggregate"
	"github.com/postureops/posture-backend/internal/lifecycle"
	"github.com/postureops/posture-backend/internal/notify"
	"github.com/postureops/posture-backend/internal/store"
	"github.com/postureops/posture-backend/restapi/modules/compliance"
	"github.com/postureops/posture-backend/restapi/modules/jobs"
	"github.com/postureops/posture-backend/restapi/modules/scores"
	"github.com/postureops/posture-backend/restapi/modules/vulnerabilities"
)

// Services bundles the collaborators the route handlers depend on
type Services struct {
	Store      *store.Store
	Machine    *lifecycle.Machine
	Assets     *aggregate.AssetAggregator
	Compliance *aggregate.ComplianceAggregator
	Notifier   *notify.Notifier
}

// SetupRoutes configures all REST API routes and the GraphQL endpoint.
func SetupRoutes(app *fiber.App, svc Services, schema graphql.Schema) {

	// API Group /api/v1
	api := app.Group("/api/v1")

	// GraphQL Route - Mounted within the api group to inherit path prefixes
	api.Post("/graphql", GraphQLHandler(schema))

	// Job lifecycle
	jobGroup := api.Group("/jobs")
	jobGroup.Post("/", jobs.CreateJob(svc.Store))
	jobGroup.Get("/:key", jobs.GetJob(svc.Store))
	jobGroup.Post("/:key/start", jobs.StartJob(svc.Machine))
	jobGroup.Post("/:key/complete", jobs.CompleteJob(svc.Machine))
	jobGroup.Post("/:key/fail", jobs.FailJob(svc.Machine))
	jobGroup.Post("/:key/cancel", jobs.CancelJob(svc.Machine))
	jobGroup.Patch("/:key/progress", jobs.SetProgress(svc.Machine))

	// Scoring
	scoreGroup := api.Group("/scores")
	scoreGroup.Post("/classify", scores.Classify())
	scoreGroup.Post("/matrix", scores.MatrixScore())

	// Risk register
	riskGroup := api.Group("/risks")
	riskGroup.Post("/", scores.CreateRiskRecord(svc.Store))
	riskGroup.Get("/", scores.ListRiskRecords(svc.Store))

	// Assets and risk rollups
	assetGroup := api.Group("/assets")
	assetGroup.Post("/", scores.CreateAsset(svc.Store))
	assetGroup.Get("/:key/profile", scores.GetAssetProfile(svc.Store))
	assetGroup.Post("/:key/recompute", scores.RecomputeAssetRisk(svc.Store, svc.Assets, svc.Notifier))
	assetGroup.Post("/:key/links", vulnerabilities.CreateLink(svc.Store, svc.Assets, svc.Notifier))

	// Vulnerabilities and link workflow
	vulnGroup := api.Group("/vulnerabilities")
	vulnGroup.Post("/", vulnerabilities.CreateVulnerability(svc.Store))
	api.Patch("/links/:key/status", vulnerabilities.UpdateLinkStatus(svc.Store, svc.Assets, svc.Notifier))

	// Compliance
	complianceGroup := api.Group("/compliance")
	complianceGroup.Post("/frameworks", compliance.CreateFramework(svc.Store))
	complianceGroup.Get("/organization", compliance.GetOrganizationScore(svc.Store))
	complianceGroup.Patch("/frameworks/:key/status", compliance.SetFrameworkStatus(svc.Store, svc.Compliance, svc.Notifier))
	complianceGroup.Get("/frameworks/:key/score", compliance.GetFrameworkScore(svc.Compliance))
	complianceGroup.Put("/frameworks/:key/controls/:controlId", compliance.SetControlStatus(svc.Store, svc.Compliance, svc.Notifier))

	log.Println("API routes initialized successfully")
}
