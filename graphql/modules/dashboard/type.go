// Package dashboard defines the GraphQL types for the posture dashboard.
package dashboard

import (
	"github.com/graphql-go/graphql"
)

// PostureOverviewType represents the high-level metrics for the top cards
var PostureOverviewType = graphql.NewObject(graphql.ObjectConfig{
	Name: "PostureOverview",
	Fields: graphql.Fields{
		"total_assets":        &graphql.Field{Type: graphql.Int},
		"total_open_findings": &graphql.Field{Type: graphql.Int},
		"critical_vuln_count": &graphql.Field{Type: graphql.Int},
		"average_risk_score":  &graphql.Field{Type: graphql.Float},
		"compliance_score":    &graphql.Field{Type: graphql.Float},
		"active_frameworks":   &graphql.Field{Type: graphql.Int},
	},
})

// SeverityDistributionType represents the data for the pie/bar charts
var SeverityDistributionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SeverityDistribution",
	Fields: graphql.Fields{
		"critical": &graphql.Field{Type: graphql.Int},
		"high":     &graphql.Field{Type: graphql.Int},
		"medium":   &graphql.Field{Type: graphql.Int},
		"low":      &graphql.Field{Type: graphql.Int},
		"info":     &graphql.Field{Type: graphql.Int},
	},
})

// RiskyAssetType represents rows for the "Top Risky Assets" table
var RiskyAssetType = graphql.NewObject(graphql.ObjectConfig{
	Name: "RiskyAsset",
	Fields: graphql.Fields{
		"asset_id":            &graphql.Field{Type: graphql.String},
		"name":                &graphql.Field{Type: graphql.String},
		"environment":         &graphql.Field{Type: graphql.String},
		"risk_score":          &graphql.Field{Type: graphql.Float},
		"critical_count":      &graphql.Field{Type: graphql.Int},
		"vulnerability_count": &graphql.Field{Type: graphql.Int},
	},
})

// JobActivityType represents the job counts per lifecycle state
var JobActivityType = graphql.NewObject(graphql.ObjectConfig{
	Name: "JobActivity",
	Fields: graphql.Fields{
		"pending":   &graphql.Field{Type: graphql.Int},
		"running":   &graphql.Field{Type: graphql.Int},
		"completed": &graphql.Field{Type: graphql.Int},
		"failed":    &graphql.Field{Type: graphql.Int},
		"cancelled": &graphql.Field{Type: graphql.Int},
	},
})

// FrameworkScoreType represents one framework's compliance score row
var FrameworkScoreType = graphql.NewObject(graphql.ObjectConfig{
	Name: "FrameworkScore",
	Fields: graphql.Fields{
		"framework_id": &graphql.Field{Type: graphql.String},
		"name":         &graphql.Field{Type: graphql.String},
		"status":       &graphql.Field{Type: graphql.String},
		"score":        &graphql.Field{Type: graphql.Float},
	},
})
