// Package dashboard defines the GraphQL queries for the posture dashboard.
package dashboard

import (
	"github.com/graphql-go/graphql"

	"github.com/postureops/posture-backend/database"
)

// GetQueryFields returns the dashboard queries to be mounted in the root schema
func GetQueryFields(db database.DBConnection) graphql.Fields {
	return graphql.Fields{
		// Section 1: Top Cards (Overview)
		"postureOverview": &graphql.Field{
			Type: PostureOverviewType,
			Resolve: func(_ graphql.ResolveParams) (interface{}, error) {
				return ResolveOverview(db)
			},
		},
		// Section 2: Charts (Severity)
		"severityDistribution": &graphql.Field{
			Type: SeverityDistributionType,
			Resolve: func(_ graphql.ResolveParams) (interface{}, error) {
				return ResolveSeverityDistribution(db)
			},
		},
		// Section 3: Tables (Top Risky Assets)
		"topRiskyAssets": &graphql.Field{
			Type: graphql.NewList(RiskyAssetType),
			Args: graphql.FieldConfigArgument{
				"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 5},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				limit := p.Args["limit"].(int)
				return ResolveTopRiskyAssets(db, limit)
			},
		},
		// Section 4: Job Activity
		"jobActivity": &graphql.Field{
			Type: JobActivityType,
			Resolve: func(_ graphql.ResolveParams) (interface{}, error) {
				return ResolveJobActivity(db)
			},
		},
		// Section 5: Compliance
		"frameworkScores": &graphql.Field{
			Type: graphql.NewList(FrameworkScoreType),
			Resolve: func(_ graphql.ResolveParams) (interface{}, error) {
				return ResolveFrameworkScores(db)
			},
		},
	}
}
