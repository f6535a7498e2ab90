// Package graphql assembles the root schema from the module query fields.
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/postureops/posture-backend/database"
	"github.com/postureops/posture-backend/graphql/modules/dashboard"
)

var db database.DBConnection

// InitDB stores the database connection for the resolvers
func InitDB(conn database.DBConnection) {
	db = conn
}

// CreateSchema builds the root GraphQL schema from the module query fields
func CreateSchema() (graphql.Schema, error) {
	fields := graphql.Fields{}

	for name, field := range dashboard.GetQueryFields(db) {
		fields[name] = field
	}

	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: fields,
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: rootQuery,
	})
}
