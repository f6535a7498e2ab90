// Package dashboard implements the resolvers for posture dashboard metrics.
package dashboard

import (
	"context"

	"github.com/arangodb/go-driver/v2/arangodb"

	"github.com/postureops/posture-backend/database"
	"github.com/postureops/posture-backend/model"
)

// ResolveOverview fetches the high-level posture metrics for the top cards
func ResolveOverview(db database.DBConnection) (interface{}, error) {
	ctx := context.Background()

	query := `
		LET assets = (
			FOR a IN asset
				RETURN { score: a.risk_score, criticals: a.critical_count, vulns: a.vulnerability_count }
		)
		LET org = FIRST(FOR o IN org_score FILTER o._key == "organization" RETURN o)
		LET active = LENGTH(FOR f IN framework FILTER f.status == @active RETURN 1)
		RETURN {
			total_assets: LENGTH(assets),
			total_open_findings: SUM(assets[*].vulns),
			critical_vuln_count: SUM(assets[*].criticals),
			average_risk_score: LENGTH(assets) == 0 ? 0 : AVERAGE(assets[*].score),
			compliance_score: org == null ? 0 : org.score,
			active_frameworks: active
		}
	`
	cursor, err := db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"active": string(model.FrameworkActive)},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var overview map[string]interface{}
	if cursor.HasMore() {
		if _, err := cursor.ReadDocument(ctx, &overview); err != nil {
			return nil, err
		}
	}
	return overview, nil
}

// ResolveSeverityDistribution counts active vulnerability links per severity
func ResolveSeverityDistribution(db database.DBConnection) (interface{}, error) {
	ctx := context.Background()

	query := `
		LET severities = (
			FOR e IN asset2vuln
				FILTER e.status IN @active
				FOR v IN vulnerability
					FILTER v._id == e._to
					RETURN v.severity
		)
		RETURN {
			critical: LENGTH(FOR s IN severities FILTER s == "CRITICAL" RETURN 1),
			high:     LENGTH(FOR s IN severities FILTER s == "HIGH" RETURN 1),
			medium:   LENGTH(FOR s IN severities FILTER s == "MEDIUM" RETURN 1),
			low:      LENGTH(FOR s IN severities FILTER s == "LOW" RETURN 1),
			info:     LENGTH(FOR s IN severities FILTER s == "INFO" RETURN 1)
		}
	`
	cursor, err := db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"active": []string{string(model.LinkStatusOpen), string(model.LinkStatusInvestigating)},
		},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var dist map[string]interface{}
	if cursor.HasMore() {
		if _, err := cursor.ReadDocument(ctx, &dist); err != nil {
			return nil, err
		}
	}
	return dist, nil
}

// ResolveTopRiskyAssets fetches the highest-risk assets sorted by score
func ResolveTopRiskyAssets(db database.DBConnection, limit int) (interface{}, error) {
	ctx := context.Background()

	query := `
		FOR a IN asset
			SORT a.risk_score DESC, a.critical_count DESC
			LIMIT @limit
			RETURN {
				asset_id: a._key,
				name: a.name,
				environment: a.environment,
				risk_score: a.risk_score,
				critical_count: a.critical_count,
				vulnerability_count: a.vulnerability_count
			}
	`
	cursor, err := db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"limit": limit},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	assets := []map[string]interface{}{}
	for cursor.HasMore() {
		var row map[string]interface{}
		if _, err := cursor.ReadDocument(ctx, &row); err != nil {
			return nil, err
		}
		assets = append(assets, row)
	}
	return assets, nil
}

// ResolveJobActivity counts jobs per lifecycle state
func ResolveJobActivity(db database.DBConnection) (interface{}, error) {
	ctx := context.Background()

	query := `
		RETURN {
			pending:   LENGTH(FOR j IN job FILTER j.state == "PENDING" RETURN 1),
			running:   LENGTH(FOR j IN job FILTER j.state == "RUNNING" RETURN 1),
			completed: LENGTH(FOR j IN job FILTER j.state == "COMPLETED" RETURN 1),
			failed:    LENGTH(FOR j IN job FILTER j.state == "FAILED" RETURN 1),
			cancelled: LENGTH(FOR j IN job FILTER j.state == "CANCELLED" RETURN 1)
		}
	`
	cursor, err := db.Database.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var activity map[string]interface{}
	if cursor.HasMore() {
		if _, err := cursor.ReadDocument(ctx, &activity); err != nil {
			return nil, err
		}
	}
	return activity, nil
}

// ResolveFrameworkScores lists every framework with its stored score
func ResolveFrameworkScores(db database.DBConnection) (interface{}, error) {
	ctx := context.Background()

	query := `
		FOR f IN framework
			SORT f.name ASC
			RETURN {
				framework_id: f._key,
				name: f.name,
				status: f.status,
				score: f.score
			}
	`
	cursor, err := db.Database.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	scores := []map[string]interface{}{}
	for cursor.HasMore() {
		var row map[string]interface{}
		if _, err := cursor.ReadDocument(ctx, &row); err != nil {
			return nil, err
		}
		scores = append(scores, row)
	}
	return scores, nil
}
