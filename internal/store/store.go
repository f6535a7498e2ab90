// Package store implements the persistence collaborators the scoring and
// lifecycle core consumes, backed by ArangoDB.
package store

import (
	"context"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"

	"github.com/postureops/posture-backend/database"
	"github.com/postureops/posture-backend/model"
)

// Store provides read and write access to posture documents. It satisfies
// the collaborator interfaces of the aggregate, lifecycle, and scheduler
// packages.
type Store struct {
	DB database.DBConnection
}

// New creates a Store over the given database connection
func New(db database.DBConnection) *Store {
	return &Store{DB: db}
}

// ListActiveLinks returns the asset's links in an active status, each with
// the severity and CVSS score of the underlying vulnerability
func (s *Store) ListActiveLinks(ctx context.Context, assetID string) ([]model.ActiveLink, error) {
	query := `
		FOR e IN asset2vuln
			FILTER e._from == CONCAT('asset/', @assetID)
			FILTER e.status IN @active
			FOR v IN vulnerability
				FILTER v._id == e._to
				RETURN { severity: v.severity, cvss_score: v.cvss_score }
	`
	bindVars := map[string]interface{}{
		"assetID": assetID,
		"active":  []string{string(model.LinkStatusOpen), string(model.LinkStatusInvestigating)},
	}

	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: bindVars,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var links []model.ActiveLink
	for cursor.HasMore() {
		var link model.ActiveLink
		if _, err := cursor.ReadDocument(ctx, &link); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, nil
}

// SaveAssetRiskProfile overwrites the asset's derived rollup fields in a
// single document update
func (s *Store) SaveAssetRiskProfile(ctx context.Context, profile model.AssetRiskProfile) error {
	patch := map[string]interface{}{
		"risk_score":          profile.RiskScore,
		"vulnerability_count": profile.VulnerabilityCount,
		"critical_count":      profile.CriticalCount,
		"updated_at":          time.Now(),
	}
	_, err := s.DB.Collections["asset"].UpdateDocument(ctx, profile.AssetID, patch)
	return err
}

// CreateAsset persists a new asset and returns its generated key
func (s *Store) CreateAsset(ctx context.Context, asset *model.Asset) (string, error) {
	meta, err := s.DB.Collections["asset"].CreateDocument(ctx, asset)
	if err != nil {
		return "", err
	}
	asset.Key = meta.Key
	return meta.Key, nil
}

// CreateFramework persists a new framework and returns its generated key
func (s *Store) CreateFramework(ctx context.Context, framework *model.Framework) (string, error) {
	meta, err := s.DB.Collections["framework"].CreateDocument(ctx, framework)
	if err != nil {
		return "", err
	}
	framework.Key = meta.Key
	return meta.Key, nil
}

// GetAssetProfile reads the asset's stored risk rollup fields. A missing
// asset returns a zero profile without error.
func (s *Store) GetAssetProfile(ctx context.Context, assetID string) (model.AssetRiskProfile, error) {
	query := `
		FOR a IN asset
			FILTER a._key == @assetID
			LIMIT 1
			RETURN {
				asset_id: a._key,
				risk_score: a.risk_score,
				vulnerability_count: a.vulnerability_count,
				critical_count: a.critical_count
			}
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"assetID": assetID},
	})
	if err != nil {
		return model.AssetRiskProfile{}, err
	}
	defer cursor.Close()

	var profile model.AssetRiskProfile
	if cursor.HasMore() {
		if _, err := cursor.ReadDocument(ctx, &profile); err != nil {
			return model.AssetRiskProfile{}, err
		}
	}
	return profile, nil
}

// ListControls returns the statuses of all controls under a framework
func (s *Store) ListControls(ctx context.Context, frameworkID string) ([]model.ControlStatus, error) {
	query := `
		FOR c IN control
			FILTER c.framework_id == @frameworkID
			RETURN c.status
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"frameworkID": frameworkID},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var statuses []model.ControlStatus
	for cursor.HasMore() {
		var status model.ControlStatus
		if _, err := cursor.ReadDocument(ctx, &status); err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// ListActiveFrameworkScores returns the stored scores of ACTIVE frameworks
func (s *Store) ListActiveFrameworkScores(ctx context.Context) ([]model.FrameworkScore, error) {
	query := `
		FOR f IN framework
			FILTER f.status == @status
			RETURN { framework_id: f._key, score: f.score }
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"status": string(model.FrameworkActive)},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var scores []model.FrameworkScore
	for cursor.HasMore() {
		var score model.FrameworkScore
		if _, err := cursor.ReadDocument(ctx, &score); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	return scores, nil
}

// UpdateFrameworkStatus moves a framework between DRAFT, ACTIVE, and
// ARCHIVED and returns its key. A missing framework returns empty without
// error.
func (s *Store) UpdateFrameworkStatus(ctx context.Context, frameworkID string, status model.FrameworkStatus) (string, error) {
	query := `
		FOR f IN framework
			FILTER f._key == @frameworkID
			UPDATE f WITH { status: @status, updated_at: @at } IN framework
			RETURN NEW._key
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"frameworkID": frameworkID,
			"status":      string(status),
			"at":          time.Now(),
		},
	})
	if err != nil {
		return "", err
	}
	defer cursor.Close()

	if cursor.HasMore() {
		var key string
		if _, err := cursor.ReadDocument(ctx, &key); err != nil {
			return "", err
		}
		return key, nil
	}
	return "", nil
}

// SaveFrameworkScore overwrites the framework's derived score field
func (s *Store) SaveFrameworkScore(ctx context.Context, score model.FrameworkScore) error {
	patch := map[string]interface{}{
		"score":      score.Score,
		"updated_at": time.Now(),
	}
	_, err := s.DB.Collections["framework"].UpdateDocument(ctx, score.FrameworkID, patch)
	return err
}

// SaveControlStatus upserts the implementation status of a single control
// under a framework
func (s *Store) SaveControlStatus(ctx context.Context, frameworkID, controlID string, status model.ControlStatus) error {
	query := `
		UPSERT { framework_id: @frameworkID, control_id: @controlID }
		INSERT {
			framework_id: @frameworkID,
			control_id: @controlID,
			status: @status,
			objtype: "Control",
			created_at: @at,
			updated_at: @at
		}
		UPDATE {
			status: @status,
			updated_at: @at
		} IN control
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"frameworkID": frameworkID,
			"controlID":   controlID,
			"status":      string(status),
			"at":          time.Now(),
		},
	})
	if err != nil {
		return err
	}
	return cursor.Close()
}

// SaveOrganizationScore upserts the single organization-wide score document
func (s *Store) SaveOrganizationScore(ctx context.Context, score model.OrganizationComplianceScore) error {
	query := `
		UPSERT { _key: "organization" }
		INSERT {
			_key: "organization",
			score: @score,
			framework_count: @count,
			recomputed_at: @at
		}
		UPDATE {
			score: @score,
			framework_count: @count,
			recomputed_at: @at
		} IN org_score
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"score": score.Score,
			"count": score.FrameworkCount,
			"at":    score.RecomputedAt,
		},
	})
	if err != nil {
		return err
	}
	return cursor.Close()
}

// GetOrganizationScore reads the stored organization-wide score, returning
// a zero score when none has been computed yet
func (s *Store) GetOrganizationScore(ctx context.Context) (model.OrganizationComplianceScore, error) {
	query := `
		FOR o IN org_score
			FILTER o._key == "organization"
			LIMIT 1
			RETURN { score: o.score, framework_count: o.framework_count, recomputed_at: o.recomputed_at }
	`
	cursor, err := s.DB.Database.Query(ctx, query, nil)
	if err != nil {
		return model.OrganizationComplianceScore{}, err
	}
	defer cursor.Close()

	var score model.OrganizationComplianceScore
	if cursor.HasMore() {
		if _, err := cursor.ReadDocument(ctx, &score); err != nil {
			return model.OrganizationComplianceScore{}, err
		}
	}
	return score, nil
}

// FindVulnerabilityByCveID returns the key of the vulnerability with the
// given CVE id, or empty when none exists
func (s *Store) FindVulnerabilityByCveID(ctx context.Context, cveID string) (string, error) {
	query := `
		FOR v IN vulnerability
			FILTER v.cve_id == @cveID
			LIMIT 1
			RETURN v._key
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"cveID": cveID},
	})
	if err != nil {
		return "", err
	}
	defer cursor.Close()

	if cursor.HasMore() {
		var key string
		if _, err := cursor.ReadDocument(ctx, &key); err != nil {
			return "", err
		}
		return key, nil
	}
	return "", nil
}

// CreateVulnerability persists a new vulnerability definition
func (s *Store) CreateVulnerability(ctx context.Context, vuln *model.Vulnerability) (string, error) {
	meta, err := s.DB.Collections["vulnerability"].CreateDocument(ctx, vuln)
	if err != nil {
		return "", err
	}
	vuln.Key = meta.Key
	return meta.Key, nil
}

// CreateLink persists a new asset-vulnerability edge
func (s *Store) CreateLink(ctx context.Context, link *model.VulnerabilityLink) (string, error) {
	meta, err := s.DB.Collections["asset2vuln"].CreateDocument(ctx, link)
	if err != nil {
		return "", err
	}
	link.Key = meta.Key
	return meta.Key, nil
}

// UpdateLinkStatus moves a link through its workflow and returns the key
// of the owning asset so the caller can recompute its rollup. A missing
// link returns empty without error.
func (s *Store) UpdateLinkStatus(ctx context.Context, linkKey string, status model.LinkStatus, resolvedAt *time.Time) (string, error) {
	query := `
		FOR e IN asset2vuln
			FILTER e._key == @linkKey
			UPDATE e WITH { status: @status, resolved_at: @resolvedAt } IN asset2vuln
			RETURN PARSE_IDENTIFIER(NEW._from).key
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"linkKey":    linkKey,
			"status":     string(status),
			"resolvedAt": resolvedAt,
		},
	})
	if err != nil {
		return "", err
	}
	defer cursor.Close()

	if cursor.HasMore() {
		var assetID string
		if _, err := cursor.ReadDocument(ctx, &assetID); err != nil {
			return "", err
		}
		return assetID, nil
	}
	return "", nil
}

// CreateRiskRecord persists a new risk register entry
func (s *Store) CreateRiskRecord(ctx context.Context, record *model.RiskRecord) (string, error) {
	meta, err := s.DB.Collections["risk"].CreateDocument(ctx, record)
	if err != nil {
		return "", err
	}
	record.Key = meta.Key
	return meta.Key, nil
}

// ListRiskRecords returns the risk register sorted by descending score
func (s *Store) ListRiskRecords(ctx context.Context) ([]model.RiskRecord, error) {
	query := `
		FOR r IN risk
			SORT r.score DESC
			RETURN r
	`
	cursor, err := s.DB.Database.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var records []model.RiskRecord
	for cursor.HasMore() {
		var record model.RiskRecord
		if _, err := cursor.ReadDocument(ctx, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// GetJob loads a job by key; a missing job returns nil without error
func (s *Store) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	query := `
		FOR j IN job
			FILTER j._key == @jobID
			LIMIT 1
			RETURN j
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"jobID": jobID},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	if cursor.HasMore() {
		var job model.Job
		if _, err := cursor.ReadDocument(ctx, &job); err != nil {
			return nil, err
		}
		return &job, nil
	}
	return nil, nil
}

// SaveJobState overwrites the job document with the transitioned state
func (s *Store) SaveJobState(ctx context.Context, job *model.Job) error {
	_, err := s.DB.Collections["job"].ReplaceDocument(ctx, job.Key, job)
	return err
}

// CreateJob persists a new job and returns its generated key
func (s *Store) CreateJob(ctx context.Context, job *model.Job) (string, error) {
	meta, err := s.DB.Collections["job"].CreateDocument(ctx, job)
	if err != nil {
		return "", err
	}
	job.Key = meta.Key
	return meta.Key, nil
}

// ListEnabledSchedules returns every schedule whose spec is enabled
func (s *Store) ListEnabledSchedules(ctx context.Context) ([]model.ScheduledJob, error) {
	query := `
		FOR sch IN schedule
			FILTER sch.spec.enabled == true
			RETURN sch
	`
	cursor, err := s.DB.Database.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var schedules []model.ScheduledJob
	for cursor.HasMore() {
		var sched model.ScheduledJob
		if _, err := cursor.ReadDocument(ctx, &sched); err != nil {
			return nil, err
		}
		schedules = append(schedules, sched)
	}
	return schedules, nil
}

// SaveSchedule overwrites a schedule after its nextRun advanced
func (s *Store) SaveSchedule(ctx context.Context, schedule *model.ScheduledJob) error {
	_, err := s.DB.Collections["schedule"].ReplaceDocument(ctx, schedule.Key, schedule)
	return err
}
