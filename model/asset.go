package model

import "time"

// Asset represents a monitored asset (host, application, cloud resource)
type Asset struct {
	Key         string    `json:"_key,omitempty"`
	Name        string    `json:"name"`        // Human-readable name (e.g., "payment-service-prod")
	AssetType   string    `json:"asset_type"`  // e.g., "server", "application", "database"
	Environment string    `json:"environment"` // e.g., "staging", "production"
	Owner       string    `json:"owner,omitempty"`
	ObjType     string    `json:"objtype,omitempty"` // "Asset"
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Derived rollup fields, owned by the asset risk aggregator
	RiskScore          float64 `json:"risk_score"`
	VulnerabilityCount int     `json:"vulnerability_count"`
	CriticalCount      int     `json:"critical_count"`
}

// NewAsset creates a new Asset instance with default values
func NewAsset() *Asset {
	now := time.Now()
	return &Asset{
		ObjType:   "Asset",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AssetRiskProfile is the derived risk rollup for a single asset.
// It is recomputed in place whenever the asset's active link set changes,
// never created or destroyed independently.
type AssetRiskProfile struct {
	AssetID            string  `json:"asset_id"`
	VulnerabilityCount int     `json:"vulnerability_count"`
	CriticalCount      int     `json:"critical_count"`
	RiskScore          float64 `json:"risk_score"`
}
