package model

import "time"

// RiskRecord represents a qualitative risk register entry. Score and Level
// are derived from Likelihood and Impact and are never set directly.
type RiskRecord struct {
	Key        string    `json:"_key,omitempty"`
	Title      string    `json:"title"`
	Likelihood RiskLevel `json:"likelihood"`
	Impact     RiskLevel `json:"impact"`
	Score      float64   `json:"score"` // Derived, 0-10 display scale
	Level      RiskLevel `json:"level"` // Derived
	ObjType    string    `json:"objtype,omitempty"` // "RiskRecord"
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewRiskRecord creates a new RiskRecord instance with default values
func NewRiskRecord() *RiskRecord {
	now := time.Now()
	return &RiskRecord{
		ObjType:   "RiskRecord",
		CreatedAt: now,
		UpdatedAt: now,
	}
}
