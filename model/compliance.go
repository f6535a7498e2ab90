package model

import "time"

// ControlStatus represents the implementation state of a compliance control
type ControlStatus string

const (
	// ControlNotImplemented carries weight 0 in the framework score.
	ControlNotImplemented ControlStatus = "NOT_IMPLEMENTED"
	// ControlPartial carries weight 0.5 in the framework score.
	ControlPartial ControlStatus = "PARTIAL"
	// ControlImplemented carries weight 1.0 in the framework score.
	ControlImplemented ControlStatus = "IMPLEMENTED"
)

// Weight returns the scoring weight of the control status
func (s ControlStatus) Weight() float64 {
	switch s {
	case ControlImplemented:
		return 1.0
	case ControlPartial:
		return 0.5
	default:
		return 0
	}
}

// IsValid reports whether the status is one of the known states
func (s ControlStatus) IsValid() bool {
	return s == ControlNotImplemented || s == ControlPartial || s == ControlImplemented
}

// FrameworkStatus represents the lifecycle state of a compliance framework
type FrameworkStatus string

const (
	// FrameworkActive frameworks participate in the organization score.
	FrameworkActive FrameworkStatus = "ACTIVE"
	// FrameworkDraft frameworks are being authored and are excluded.
	FrameworkDraft FrameworkStatus = "DRAFT"
	// FrameworkArchived frameworks are retired and excluded.
	FrameworkArchived FrameworkStatus = "ARCHIVED"
)

// IsValid reports whether the status is one of the known lifecycle states
func (s FrameworkStatus) IsValid() bool {
	return s == FrameworkActive || s == FrameworkDraft || s == FrameworkArchived
}

// Framework represents a compliance standard (e.g., "SOC 2", "HIPAA")
type Framework struct {
	Key         string          `json:"_key,omitempty"`
	Name        string          `json:"name"`
	Version     string          `json:"version,omitempty"` // e.g., "2017 Trust Services Criteria"
	Description string          `json:"description,omitempty"`
	Status      FrameworkStatus `json:"status"`
	ObjType     string          `json:"objtype,omitempty"` // "Framework"
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Derived rollup field, owned by the compliance aggregator
	Score float64 `json:"score"`
}

// NewFramework creates a new Framework instance with default values
func NewFramework() *Framework {
	now := time.Now()
	return &Framework{
		ObjType:   "Framework",
		Status:    FrameworkDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Control represents a single requirement within a framework
type Control struct {
	Key         string        `json:"_key,omitempty"`
	FrameworkID string        `json:"framework_id"`
	ControlID   string        `json:"control_id"` // e.g., "CC6.1"
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ControlStatus `json:"status"`
	ObjType     string        `json:"objtype,omitempty"` // "Control"
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewControl creates a new Control instance with default values
func NewControl() *Control {
	now := time.Now()
	return &Control{
		ObjType:   "Control",
		Status:    ControlNotImplemented,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FrameworkScore is the derived compliance rollup for one framework
type FrameworkScore struct {
	FrameworkID string  `json:"framework_id"`
	Score       float64 `json:"score"` // 0-100
}

// OrganizationComplianceScore is the mean of active framework scores
type OrganizationComplianceScore struct {
	Score          float64   `json:"score"` // 0-100
	FrameworkCount int       `json:"framework_count"`
	RecomputedAt   time.Time `json:"recomputed_at"`
}
