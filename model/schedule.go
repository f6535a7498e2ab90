package model

import "time"

// Frequency is the closed set of recurrence intervals a schedule supports
type Frequency string

const (
	// FrequencyHourly fires every hour from the previous run.
	FrequencyHourly Frequency = "HOURLY"
	// FrequencyDaily fires at TimeOfDay every day.
	FrequencyDaily Frequency = "DAILY"
	// FrequencyWeekly fires at TimeOfDay on DayOfWeek.
	FrequencyWeekly Frequency = "WEEKLY"
	// FrequencyMonthly fires at TimeOfDay on DayOfMonth, clamped to the
	// last day of shorter months.
	FrequencyMonthly Frequency = "MONTHLY"
)

// IsValid reports whether the frequency is one of the known intervals
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyHourly, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// ScheduleSpec describes when a recurring job fires
type ScheduleSpec struct {
	Frequency  Frequency    `json:"frequency"`
	Hour       int          `json:"hour"`         // 0-23, ignored for HOURLY
	Minute     int          `json:"minute"`       // 0-59, ignored for HOURLY
	DayOfWeek  time.Weekday `json:"day_of_week"`  // WEEKLY only
	DayOfMonth int          `json:"day_of_month"` // MONTHLY only, 1-31
	Enabled    bool         `json:"enabled"`
}

// ScheduledJob is a recurring scan or report definition consumed by the
// scheduler to create PENDING jobs when due
type ScheduledJob struct {
	Key       string       `json:"_key,omitempty"`
	Name      string       `json:"name"`
	Kind      JobKind      `json:"kind"`
	Spec      ScheduleSpec `json:"spec"`
	NextRun   time.Time    `json:"next_run"`
	LastRun   *time.Time   `json:"last_run,omitempty"`
	ObjType   string       `json:"objtype,omitempty"` // "ScheduledJob"
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewScheduledJob creates a new ScheduledJob instance with default values
func NewScheduledJob() *ScheduledJob {
	now := time.Now()
	return &ScheduledJob{
		ObjType:   "ScheduledJob",
		CreatedAt: now,
		UpdatedAt: now,
	}
}
