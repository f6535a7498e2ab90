// Package scheduler computes recurring-job fire times and creates PENDING
// jobs when schedules come due.
package scheduler

import (
	"time"

	"github.com/postureops/posture-backend/model"
)

// ComputeNextRun returns the first occurrence of the schedule strictly
// after from. Deterministic in (spec, from); the caller supplies the
// reference time, the function never reads the clock.
func ComputeNextRun(spec model.ScheduleSpec, from time.Time) time.Time {
	switch spec.Frequency {
	case model.FrequencyHourly:
		return from.Add(time.Hour)

	case model.FrequencyDaily:
		next := atTimeOfDay(from, spec)
		if !next.After(from) {
			next = atTimeOfDay(from.AddDate(0, 0, 1), spec)
		}
		return next

	case model.FrequencyWeekly:
		next := atTimeOfDay(from, spec)
		offset := (int(spec.DayOfWeek) - int(next.Weekday()) + 7) % 7
		next = next.AddDate(0, 0, offset)
		if !next.After(from) {
			next = next.AddDate(0, 0, 7)
		}
		return next

	case model.FrequencyMonthly:
		next := monthlyOccurrence(from.Year(), from.Month(), spec, from.Location())
		if !next.After(from) {
			first := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location()).AddDate(0, 1, 0)
			next = monthlyOccurrence(first.Year(), first.Month(), spec, from.Location())
		}
		return next
	}
	return time.Time{}
}

// atTimeOfDay pins the spec's hour and minute onto the given date
func atTimeOfDay(t time.Time, spec model.ScheduleSpec) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), spec.Hour, spec.Minute, 0, 0, t.Location())
}

// monthlyOccurrence places the schedule inside the given month, clamping
// the day to the month's length (day 31 in April resolves to April 30)
func monthlyOccurrence(year int, month time.Month, spec model.ScheduleSpec, loc *time.Location) time.Time {
	day := spec.DayOfMonth
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, month, day, spec.Hour, spec.Minute, 0, 0, loc)
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
