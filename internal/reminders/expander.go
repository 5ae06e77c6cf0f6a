// Package reminders turns prescriptions and appointments into scheduled
// push reminders, and gates the confirm-intake action.
package reminders

import (
	"strconv"
	"strings"
	"time"

	"github.com/careloop/medreminder/internal/records"
)

// DoseEvent is one concrete scheduled intake derived from a prescription.
// Ephemeral: recomputed on demand, never persisted.
type DoseEvent struct {
	PrescriptionID string
	Occurrence     int
	ScheduledAt    time.Time
}

// Expand derives the dose events a prescription implies: one per day of the
// course, at the prescribed wall-clock time in loc. Pure function of its
// inputs; the result is bounded by the course duration.
func Expand(rx records.Prescription, loc *time.Location) ([]DoseEvent, error) {
	days, err := parseDurationDays(rx)
	if err != nil {
		return nil, err
	}
	start, clock, err := courseStart(rx, loc)
	if err != nil {
		return nil, err
	}

	doses := make([]DoseEvent, 0, days)
	for i := 0; i < days; i++ {
		// time.Date normalizes day overflow, keeping the wall-clock dose
		// time stable across DST transitions.
		at := time.Date(start.Year(), start.Month(), start.Day()+i,
			clock.hour, clock.minute, 0, 0, loc)
		doses = append(doses, DoseEvent{
			PrescriptionID: rx.ID,
			Occurrence:     i,
			ScheduledAt:    at,
		})
	}
	return doses, nil
}

// Active reports whether the prescription's course still overlaps asOf.
// A course ending before asOf is excluded from active listings, though its
// raw expansion stays computable for history and reports.
func Active(rx records.Prescription, asOf time.Time, loc *time.Location) (bool, error) {
	end, err := EndOfCourse(rx, loc)
	if err != nil {
		return false, err
	}
	return asOf.Before(end), nil
}

// EndOfCourse returns the first instant after the last dose's calendar day.
func EndOfCourse(rx records.Prescription, loc *time.Location) (time.Time, error) {
	days, err := parseDurationDays(rx)
	if err != nil {
		return time.Time{}, err
	}
	start, _, err := courseStart(rx, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(start.Year(), start.Month(), start.Day()+days, 0, 0, 0, 0, loc), nil
}

type clockOfDay struct {
	hour   int
	minute int
}

// courseStart validates and parses the structured date and time-of-day
// fields. Date and time stay separate until composed per occurrence; no
// string concatenation arithmetic.
func courseStart(rx records.Prescription, loc *time.Location) (time.Time, clockOfDay, error) {
	start, err := time.ParseInLocation(time.DateOnly, rx.StartDate, loc)
	if err != nil {
		return time.Time{}, clockOfDay{}, &InvalidScheduleError{
			RecordID: rx.ID, Field: "startDate", Value: rx.StartDate,
			Reason: "want YYYY-MM-DD",
		}
	}
	clock, err := parseClock(rx.TimeOfDay)
	if err != nil {
		return time.Time{}, clockOfDay{}, &InvalidScheduleError{
			RecordID: rx.ID, Field: "timeOfDay", Value: rx.TimeOfDay,
			Reason: "want HH:MM",
		}
	}
	return start, clock, nil
}

// parseDurationDays validates the dashboard-written duration string.
// Missing or non-numeric durations are configuration errors, never
// silently defaulted.
func parseDurationDays(rx records.Prescription) (int, error) {
	raw := strings.TrimSpace(rx.DurationDays)
	if raw == "" {
		return 0, &InvalidScheduleError{
			RecordID: rx.ID, Field: "durationDays", Value: raw,
			Reason: "missing",
		}
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &InvalidScheduleError{
			RecordID: rx.ID, Field: "durationDays", Value: raw,
			Reason: "not a number",
		}
	}
	if days < 1 {
		return 0, &InvalidScheduleError{
			RecordID: rx.ID, Field: "durationDays", Value: raw,
			Reason: "must be at least 1",
		}
	}
	return days, nil
}

func parseClock(s string) (clockOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return clockOfDay{}, err
	}
	return clockOfDay{hour: t.Hour(), minute: t.Minute()}, nil
}

// composeLocal combines a calendar date and clock time string pair into one
// instant in loc. Used for appointments, which are single events.
func composeLocal(recordID, date, clock string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(time.DateOnly, date, loc)
	if err != nil {
		return time.Time{}, &InvalidScheduleError{
			RecordID: recordID, Field: "date", Value: date,
			Reason: "want YYYY-MM-DD",
		}
	}
	c, err := parseClock(clock)
	if err != nil {
		return time.Time{}, &InvalidScheduleError{
			RecordID: recordID, Field: "time", Value: clock,
			Reason: "want HH:MM",
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), c.hour, c.minute, 0, 0, loc), nil
}
