package reminders

import (
	"time"

	"github.com/careloop/medreminder/internal/records"
)

// CanConfirm reports whether the confirm-intake action is enabled for the
// dose right now. False while a confirmation for the same prescription
// already exists on the current local calendar day, and false before the
// dose's scheduled time has arrived. Pure decision: callers re-evaluate as
// now advances.
func CanConfirm(dose DoseEvent, confirmations []records.IntakeConfirmation, now time.Time) bool {
	for _, c := range confirmations {
		if c.PrescriptionID != dose.PrescriptionID {
			continue
		}
		taken, err := time.Parse(time.RFC3339, c.TakenAt)
		if err != nil {
			continue
		}
		if sameLocalDay(taken.In(now.Location()), now) {
			return false
		}
	}
	return !now.Before(dose.ScheduledAt)
}

// TodayDose picks the dose occurrence falling on now's local calendar day,
// if the course has one.
func TodayDose(doses []DoseEvent, now time.Time) (DoseEvent, bool) {
	for _, d := range doses {
		if sameLocalDay(d.ScheduledAt, now) {
			return d, true
		}
	}
	return DoseEvent{}, false
}

func sameLocalDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
