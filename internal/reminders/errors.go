package reminders

import (
	"errors"
	"fmt"
)

// ErrPermissionDenied indicates the patient has declined push notifications.
// Planning is skipped without side effects until permission is granted.
var ErrPermissionDenied = errors.New("reminders: notification permission denied")

// InvalidScheduleError reports a structurally invalid prescription or
// appointment field. The affected record is skipped; siblings are unaffected.
type InvalidScheduleError struct {
	RecordID string
	Field    string
	Value    string
	Reason   string
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("reminders: invalid schedule for %s: %s %q: %s",
		e.RecordID, e.Field, e.Value, e.Reason)
}

// NotificationSchedulingError reports that every due trigger for a record
// failed to enqueue. Individual trigger failures are logged and skipped;
// this aggregate is returned once per record, and the idempotency marker is
// left unset so a later planning pass retries.
type NotificationSchedulingError struct {
	MarkerKey string
	Failed    int
	Last      error
}

func (e *NotificationSchedulingError) Error() string {
	return fmt.Sprintf("reminders: all %d triggers failed for %s: %v",
		e.Failed, e.MarkerKey, e.Last)
}

func (e *NotificationSchedulingError) Unwrap() error { return e.Last }
