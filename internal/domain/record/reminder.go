// internal/domain/record/reminder.go
package record

import (
	"sort"
	"time"
)

// ComputeReminderAt returns the reminder instant for the given expiry and
// lead time: expiry minus leadDays whole calendar days, always in UTC.
// Operating in a single fixed zone keeps the subtraction deterministic
// regardless of the caller's locale or daylight-saving rules.
//
// The function performs no validation; out-of-range inputs are the
// caller's problem, not an error condition here.
func ComputeReminderAt(expiryAt time.Time, leadDays int) time.Time {
	return expiryAt.UTC().AddDate(0, 0, -leadDays)
}

// WholeDaysUntil returns the number of complete 24-hour days between from
// and until, floored. Negative when until precedes from.
func WholeDaysUntil(from, until time.Time) int {
	d := until.Sub(from)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}

// ResolveDue returns the subset of records that are due as of now: not yet
// notified and with a reminder instant at or before now. The result is
// ordered by reminder instant ascending, ties broken by id ascending, so
// repeated runs over identical input process records in the same order.
// Records are not mutated.
func ResolveDue(records []*Record, now time.Time) []*Record {
	due := make([]*Record, 0, len(records))
	for _, r := range records {
		if r.Notified() {
			continue
		}
		if r.ReminderAt.After(now) {
			continue
		}
		due = append(due, r)
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].ReminderAt.Equal(due[j].ReminderAt) {
			return due[i].ReminderAt.Before(due[j].ReminderAt)
		}
		return due[i].ID < due[j].ID
	})
	return due
}
