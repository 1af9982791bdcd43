// internal/domain/record/record.go
package record

import (
	"database/sql"
	"time"
)

// Record is an expiring artifact being tracked for a reminder.
// Corresponds to the 'reminder_records' table.
type Record struct {
	ID          int64
	Category    string // Must reference an existing mapping entry together with Subcategory
	Subcategory string
	ExpiryAt    time.Time
	LeadDays    int          // Whole days before expiry at which the reminder fires; >= 1
	ReminderAt  time.Time    // Derived once at creation; never recomputed
	NotifiedAt  sql.NullTime // Set exactly once by the dispatcher after successful delivery
	Recipients  []string     // Delivery addresses; must be non-empty
	CreatedAt   time.Time
}

// Notified reports whether the record has already been delivered.
func (r *Record) Notified() bool {
	return r.NotifiedAt.Valid
}

// DueEvent pairs a due record with the evaluation instant that selected it.
// It lives only within a single scheduling pass and is never persisted.
type DueEvent struct {
	Record *Record
	AsOf   time.Time
}
