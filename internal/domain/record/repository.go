// internal/domain/record/repository.go
package record

import (
	"context"
	"time"
)

// Repository defines the persistence operations for reminder records.
type Repository interface {
	// Append stores a new record and assigns its ID and CreatedAt.
	Append(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id int64) (*Record, error)
	// ListDueCandidates returns records that may be due as of the given
	// instant: not yet notified, reminder instant at or before asOf. The
	// store may pre-filter by index; callers still run ResolveDue over the
	// result for ordering and correctness.
	ListDueCandidates(ctx context.Context, asOf time.Time) ([]*Record, error)
	// ListPending returns all records that have not been notified yet,
	// regardless of reminder instant. For operational overviews.
	ListPending(ctx context.Context) ([]*Record, error)
	// MarkNotified sets the notified timestamp for the record, but only if
	// it is not already set. A record already marked (e.g. by a racing
	// process) yields ErrAlreadyNotified, which dispatch treats as a
	// success-no-op.
	MarkNotified(ctx context.Context, id int64, at time.Time) error
}
