// internal/infra/database/postgres_record_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"expiry_reminder_service/internal/domain/record"

	"github.com/lib/pq" // For pq.Array and driver registration
)

// Custom errors specific to the record repository
var ErrRecordNotFound = fmt.Errorf("reminder record not found")
var ErrAlreadyNotified = fmt.Errorf("reminder record already marked notified")

type PostgresRecordRepository struct {
	db *sql.DB
}

func NewPostgresRecordRepository(db *sql.DB) *PostgresRecordRepository {
	return &PostgresRecordRepository{db: db}
}

func (r *PostgresRecordRepository) Append(ctx context.Context, rec *record.Record) error {
	query := `INSERT INTO reminder_records (category, subcategory, expiry_at, lead_days, reminder_at, recipients)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		rec.Category, rec.Subcategory, rec.ExpiryAt, rec.LeadDays, rec.ReminderAt, pq.Array(rec.Recipients),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating reminder record: %w", err)
	}
	return nil
}

func (r *PostgresRecordRepository) GetByID(ctx context.Context, id int64) (*record.Record, error) {
	query := `SELECT id, category, subcategory, expiry_at, lead_days, reminder_at, notified_at, recipients, created_at
               FROM reminder_records WHERE id = $1`
	rec := record.Record{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Category, &rec.Subcategory, &rec.ExpiryAt, &rec.LeadDays,
		&rec.ReminderAt, &rec.NotifiedAt, pq.Array(&rec.Recipients), &rec.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("error getting reminder record by ID: %w", err)
	}
	return &rec, nil
}

// Helper to scan multiple rows
func scanRecords(rows *sql.Rows) ([]*record.Record, error) {
	records := make([]*record.Record, 0)
	for rows.Next() {
		rec := record.Record{}
		if err := rows.Scan(
			&rec.ID, &rec.Category, &rec.Subcategory, &rec.ExpiryAt, &rec.LeadDays,
			&rec.ReminderAt, &rec.NotifiedAt, pq.Array(&rec.Recipients), &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning reminder record row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder record rows: %w", err)
	}
	return records, nil
}

func (r *PostgresRecordRepository) ListDueCandidates(ctx context.Context, asOf time.Time) ([]*record.Record, error) {
	query := `SELECT id, category, subcategory, expiry_at, lead_days, reminder_at, notified_at, recipients, created_at
               FROM reminder_records
               WHERE notified_at IS NULL AND reminder_at <= $1
               ORDER BY reminder_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("error querying due candidate records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *PostgresRecordRepository) ListPending(ctx context.Context) ([]*record.Record, error) {
	query := `SELECT id, category, subcategory, expiry_at, lead_days, reminder_at, notified_at, recipients, created_at
               FROM reminder_records
               WHERE notified_at IS NULL
               ORDER BY reminder_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying pending records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// MarkNotified sets notified_at only when it is still unset. The conditional
// update is the cross-process guard: a racing marker sees zero rows affected
// and gets ErrAlreadyNotified, which callers treat as a success-no-op.
func (r *PostgresRecordRepository) MarkNotified(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE reminder_records SET notified_at = $1
               WHERE id = $2 AND notified_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("error marking record %d notified: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading mark result for record %d: %w", id, err)
	}
	if affected == 0 {
		// Distinguish "already marked" from "no such record".
		var exists bool
		checkQuery := `SELECT EXISTS(SELECT 1 FROM reminder_records WHERE id = $1)`
		if err := r.db.QueryRowContext(ctx, checkQuery, id).Scan(&exists); err != nil {
			return fmt.Errorf("error checking record %d after mark: %w", id, err)
		}
		if !exists {
			return ErrRecordNotFound
		}
		return ErrAlreadyNotified
	}
	return nil
}
