// internal/infra/database/postgres_mapping_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"expiry_reminder_service/internal/domain/mapping"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Custom errors
var ErrEntryNotFound = fmt.Errorf("mapping entry not found")
var ErrDuplicateEntry = fmt.Errorf("mapping entry with this category and subcategory already exists")

type PostgresMappingRepository struct {
	db *sql.DB
}

func NewPostgresMappingRepository(db *sql.DB) *PostgresMappingRepository {
	return &PostgresMappingRepository{db: db}
}

func (r *PostgresMappingRepository) Create(ctx context.Context, e *mapping.Entry) error {
	query := `INSERT INTO mapping_entries (category, subcategory, description)
               VALUES ($1, $2, $3)
               RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, e.Category, e.Subcategory, e.Description).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "mapping_entries_pair_key") {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("error creating mapping entry: %w", err)
	}
	return nil
}

func (r *PostgresMappingRepository) Delete(ctx context.Context, category, subcategory string) error {
	query := `DELETE FROM mapping_entries WHERE category = $1 AND subcategory = $2`
	res, err := r.db.ExecContext(ctx, query, category, subcategory)
	if err != nil {
		return fmt.Errorf("error deleting mapping entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading delete result: %w", err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *PostgresMappingRepository) ExistsPair(ctx context.Context, category, subcategory string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM mapping_entries WHERE category = $1 AND subcategory = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, category, subcategory).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking mapping pair existence: %w", err)
	}
	return exists, nil
}

func (r *PostgresMappingRepository) ExistsCategory(ctx context.Context, category string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM mapping_entries WHERE category = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, category).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking mapping category existence: %w", err)
	}
	return exists, nil
}

func (r *PostgresMappingRepository) ListAll(ctx context.Context) ([]*mapping.Entry, error) {
	query := `SELECT id, category, subcategory, description, created_at
               FROM mapping_entries ORDER BY category, subcategory`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying mapping entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*mapping.Entry, 0)
	for rows.Next() {
		e := mapping.Entry{}
		if err := rows.Scan(&e.ID, &e.Category, &e.Subcategory, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning mapping entry row: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mapping entry rows: %w", err)
	}
	return entries, nil
}
