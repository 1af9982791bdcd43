package app

import (
	"context"
	"database/sql"
	"fmt"

	"expiry_reminder_service/internal/domain/mapping"
	idb "expiry_reminder_service/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for admin service
var ErrEntryAlreadyExists = fmt.Errorf("mapping entry with this category and subcategory already exists")
var ErrEntryDoesNotExist = fmt.Errorf("mapping entry does not exist")

// CacheInvalidator drops cached existence results for a mapping pair after
// an administrative write; satisfied by the mapping cache.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, category, subcategory string) error
}

// AdminService manages the reference mapping table. Every write goes
// through cache invalidation so validation never sees a stale entry.
type AdminService struct {
	mappingRepo mapping.Repository
	cache       CacheInvalidator
	logger      *logrus.Logger
}

func NewAdminService(mappingRepo mapping.Repository, cache CacheInvalidator, logger *logrus.Logger) *AdminService {
	return &AdminService{
		mappingRepo: mappingRepo,
		cache:       cache,
		logger:      logger,
	}
}

// AddEntry registers a new (category, subcategory) pair.
func (s *AdminService) AddEntry(ctx context.Context, category, subcategory, description string) (*mapping.Entry, error) {
	var desc sql.NullString
	if description != "" {
		desc.String = description
		desc.Valid = true
	}

	entry := &mapping.Entry{
		Category:    category,
		Subcategory: subcategory,
		Description: desc,
	}
	if err := s.mappingRepo.Create(ctx, entry); err != nil {
		if err == idb.ErrDuplicateEntry {
			return nil, ErrEntryAlreadyExists
		}
		return nil, fmt.Errorf("failed to create mapping entry: %w", err)
	}

	if err := s.cache.Invalidate(ctx, category, subcategory); err != nil {
		// The entry exists; a failed invalidation only delays visibility of
		// the new pair until the next cache miss is repopulated.
		s.logger.WithError(err).WithFields(logrus.Fields{
			"category":    category,
			"subcategory": subcategory,
		}).Warn("Cache invalidation after mapping add failed")
	}

	s.logger.WithFields(logrus.Fields{
		"entry_id":    entry.ID,
		"category":    category,
		"subcategory": subcategory,
	}).Info("Mapping entry added")
	return entry, nil
}

// RemoveEntry deletes a pair and invalidates its cached existence results.
func (s *AdminService) RemoveEntry(ctx context.Context, category, subcategory string) error {
	if err := s.mappingRepo.Delete(ctx, category, subcategory); err != nil {
		if err == idb.ErrEntryNotFound {
			return ErrEntryDoesNotExist
		}
		return fmt.Errorf("failed to delete mapping entry: %w", err)
	}

	if err := s.cache.Invalidate(ctx, category, subcategory); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"category":    category,
			"subcategory": subcategory,
		}).Warn("Cache invalidation after mapping removal failed")
	}

	s.logger.WithFields(logrus.Fields{
		"category":    category,
		"subcategory": subcategory,
	}).Info("Mapping entry removed")
	return nil
}

// ListEntries returns all mapping entries for administrative overviews.
func (s *AdminService) ListEntries(ctx context.Context) ([]*mapping.Entry, error) {
	entries, err := s.mappingRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mapping entries: %w", err)
	}
	return entries, nil
}
