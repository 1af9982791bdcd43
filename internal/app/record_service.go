// internal/app/record_service.go
package app

import (
	"context"
	"fmt"

	"expiry_reminder_service/internal/domain/record"

	"github.com/sirupsen/logrus"
)

// RecordService handles validated submission of new reminder records.
type RecordService struct {
	validator  *RecordValidator
	recordRepo record.Repository
	logger     *logrus.Logger
}

func NewRecordService(validator *RecordValidator, recordRepo record.Repository, logger *logrus.Logger) *RecordService {
	return &RecordService{
		validator:  validator,
		recordRepo: recordRepo,
		logger:     logger,
	}
}

// Submit validates the candidate, derives its reminder instant and persists
// it. A rejected candidate returns a nil record alongside the result; the
// caller reports the failures to the submitter. The error path is reserved
// for infrastructure failures (lookup unavailable, persistence).
func (s *RecordService) Submit(ctx context.Context, c Candidate) (*record.Record, ValidationResult, error) {
	result, err := s.validator.Validate(ctx, c)
	if err != nil {
		return nil, ValidationResult{}, fmt.Errorf("failed to validate candidate: %w", err)
	}
	if !result.Accepted() {
		s.logger.WithFields(logrus.Fields{
			"category":    c.Category,
			"subcategory": c.Subcategory,
			"failures":    len(result.Failures),
		}).Info("Record submission rejected")
		return nil, result, nil
	}

	expiryAt := c.ExpiryAt.UTC()
	rec := &record.Record{
		Category:    c.Category,
		Subcategory: c.Subcategory,
		ExpiryAt:    expiryAt,
		LeadDays:    c.LeadDays,
		ReminderAt:  record.ComputeReminderAt(expiryAt, c.LeadDays),
		Recipients:  c.Recipients,
	}
	if err := s.recordRepo.Append(ctx, rec); err != nil {
		return nil, ValidationResult{}, fmt.Errorf("failed to persist reminder record: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"record_id":   rec.ID,
		"category":    rec.Category,
		"subcategory": rec.Subcategory,
		"reminder_at": rec.ReminderAt,
	}).Info("Reminder record created")
	return rec, result, nil
}

// ListPending returns all records that have not yet been notified.
func (s *RecordService) ListPending(ctx context.Context) ([]*record.Record, error) {
	records, err := s.recordRepo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending records: %w", err)
	}
	return records, nil
}
