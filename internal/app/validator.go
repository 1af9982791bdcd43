// internal/app/validator.go
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"expiry_reminder_service/internal/domain/record"
)

// FailureCode identifies a single validation rule violation.
type FailureCode string

const (
	FailureCategoryBlank         FailureCode = "CATEGORY_BLANK"
	FailureSubcategoryBlank      FailureCode = "SUBCATEGORY_BLANK"
	FailureUnknownMapping        FailureCode = "UNKNOWN_MAPPING"
	FailureExpiryNotFuture       FailureCode = "EXPIRY_NOT_FUTURE"
	FailureLeadTimeExceedsWindow FailureCode = "LEAD_TIME_EXCEEDS_WINDOW"
	FailureEmptyRecipients       FailureCode = "EMPTY_RECIPIENTS"
)

// ValidationFailure is one reportable rule violation.
type ValidationFailure struct {
	Code    FailureCode
	Message string
}

// ValidationResult is the outcome of validating a candidate record. An
// empty failure list means the candidate was accepted. A rejection is a
// normal, reportable outcome, never an error.
type ValidationResult struct {
	Failures []ValidationFailure
}

func (r ValidationResult) Accepted() bool { return len(r.Failures) == 0 }

// Candidate is a record submission before acceptance: everything a
// ReminderRecord carries except the derived and assigned fields.
type Candidate struct {
	Category    string
	Subcategory string
	ExpiryAt    time.Time
	LeadDays    int
	Recipients  []string
}

// MappingChecker is the existence check the validator consults; satisfied
// by the mapping cache.
type MappingChecker interface {
	ExistsPair(ctx context.Context, category, subcategory string) (bool, error)
}

// RecordValidator validates a candidate record's cross-field constraints.
// All rules are evaluated in one pass so every violation is reported
// together; nothing short-circuits.
type RecordValidator struct {
	mappings MappingChecker
	clock    Clock
}

func NewRecordValidator(mappings MappingChecker, clock Clock) *RecordValidator {
	return &RecordValidator{mappings: mappings, clock: clock}
}

// Validate checks the candidate against all rules as of the current clock
// instant. The returned error is non-nil only when the mapping existence
// check could not be performed at all (lookup unavailable) — that is an
// infrastructure failure, distinct from a rejection.
func (v *RecordValidator) Validate(ctx context.Context, c Candidate) (ValidationResult, error) {
	var result ValidationResult
	now := v.clock.Now().UTC()

	categoryBlank := strings.TrimSpace(c.Category) == ""
	subcategoryBlank := strings.TrimSpace(c.Subcategory) == ""
	if categoryBlank {
		result.Failures = append(result.Failures, ValidationFailure{
			Code:    FailureCategoryBlank,
			Message: "category must not be blank",
		})
	}
	if subcategoryBlank {
		result.Failures = append(result.Failures, ValidationFailure{
			Code:    FailureSubcategoryBlank,
			Message: "subcategory must not be blank",
		})
	}

	// Mapping existence only applies when both halves of the pair are present.
	if !categoryBlank && !subcategoryBlank {
		exists, err := v.mappings.ExistsPair(ctx, c.Category, c.Subcategory)
		if err != nil {
			// "Could not check" must never become "not found".
			return ValidationResult{}, fmt.Errorf("mapping existence check failed: %w", err)
		}
		if !exists {
			result.Failures = append(result.Failures, ValidationFailure{
				Code:    FailureUnknownMapping,
				Message: fmt.Sprintf("unknown mapping pair (%s, %s)", c.Category, c.Subcategory),
			})
		}
	}

	expiryFuture := c.ExpiryAt.After(now)
	if !expiryFuture {
		result.Failures = append(result.Failures, ValidationFailure{
			Code:    FailureExpiryNotFuture,
			Message: "expiry must be strictly in the future",
		})
	}

	// Lead time must be at least one day and, for a future expiry, no
	// longer than the whole days remaining — otherwise the computed
	// reminder instant would already be in the past.
	if c.LeadDays < 1 {
		result.Failures = append(result.Failures, ValidationFailure{
			Code:    FailureLeadTimeExceedsWindow,
			Message: "lead time must be at least 1 day",
		})
	} else if expiryFuture {
		window := record.WholeDaysUntil(now, c.ExpiryAt)
		if c.LeadDays > window {
			result.Failures = append(result.Failures, ValidationFailure{
				Code:    FailureLeadTimeExceedsWindow,
				Message: fmt.Sprintf("lead time of %d days exceeds the %d whole days until expiry", c.LeadDays, window),
			})
		}
	}

	if len(c.Recipients) == 0 {
		result.Failures = append(result.Failures, ValidationFailure{
			Code:    FailureEmptyRecipients,
			Message: "at least one recipient is required",
		})
	}

	return result, nil
}
