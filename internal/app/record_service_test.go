package app

import (
	"context"
	"errors"
	"testing"

	"expiry_reminder_service/internal/domain/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSubmit_AcceptedCandidateGetsDerivedReminderAndIsPersisted(t *testing.T) {
	now := mustParse(t, "2025-01-01T00:00:00Z")
	checker := new(mockMappingChecker)
	checker.On("ExistsPair", mock.Anything, "RETAIL", "APP-42").Return(true, nil)
	repo := new(mockRecordRepo)
	repo.On("Append", mock.Anything, mock.MatchedBy(func(r *record.Record) bool {
		return r.ReminderAt.Equal(mustParse(t, "2025-03-03T00:00:00Z")) && !r.Notified()
	})).Return(nil).Once()

	svc := NewRecordService(NewRecordValidator(checker, fixedClock{now}), repo, quietLogger())
	rec, result, err := svc.Submit(context.Background(), validCandidate(t))

	require.NoError(t, err)
	assert.True(t, result.Accepted())
	require.NotNil(t, rec)
	assert.Equal(t, mustParse(t, "2025-03-03T00:00:00Z"), rec.ReminderAt)
	repo.AssertExpectations(t)
}

func TestSubmit_RejectedCandidateIsNotPersisted(t *testing.T) {
	now := mustParse(t, "2025-01-01T00:00:00Z")
	checker := new(mockMappingChecker)
	checker.On("ExistsPair", mock.Anything, "RETAIL", "APP-42").Return(false, nil)
	repo := new(mockRecordRepo)

	svc := NewRecordService(NewRecordValidator(checker, fixedClock{now}), repo, quietLogger())
	rec, result, err := svc.Submit(context.Background(), validCandidate(t))

	require.NoError(t, err)
	assert.False(t, result.Accepted())
	assert.Nil(t, rec)
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestSubmit_LookupUnavailableSurfacesAsError(t *testing.T) {
	now := mustParse(t, "2025-01-01T00:00:00Z")
	checker := new(mockMappingChecker)
	checker.On("ExistsPair", mock.Anything, "RETAIL", "APP-42").Return(false, errors.New("connection refused"))
	repo := new(mockRecordRepo)

	svc := NewRecordService(NewRecordValidator(checker, fixedClock{now}), repo, quietLogger())
	_, _, err := svc.Submit(context.Background(), validCandidate(t))

	require.Error(t, err)
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}
