package app

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"expiry_reminder_service/internal/domain/record"
	idb "expiry_reminder_service/internal/infra/database"
	"expiry_reminder_service/internal/infra/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockRecordRepo struct{ mock.Mock }

func (m *mockRecordRepo) Append(ctx context.Context, r *record.Record) error {
	return m.Called(ctx, r).Error(0)
}
func (m *mockRecordRepo) GetByID(ctx context.Context, id int64) (*record.Record, error) {
	args := m.Called(ctx, id)
	if r, _ := args.Get(0).(*record.Record); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRecordRepo) ListDueCandidates(ctx context.Context, asOf time.Time) ([]*record.Record, error) {
	args := m.Called(ctx, asOf)
	if recs, _ := args.Get(0).([]*record.Record); recs != nil {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRecordRepo) ListPending(ctx context.Context) ([]*record.Record, error) {
	args := m.Called(ctx)
	if recs, _ := args.Get(0).([]*record.Record); recs != nil {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRecordRepo) MarkNotified(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, recipients []string, subject, body string) error {
	return m.Called(ctx, recipients, subject, body).Error(0)
}

// --- helpers ---

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestService(repo *mockRecordRepo, sender *mockSender, now time.Time) *NotificationService {
	return NewNotificationService(
		repo, sender, fixedClock{now}, quietLogger(),
		metrics.New(prometheus.NewRegistry()),
		1, // serial dispatch keeps mock expectations deterministic
		time.Second,
	)
}

func dueRecord(id int64, reminderAt time.Time) *record.Record {
	return &record.Record{
		ID:          id,
		Category:    "RETAIL",
		Subcategory: "APP-42",
		ExpiryAt:    reminderAt.AddDate(0, 0, 30),
		LeadDays:    30,
		ReminderAt:  reminderAt,
		Recipients:  []string{"ops@example.com"},
	}
}

func TestRunPass_DeliversAndMarksEachDueRecord(t *testing.T) {
	now := mustParse(t, "2025-03-03T12:00:00Z")
	first := dueRecord(1, now.Add(-2*time.Hour))
	second := dueRecord(2, now.Add(-time.Hour))

	repo := new(mockRecordRepo)
	sender := new(mockSender)
	repo.On("ListDueCandidates", mock.Anything, now).Return([]*record.Record{second, first}, nil)
	sender.On("Send", mock.Anything, first.Recipients, mock.Anything, mock.Anything).Return(nil).Twice()
	repo.On("MarkNotified", mock.Anything, int64(1), now).Return(nil).Once()
	repo.On("MarkNotified", mock.Anything, int64(2), now).Return(nil).Once()

	svc := newTestService(repo, sender, now)
	require.NoError(t, svc.RunPass(context.Background()))

	repo.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestRunPass_OneFailureDoesNotAbortTheBatch(t *testing.T) {
	now := mustParse(t, "2025-03-03T12:00:00Z")
	failing := dueRecord(1, now.Add(-2*time.Hour))
	healthy := dueRecord(2, now.Add(-time.Hour))
	healthy.Recipients = []string{"other@example.com"}

	repo := new(mockRecordRepo)
	sender := new(mockSender)
	repo.On("ListDueCandidates", mock.Anything, now).Return([]*record.Record{failing, healthy}, nil)
	sender.On("Send", mock.Anything, failing.Recipients, mock.Anything, mock.Anything).Return(errors.New("smtp: connection reset")).Once()
	sender.On("Send", mock.Anything, healthy.Recipients, mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("MarkNotified", mock.Anything, int64(2), now).Return(nil).Once()

	svc := newTestService(repo, sender, now)
	require.NoError(t, svc.RunPass(context.Background()))

	// The failed record is never marked, so the next pass re-offers it.
	repo.AssertNotCalled(t, "MarkNotified", mock.Anything, int64(1), mock.Anything)
	repo.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestRunPass_ListFailurePropagates(t *testing.T) {
	now := mustParse(t, "2025-03-03T12:00:00Z")
	repo := new(mockRecordRepo)
	sender := new(mockSender)
	repo.On("ListDueCandidates", mock.Anything, now).Return(nil, errors.New("db down"))

	svc := newTestService(repo, sender, now)
	require.Error(t, svc.RunPass(context.Background()))
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_MarksOnlyAfterSuccessfulDelivery(t *testing.T) {
	now := mustParse(t, "2025-03-03T12:00:00Z")
	rec := dueRecord(1, now.Add(-time.Hour))

	repo := new(mockRecordRepo)
	sender := new(mockSender)
	sender.On("Send", mock.Anything, rec.Recipients, mock.Anything, mock.Anything).Return(errors.New("timeout")).Once()

	svc := newTestService(repo, sender, now)
	status, err := svc.Dispatch(context.Background(), record.DueEvent{Record: rec, AsOf: now})

	assert.Equal(t, DispatchFailed, status)
	require.Error(t, err)
	repo.AssertNotCalled(t, "MarkNotified", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_AlreadyNotifiedRecordIsNotResent(t *testing.T) {
	now := mustParse(t, "2025-03-03T12:00:00Z")
	rec := dueRecord(1, now.Add(-time.Hour))
	rec.NotifiedAt = sql.NullTime{Time: now.Add(-time.Minute), Valid: true}

	repo := new(mockRecordRepo)
	sender := new(mockSender)

	svc := newTestService(repo, sender, now)
	status, err := svc.Dispatch(context.Background(), record.DueEvent{Record: rec, AsOf: now})

	assert.Equal(t, DispatchSkipped, status)
	require.NoError(t, err)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_MarkConflictIsSuccessNoOp(t *testing.T) {
	now := mustParse(t, "2025-03-03T12:00:00Z")
	rec := dueRecord(1, now.Add(-time.Hour))

	repo := new(mockRecordRepo)
	sender := new(mockSender)
	sender.On("Send", mock.Anything, rec.Recipients, mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("MarkNotified", mock.Anything, int64(1), now).Return(idb.ErrAlreadyNotified).Once()

	svc := newTestService(repo, sender, now)
	status, err := svc.Dispatch(context.Background(), record.DueEvent{Record: rec, AsOf: now})

	assert.Equal(t, DispatchDelivered, status)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDispatch_EmptyRecipientsSkippedWithoutSending(t *testing.T) {
	now := mustParse(t, "2025-03-03T12:00:00Z")
	rec := dueRecord(1, now.Add(-time.Hour))
	rec.Recipients = nil

	repo := new(mockRecordRepo)
	sender := new(mockSender)

	svc := newTestService(repo, sender, now)
	status, err := svc.Dispatch(context.Background(), record.DueEvent{Record: rec, AsOf: now})

	assert.Equal(t, DispatchSkipped, status)
	require.NoError(t, err)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkNotified", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunPass_CancelledContextDefersRemainingRecords(t *testing.T) {
	now := mustParse(t, "2025-03-03T12:00:00Z")
	rec := dueRecord(1, now.Add(-time.Hour))

	repo := new(mockRecordRepo)
	sender := new(mockSender)
	repo.On("ListDueCandidates", mock.Anything, now).Return([]*record.Record{rec}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newTestService(repo, sender, now)
	require.NoError(t, svc.RunPass(ctx))
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
