// internal/app/notification_service.go
package app

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"expiry_reminder_service/internal/domain/notify"
	"expiry_reminder_service/internal/domain/record"
	idb "expiry_reminder_service/internal/infra/database"
	"expiry_reminder_service/internal/infra/metrics"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DispatchStatus is the outcome of dispatching one due record.
type DispatchStatus string

const (
	DispatchDelivered DispatchStatus = "DELIVERED"
	DispatchSkipped   DispatchStatus = "SKIPPED"
	DispatchFailed    DispatchStatus = "FAILED"
)

// NotificationService runs one scheduling pass: it resolves the due set as
// of a single captured instant and dispatches each due record exactly once
// per due event. Delivery is at-least-once: a record is marked notified
// only after the transport reports success, so a failed send leaves it
// eligible for the next pass.
type NotificationService struct {
	recordRepo  record.Repository
	sender      notify.Sender
	clock       Clock
	logger      *logrus.Logger
	metrics     *metrics.Metrics
	concurrency int
	sendTimeout time.Duration
}

func NewNotificationService(
	recordRepo record.Repository,
	sender notify.Sender,
	clock Clock,
	logger *logrus.Logger,
	m *metrics.Metrics,
	concurrency int,
	sendTimeout time.Duration,
) *NotificationService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &NotificationService{
		recordRepo:  recordRepo,
		sender:      sender,
		clock:       clock,
		logger:      logger,
		metrics:     m,
		concurrency: concurrency,
		sendTimeout: sendTimeout,
	}
}

// RunPass executes one full pass. The evaluation instant is captured once
// at the start; records becoming due mid-pass wait for the next tick.
// Individual record failures are logged and counted, never aborting the
// rest of the batch.
func (s *NotificationService) RunPass(ctx context.Context) error {
	now := s.clock.Now().UTC()

	candidates, err := s.recordRepo.ListDueCandidates(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to load due candidate records: %w", err)
	}

	due := record.ResolveDue(candidates, now)
	if len(due) == 0 {
		s.logger.Debug("No records due for notification")
		return nil
	}
	s.logger.WithFields(logrus.Fields{
		"due_count": len(due),
		"as_of":     now,
	}).Info("Dispatching due records")

	var delivered, skipped, failed atomic.Int64

	group := new(errgroup.Group)
	group.SetLimit(s.concurrency)
	for _, rec := range due {
		// Cooperative cancellation checkpoint between records: a pass may
		// stop here, but never mid-dispatch of a single record.
		if ctx.Err() != nil {
			s.logger.WithError(ctx.Err()).Warn("Pass cancelled; remaining due records deferred to next tick")
			break
		}
		event := record.DueEvent{Record: rec, AsOf: now}
		group.Go(func() error {
			switch status, err := s.Dispatch(ctx, event); status {
			case DispatchDelivered:
				delivered.Add(1)
			case DispatchSkipped:
				skipped.Add(1)
			case DispatchFailed:
				failed.Add(1)
				s.logger.WithError(err).WithField("record_id", event.Record.ID).Error("Dispatch failed; record stays eligible for the next pass")
			}
			return nil
		})
	}
	group.Wait()

	s.logger.WithFields(logrus.Fields{
		"delivered": delivered.Load(),
		"skipped":   skipped.Load(),
		"failed":    failed.Load(),
	}).Info("Scheduling pass complete")
	return nil
}

// Dispatch delivers the notification for one due event and marks the
// record notified. The error return carries the cause when the status is
// DispatchFailed.
func (s *NotificationService) Dispatch(ctx context.Context, event record.DueEvent) (DispatchStatus, error) {
	rec := event.Record

	if rec.Notified() {
		// Already handled, e.g. by an earlier pass racing with a stale
		// candidate list. Nothing to send.
		return DispatchSkipped, nil
	}

	if len(rec.Recipients) == 0 {
		// Configuration error: reported, not retried as a delivery failure.
		s.logger.WithField("record_id", rec.ID).Error("Record has no recipients; skipping dispatch")
		s.metrics.NotificationsSkipped.Inc()
		return DispatchSkipped, nil
	}

	subject, body := composeNotification(rec)

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	if err := s.sender.Send(sendCtx, rec.Recipients, subject, body); err != nil {
		s.metrics.NotificationsFailed.Inc()
		return DispatchFailed, fmt.Errorf("delivery failed for record %d: %w", rec.ID, err)
	}

	// Mark only after the transport reported success. If marking fails the
	// record will be re-offered and possibly notified again; at-least-once
	// is the accepted trade-off.
	if err := s.recordRepo.MarkNotified(ctx, rec.ID, event.AsOf); err != nil {
		if err == idb.ErrAlreadyNotified {
			s.logger.WithField("record_id", rec.ID).Info("Record was already marked notified; treating as no-op")
			s.metrics.NotificationsDelivered.Inc()
			return DispatchDelivered, nil
		}
		s.logger.WithError(err).WithField("record_id", rec.ID).Error("Delivered but failed to mark notified; record may be re-notified next pass")
		s.metrics.NotificationsFailed.Inc()
		return DispatchFailed, fmt.Errorf("failed to mark record %d notified: %w", rec.ID, err)
	}
	rec.NotifiedAt.Time = event.AsOf
	rec.NotifiedAt.Valid = true

	s.metrics.NotificationsDelivered.Inc()
	s.logger.WithFields(logrus.Fields{
		"record_id":  rec.ID,
		"recipients": len(rec.Recipients),
	}).Info("Notification delivered")
	return DispatchDelivered, nil
}

func composeNotification(rec *record.Record) (subject, body string) {
	subject = fmt.Sprintf("Expiry reminder: %s / %s expires on %s",
		rec.Category, rec.Subcategory, rec.ExpiryAt.Format("2006-01-02"))
	var b strings.Builder
	fmt.Fprintf(&b, "The tracked artifact %s / %s expires on %s.\n",
		rec.Category, rec.Subcategory, rec.ExpiryAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "This reminder was scheduled %d day(s) ahead of expiry.\n", rec.LeadDays)
	body = b.String()
	return subject, body
}
