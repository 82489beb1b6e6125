package service

import (
	"context"
	"fmt"
	"time"

	"b2b_marketplace_backend/internal/events"
	"b2b_marketplace_backend/internal/quotes/domain"
	"b2b_marketplace_backend/platform/apperr"

	"github.com/google/uuid"
)

// scheduleReminder enqueues a validity reminder when a quote enters an
// awaiting-decision state or its window moves while awaiting. Failures are
// logged; reminders are advisory.
func (s *Service) scheduleReminder(ctx context.Context, before, after *domain.Quote) {
	if s.reminders == nil || !after.Status.IsAwaitingDecision() {
		return
	}
	if before.Status.IsAwaitingDecision() && domain.DateOf(before.ValidUntil).Equal(domain.DateOf(after.ValidUntil)) {
		return
	}

	now := s.now()
	runAt := ReminderTime(after.ValidUntil, s.settings.ReminderLead)
	if runAt.Before(now) {
		runAt = now
	}

	if err := s.reminders.ScheduleValidityReminder(ctx, after.QuoteNumber, after.ValidUntil, runAt); err != nil {
		s.log.WithContext(ctx).Warn("failed to schedule validity reminder",
			"quoteNumber", after.QuoteNumber, "error", err)
	}
}

// ReminderTime is lead before the end of the validUntil day (UTC).
func ReminderTime(validUntil time.Time, lead time.Duration) time.Time {
	return domain.DateOf(validUntil).AddDate(0, 0, 1).Add(-lead)
}

// SendValidityReminder appends a SYSTEM notice to a quote whose validity
// window ending on validUntil is about to close. Reminders for superseded
// windows, decided quotes and already expired quotes are dropped. A quote
// whose write lock is held returns Conflict so the task is retried.
func (s *Service) SendValidityReminder(ctx context.Context, quoteNumber string, validUntil time.Time) error {
	release, err := s.lockQuote(ctx, quoteNumber, writeLockTTL, msgQuoteBusy)
	if err != nil {
		return err
	}
	defer release()

	q, err := s.repo.GetByNumber(ctx, quoteNumber)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	now := s.now()
	if !q.Status.IsAwaitingDecision() || q.IsExpired(now) {
		return nil
	}
	if !domain.DateOf(q.ValidUntil).Equal(domain.DateOf(validUntil)) {
		return nil
	}

	remaining := q.DaysRemaining(now)
	q.AddSystemMessage(reminderText(q.ValidUntil, remaining), now)
	if err := s.repo.Save(ctx, q); err != nil {
		return err
	}

	s.publish(ctx, events.QuoteValidityExpiring{
		BaseEvent:     events.NewBaseEvent(s.now()),
		QuoteRef:      refOf(q, uuid.Nil),
		ValidUntil:    q.ValidUntil.Format(time.DateOnly),
		DaysRemaining: remaining,
	})
	return nil
}

func reminderText(validUntil time.Time, remaining int) string {
	date := validUntil.Format(time.DateOnly)
	switch remaining {
	case 0:
		return fmt.Sprintf("Quote expires at the end of today (%s)", date)
	case 1:
		return fmt.Sprintf("Quote expires tomorrow (%s)", date)
	default:
		return fmt.Sprintf("Quote expires in %d days (%s)", remaining, date)
	}
}
