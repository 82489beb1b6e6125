package scheduler

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// TaskQuoteValidityReminder fires shortly before a quote's validity window closes.
const TaskQuoteValidityReminder = "quotes.validity_reminder"

// QuoteValidityReminderPayload names the quote and the validUntil day the
// reminder was scheduled for. ValidUntil is an ISO date.
type QuoteValidityReminderPayload struct {
	QuoteNumber string `json:"quoteNumber"`
	ValidUntil  string `json:"validUntil"`
}

func NewQuoteValidityReminderTask(payload QuoteValidityReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuoteValidityReminder, data), nil
}

func ParseQuoteValidityReminderPayload(task *asynq.Task) (QuoteValidityReminderPayload, time.Time, error) {
	var payload QuoteValidityReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return QuoteValidityReminderPayload{}, time.Time{}, err
	}
	if strings.TrimSpace(payload.QuoteNumber) == "" {
		return QuoteValidityReminderPayload{}, time.Time{}, fmt.Errorf("missing quote number")
	}
	validUntil, err := time.Parse(time.DateOnly, payload.ValidUntil)
	if err != nil {
		return QuoteValidityReminderPayload{}, time.Time{}, fmt.Errorf("invalid validUntil %q: %w", payload.ValidUntil, err)
	}
	return payload, validUntil, nil
}

// reminderTaskID deduplicates reminders per quote and validity day, so
// rescheduling the same window is a no-op and a new window gets its own task.
func reminderTaskID(quoteNumber string, validUntil time.Time) string {
	return "quote-reminder:" + quoteNumber + ":" + validUntil.UTC().Format(time.DateOnly)
}
