package ports

import (
	"context"
	"time"
)

// ValidityReminderScheduler enqueues a reminder that runs at runAt for the
// quote whose validity window ends on validUntil.
type ValidityReminderScheduler interface {
	ScheduleValidityReminder(ctx context.Context, quoteNumber string, validUntil time.Time, runAt time.Time) error
}

// AttachmentUpload is a presigned PUT for a thread attachment.
type AttachmentUpload struct {
	URL       string
	FileKey   string
	ExpiresAt time.Time
}

// AttachmentPresigner issues upload URLs for message attachments under folder.
type AttachmentPresigner interface {
	PresignUpload(ctx context.Context, folder, fileName, contentType string, sizeBytes int64) (AttachmentUpload, error)
}
