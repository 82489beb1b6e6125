package domain

import (
	"time"

	"github.com/google/uuid"
)

// QuoteMessage is an append-only negotiation thread entry. SenderID is nil
// for SYSTEM messages.
type QuoteMessage struct {
	ID            int64
	QuoteID       int64
	SenderID      *uuid.UUID
	SenderName    string
	SenderType    SenderType
	MessageType   MessageType
	Message       string
	AttachmentURL string
	CreatedAt     time.Time
}
