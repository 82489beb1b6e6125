package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"b2b_marketplace_backend/internal/events"
	"b2b_marketplace_backend/internal/quotes/domain"
	"b2b_marketplace_backend/internal/quotes/transport"
	"b2b_marketplace_backend/platform/apperr"
	"b2b_marketplace_backend/platform/sanitize"
)

const messagePreviewLength = 140

// AddMessage appends a free-form message from the buyer or supplier.
func (s *Service) AddMessage(ctx context.Context, actor Actor, quoteNumber string, req transport.AddMessageRequest) (*transport.QuoteMessageResponse, error) {
	var msgType domain.MessageType
	if strings.TrimSpace(req.MessageType) != "" {
		parsed, err := domain.ParseMessageType(req.MessageType)
		if err != nil {
			return nil, err
		}
		msgType = parsed
	}

	var pending []domain.QuoteMessage
	var senderType domain.SenderType

	q, err := s.mutate(ctx, quoteNumber, 0, func(q *domain.Quote, now time.Time) error {
		st, err := q.AddMessage(actor.ID, actor.Name, msgType, sanitize.Text(req.Message), req.AttachmentURL, now)
		if err != nil {
			return err
		}
		senderType = st
		// the repository writes ids into this shared slice on save
		pending = q.PendingMessages()
		return nil
	})
	if err != nil {
		return nil, err
	}

	msg := pending[len(pending)-1]
	s.publish(ctx, events.QuoteMessageAdded{
		BaseEvent:  events.NewBaseEvent(s.now()),
		QuoteRef:   refOf(q, actor.ID),
		SenderType: string(senderType),
		Preview:    preview(msg.Message),
	})

	resp := buildMessage(msg)
	return &resp, nil
}

// ListMessages returns the thread newest first.
func (s *Service) ListMessages(ctx context.Context, actor Actor, quoteNumber string) ([]transport.QuoteMessageResponse, error) {
	q, _, err := s.loadForParticipant(ctx, actor, quoteNumber)
	if err != nil {
		return nil, err
	}

	msgs, err := s.repo.ListMessages(ctx, q.ID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.QuoteMessageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = buildMessage(m)
	}
	return out, nil
}

// PresignAttachment issues an upload URL under the quote's attachment folder.
func (s *Service) PresignAttachment(ctx context.Context, actor Actor, quoteNumber string, req transport.PresignAttachmentUploadRequest) (*transport.PresignedUploadResponse, error) {
	if s.storage == nil {
		return nil, apperr.Internal("attachment storage is not configured")
	}

	q, _, err := s.loadForParticipant(ctx, actor, quoteNumber)
	if err != nil {
		return nil, err
	}
	if q.Status == domain.StatusConverted {
		return nil, apperr.InvalidState("converted quotes no longer accept messages")
	}

	upload, err := s.storage.PresignUpload(ctx, attachmentFolder(q.QuoteNumber), req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		return nil, err
	}

	return &transport.PresignedUploadResponse{
		UploadURL: upload.URL,
		FileKey:   upload.FileKey,
		ExpiresAt: upload.ExpiresAt.Unix(),
	}, nil
}

func attachmentFolder(quoteNumber string) string {
	return fmt.Sprintf("quotes/%s", quoteNumber)
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= messagePreviewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:messagePreviewLength]) + "…"
}
