// Package email renders and delivers quote notification emails through
// Brevo's HTTP API or a plain SMTP relay.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"b2b_marketplace_backend/platform/config"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// QuoteUpdate is the content of one quote notification.
type QuoteUpdate struct {
	QuoteNumber   string
	RecipientName string
	Heading       string
	Body          string
	Total         string
	CTAURL        string
}

type Sender interface {
	SendQuoteUpdate(ctx context.Context, toEmail string, update QuoteUpdate) error
}

type NoopSender struct{}

func (NoopSender) SendQuoteUpdate(context.Context, string, QuoteUpdate) error { return nil }

type BrevoSender struct {
	apiKey    string
	fromName  string
	fromEmail string
	endpoint  string
	client    *http.Client
}

type brevoEmailRequest struct {
	Sender struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"sender"`
	To []struct {
		Email string `json:"email"`
	} `json:"to"`
	Subject     string `json:"subject"`
	HTMLContent string `json:"htmlContent"`
}

// NewSender picks SMTP when a host is configured, Brevo otherwise, and a
// no-op sender when email is disabled.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	if cfg.GetSMTPHost() != "" {
		return NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(), cfg.GetEmailFromName()), nil
	}

	if cfg.GetBrevoAPIKey() == "" {
		return nil, fmt.Errorf("email enabled without SMTP host or Brevo API key")
	}
	return &BrevoSender{
		apiKey:    cfg.GetBrevoAPIKey(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		endpoint:  brevoEndpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (b *BrevoSender) SendQuoteUpdate(ctx context.Context, toEmail string, update QuoteUpdate) error {
	content, err := renderQuoteUpdate(update)
	if err != nil {
		return err
	}
	return b.send(ctx, toEmail, quoteSubject(update), content)
}

func (b *BrevoSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	payload := brevoEmailRequest{
		Subject:     subject,
		HTMLContent: htmlContent,
	}
	payload.Sender.Name = b.fromName
	payload.Sender.Email = b.fromEmail
	payload.To = []struct {
		Email string `json:"email"`
	}{{Email: toEmail}}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", b.apiKey)
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("brevo send failed: status %d: %s", resp.StatusCode, string(data))
	}

	return nil
}
