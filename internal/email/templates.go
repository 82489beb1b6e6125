package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var quoteUpdateTemplate = template.Must(template.New("base.html").ParseFS(templateFS, "templates/base.html", "templates/quote_update.html"))

type baseEmailData struct {
	Title    string
	Heading  string
	CTALabel string
	CTAURL   string
}

type quoteUpdateEmailData struct {
	baseEmailData
	RecipientName string
	QuoteNumber   string
	Body          string
	Total         string
}

func renderQuoteUpdate(update QuoteUpdate) (string, error) {
	data := quoteUpdateEmailData{
		baseEmailData: baseEmailData{
			Title:    quoteSubject(update),
			Heading:  update.Heading,
			CTALabel: "View quote",
			CTAURL:   update.CTAURL,
		},
		RecipientName: update.RecipientName,
		QuoteNumber:   update.QuoteNumber,
		Body:          update.Body,
		Total:         update.Total,
	}

	var buf bytes.Buffer
	if err := quoteUpdateTemplate.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template quote_update.html: %w", err)
	}
	return buf.String(), nil
}
