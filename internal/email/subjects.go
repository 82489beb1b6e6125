package email

import "fmt"

const subjectQuoteUpdateFmt = "Quote %s: %s"

func quoteSubject(update QuoteUpdate) string {
	return fmt.Sprintf(subjectQuoteUpdateFmt, update.QuoteNumber, update.Heading)
}
