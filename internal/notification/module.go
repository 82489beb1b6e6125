// Package notification pushes quote activity to connected buyers and
// suppliers over SSE and email. It subscribes to quote events on the bus so
// the quotes module never needs to know who is listening.
package notification

import (
	"context"
	"fmt"
	"strings"

	"b2b_marketplace_backend/internal/email"
	"b2b_marketplace_backend/internal/events"
	apphttp "b2b_marketplace_backend/internal/http"
	"b2b_marketplace_backend/internal/notification/sse"
	"b2b_marketplace_backend/platform/httpkit"
	"b2b_marketplace_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContactResolver finds where a party's notifications are sent.
type ContactResolver interface {
	Contact(ctx context.Context, partyID uuid.UUID) (name, emailAddress string, err error)
}

// Module delivers quote events as server-sent events and emails.
type Module struct {
	sse      *sse.Service // optional
	sender   email.Sender // optional
	contacts ContactResolver
	baseURL  string
	log      *logger.Logger
}

// New creates the notification module. hub may be nil in processes that
// serve no event streams.
func New(hub *sse.Service, log *logger.Logger) *Module {
	if log == nil {
		log = logger.Nop()
	}
	return &Module{sse: hub, log: log}
}

// SetEmail enables email delivery. appBaseURL prefixes the quote link.
func (m *Module) SetEmail(sender email.Sender, contacts ContactResolver, appBaseURL string) {
	m.sender = sender
	m.contacts = contacts
	m.baseURL = strings.TrimRight(appBaseURL, "/")
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes mounts the event stream under the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if m.sse == nil {
		return
	}
	ctx.Protected.GET("/events", m.sse.Handler(userIDFromContext))
}

func userIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	id := httpkit.GetIdentity(c)
	if !id.IsAuthenticated() {
		return uuid.Nil, false
	}
	return id.UserID(), true
}

// RegisterHandlers subscribes to every quote event.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	for _, name := range events.QuoteEventNames {
		bus.Subscribe(name, m)
	}
	m.log.Info("notification module registered event handlers", "events", len(events.QuoteEventNames))
}

// Handle fans a quote event out to both parties of the quote and emails
// the party that did not act.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	qe, ok := event.(events.QuoteEvent)
	if !ok {
		return nil
	}
	ref := qe.Ref()

	if m.sse != nil {
		payload := sse.Event{
			Type:        event.EventName(),
			QuoteNumber: ref.QuoteNumber,
			Status:      ref.Status,
			Message:     describe(event),
			Data:        event,
		}
		for _, userID := range recipients(ref) {
			m.sse.Publish(userID, payload)
		}
	}

	return m.email(ctx, event, ref)
}

func (m *Module) email(ctx context.Context, event events.Event, ref events.QuoteRef) error {
	if m.sender == nil || m.contacts == nil {
		return nil
	}
	update, ok := emailUpdate(event)
	if !ok {
		return nil
	}
	to := emailRecipient(ref)
	if to == uuid.Nil {
		return nil
	}

	name, address, err := m.contacts.Contact(ctx, to)
	if err != nil {
		m.log.WithContext(ctx).CollaboratorFailure("directory", "contact", err)
		return nil
	}
	if address == "" {
		return nil
	}

	update.QuoteNumber = ref.QuoteNumber
	update.RecipientName = name
	if m.baseURL != "" {
		update.CTAURL = m.baseURL + "/quotes/" + ref.QuoteNumber
	}
	if err := m.sender.SendQuoteUpdate(ctx, address, update); err != nil {
		return fmt.Errorf("send %s email for %s: %w", event.EventName(), ref.QuoteNumber, err)
	}
	return nil
}

// emailRecipient is the counterparty of the actor. System events go to
// the buyer.
func emailRecipient(ref events.QuoteRef) uuid.UUID {
	switch ref.ActorID {
	case ref.BuyerID:
		return ref.SupplierID
	case ref.SupplierID, uuid.Nil:
		return ref.BuyerID
	default:
		return uuid.Nil
	}
}

// emailUpdate returns the email content for events worth an email.
// Thread messages only go out over SSE.
func emailUpdate(event events.Event) (email.QuoteUpdate, bool) {
	switch e := event.(type) {
	case events.QuoteCreated:
		return email.QuoteUpdate{
			Heading: "New quote request",
			Body:    fmt.Sprintf("A buyer requested pricing for %d item(s).", e.ItemCount),
			Total:   e.OriginalTotal,
		}, true
	case events.QuoteResponded:
		return email.QuoteUpdate{
			Heading: "Supplier responded",
			Body:    "The supplier has priced your quote request.",
			Total:   e.FinalTotal,
		}, true
	case events.QuoteCounterOffered:
		return email.QuoteUpdate{
			Heading: "Counter-offer received",
			Body:    "The buyer sent a counter-offer. Open the quote to read the negotiation thread.",
		}, true
	case events.QuoteApproved:
		return email.QuoteUpdate{
			Heading: "Quote approved",
			Body:    "Final pricing is fixed. You can now convert the quote to an order.",
			Total:   e.FinalTotal,
		}, true
	case events.QuoteRejected:
		body := "The supplier rejected the quote."
		if e.Reason != "" {
			body += " Reason: " + e.Reason
		}
		return email.QuoteUpdate{Heading: "Quote rejected", Body: body}, true
	case events.QuoteCancelled:
		return email.QuoteUpdate{Heading: "Quote cancelled", Body: "The buyer withdrew the quote request."}, true
	case events.QuoteValidityExtended:
		return email.QuoteUpdate{
			Heading: "Validity extended",
			Body:    "The quote is now valid until " + e.ValidUntil + ".",
		}, true
	case events.QuoteConverted:
		return email.QuoteUpdate{
			Heading: "Order placed",
			Body:    "The buyer converted the quote into order " + e.OrderNumber + ".",
		}, true
	case events.QuoteValidityExpiring:
		return email.QuoteUpdate{
			Heading: "Quote expiring soon",
			Body:    "The quote expires on " + e.ValidUntil + ". Approve or convert it before then.",
		}, true
	default:
		return email.QuoteUpdate{}, false
	}
}

func recipients(ref events.QuoteRef) []uuid.UUID {
	out := make([]uuid.UUID, 0, 2)
	if ref.BuyerID != uuid.Nil {
		out = append(out, ref.BuyerID)
	}
	if ref.SupplierID != uuid.Nil && ref.SupplierID != ref.BuyerID {
		out = append(out, ref.SupplierID)
	}
	return out
}

func describe(event events.Event) string {
	switch e := event.(type) {
	case events.QuoteCreated:
		return fmt.Sprintf("New quote request %s with %d item(s)", e.QuoteNumber, e.ItemCount)
	case events.QuoteResponded:
		return fmt.Sprintf("Supplier responded to %s, total %s", e.QuoteNumber, e.FinalTotal)
	case events.QuoteCounterOffered:
		return fmt.Sprintf("Buyer sent a counter-offer on %s", e.QuoteNumber)
	case events.QuoteApproved:
		return fmt.Sprintf("Quote %s approved at %s", e.QuoteNumber, e.FinalTotal)
	case events.QuoteRejected:
		return fmt.Sprintf("Quote %s was rejected", e.QuoteNumber)
	case events.QuoteCancelled:
		return fmt.Sprintf("Quote %s was cancelled", e.QuoteNumber)
	case events.QuoteValidityExtended:
		return fmt.Sprintf("Quote %s is now valid until %s", e.QuoteNumber, e.ValidUntil)
	case events.QuoteConverted:
		return fmt.Sprintf("Quote %s converted to order %s", e.QuoteNumber, e.OrderNumber)
	case events.QuoteMessageAdded:
		return e.Preview
	case events.QuoteValidityExpiring:
		return fmt.Sprintf("Quote %s expires on %s", e.QuoteNumber, e.ValidUntil)
	default:
		return ""
	}
}
