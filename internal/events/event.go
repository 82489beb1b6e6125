// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"b2b_marketplace_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Quote Domain Events
// =============================================================================

// QuoteRef identifies the quote and both parties of a quote event.
type QuoteRef struct {
	QuoteNumber string    `json:"quoteNumber"`
	BuyerID     uuid.UUID `json:"buyerId"`
	SupplierID  uuid.UUID `json:"supplierId"`
	Status      string    `json:"status"`
	ActorID     uuid.UUID `json:"actorId"`
}

// Ref returns the quote reference. Promoted into every quote event.
func (r QuoteRef) Ref() QuoteRef { return r }

// QuoteEvent is implemented by every event below.
type QuoteEvent interface {
	Event
	Ref() QuoteRef
}

// QuoteCreated is published when a buyer opens a quote request.
type QuoteCreated struct {
	BaseEvent
	QuoteRef
	ItemCount     int    `json:"itemCount"`
	OriginalTotal string `json:"originalTotal"`
}

func (e QuoteCreated) EventName() string { return "quotes.created" }

// QuoteResponded is published when the supplier prices a quote.
type QuoteResponded struct {
	BaseEvent
	QuoteRef
	QuotedTotal      string `json:"quotedTotal"`
	FinalTotal       string `json:"finalTotal"`
	NegotiationCount int    `json:"negotiationCount"`
}

func (e QuoteResponded) EventName() string { return "quotes.responded" }

// QuoteCounterOffered is published when the buyer counter-offers.
type QuoteCounterOffered struct {
	BaseEvent
	QuoteRef
	NegotiationCount int `json:"negotiationCount"`
}

func (e QuoteCounterOffered) EventName() string { return "quotes.counter_offered" }

// QuoteApproved is published when the supplier approves final pricing.
type QuoteApproved struct {
	BaseEvent
	QuoteRef
	FinalTotal string `json:"finalTotal"`
}

func (e QuoteApproved) EventName() string { return "quotes.approved" }

// QuoteRejected is published when the supplier rejects a quote.
type QuoteRejected struct {
	BaseEvent
	QuoteRef
	Reason string `json:"reason"`
}

func (e QuoteRejected) EventName() string { return "quotes.rejected" }

// QuoteCancelled is published when the buyer withdraws a quote.
type QuoteCancelled struct {
	BaseEvent
	QuoteRef
}

func (e QuoteCancelled) EventName() string { return "quotes.cancelled" }

// QuoteValidityExtended is published when validUntil moves out.
type QuoteValidityExtended struct {
	BaseEvent
	QuoteRef
	ValidUntil   string `json:"validUntil"`
	ValidityDays int    `json:"validityDays"`
}

func (e QuoteValidityExtended) EventName() string { return "quotes.validity_extended" }

// QuoteConverted is published once an order has been created from a quote.
type QuoteConverted struct {
	BaseEvent
	QuoteRef
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

func (e QuoteConverted) EventName() string { return "quotes.converted" }

// QuoteMessageAdded is published for free-form thread messages.
type QuoteMessageAdded struct {
	BaseEvent
	QuoteRef
	SenderType string `json:"senderType"`
	Preview    string `json:"preview"`
}

func (e QuoteMessageAdded) EventName() string { return "quotes.message_added" }

// QuoteValidityExpiring is published by the scheduler shortly before
// validUntil passes on a quote still awaiting a decision.
type QuoteValidityExpiring struct {
	BaseEvent
	QuoteRef
	ValidUntil    string `json:"validUntil"`
	DaysRemaining int    `json:"daysRemaining"`
}

func (e QuoteValidityExpiring) EventName() string { return "quotes.validity_expiring" }
