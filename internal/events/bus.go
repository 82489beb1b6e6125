package events

import (
	platformevents "b2b_marketplace_backend/platform/events"
	"b2b_marketplace_backend/platform/logger"
)

// InMemoryBus is a type alias to the platform InMemoryBus
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// QuoteEventNames lists every quote event for subscribers that want all of them.
var QuoteEventNames = []string{
	QuoteCreated{}.EventName(),
	QuoteResponded{}.EventName(),
	QuoteCounterOffered{}.EventName(),
	QuoteApproved{}.EventName(),
	QuoteRejected{}.EventName(),
	QuoteCancelled{}.EventName(),
	QuoteValidityExtended{}.EventName(),
	QuoteConverted{}.EventName(),
	QuoteMessageAdded{}.EventName(),
	QuoteValidityExpiring{}.EventName(),
}
