// Package domain provides the core business rules for the quotes bounded
// context: the negotiation state machine, price resolution and validity.
// Nothing in this package performs I/O.
package domain

import (
	"fmt"
	"strings"

	"b2b_marketplace_backend/platform/apperr"
)

// Status is the lifecycle state of a quote.
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusSupplierResponded Status = "SUPPLIER_RESPONDED"
	// StatusBuyerReviewing is kept for compatibility with stored data.
	// No operation transitions into it.
	StatusBuyerReviewing Status = "BUYER_REVIEWING"
	StatusNegotiating    Status = "NEGOTIATING"
	StatusApproved       Status = "APPROVED"
	StatusConverted      Status = "CONVERTED"
	StatusRejected       Status = "REJECTED"
	StatusCancelled      Status = "CANCELLED"
	StatusExpired        Status = "EXPIRED"
)

var allStatuses = []Status{
	StatusPending,
	StatusSupplierResponded,
	StatusBuyerReviewing,
	StatusNegotiating,
	StatusApproved,
	StatusConverted,
	StatusRejected,
	StatusCancelled,
	StatusExpired,
}

// terminalStatuses accept no further state-changing operation.
var terminalStatuses = map[Status]bool{
	StatusConverted: true,
	StatusRejected:  true,
	StatusCancelled: true,
	StatusExpired:   true,
}

// respondableStatuses are the states a supplier may respond from.
var respondableStatuses = map[Status]bool{
	StatusPending:     true,
	StatusNegotiating: true,
}

// ParseStatus converts a wire value into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", apperr.Validation("unknown quote status").WithDetails(map[string]string{"status": raw})
	}
	return s, nil
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the quote lifecycle has ended.
func (s Status) IsTerminal() bool { return terminalStatuses[s] }

// CanRespond reports whether a supplier response is allowed from s.
func (s Status) CanRespond() bool { return respondableStatuses[s] }

// IsAwaitingDecision reports whether a validity reminder is meaningful.
func (s Status) IsAwaitingDecision() bool {
	return s == StatusSupplierResponded || s == StatusNegotiating || s == StatusApproved
}

func (s Status) String() string { return string(s) }

// SenderType identifies who wrote a thread message.
type SenderType string

const (
	SenderBuyer    SenderType = "BUYER"
	SenderSupplier SenderType = "SUPPLIER"
	SenderSystem   SenderType = "SYSTEM"
)

// ParseSenderType converts a wire value into a SenderType.
func ParseSenderType(raw string) (SenderType, error) {
	switch t := SenderType(strings.ToUpper(strings.TrimSpace(raw))); t {
	case SenderBuyer, SenderSupplier, SenderSystem:
		return t, nil
	default:
		return "", apperr.Validation("unknown sender type")
	}
}

// MessageType classifies a thread message.
type MessageType string

const (
	MessageText         MessageType = "TEXT"
	MessagePriceUpdate  MessageType = "PRICE_UPDATE"
	MessageCounterOffer MessageType = "COUNTER_OFFER"
	MessageApproval     MessageType = "APPROVAL"
	MessageRejection    MessageType = "REJECTION"
	MessageExtension    MessageType = "EXTENSION"
	MessageSystem       MessageType = "SYSTEM"
)

// ParseMessageType converts a wire value into a MessageType.
func ParseMessageType(raw string) (MessageType, error) {
	switch t := MessageType(strings.ToUpper(strings.TrimSpace(raw))); t {
	case MessageText, MessagePriceUpdate, MessageCounterOffer, MessageApproval,
		MessageRejection, MessageExtension, MessageSystem:
		return t, nil
	default:
		return "", apperr.Validation("unknown message type")
	}
}

// participantMessageTypes lists what each party may post through the
// thread. SYSTEM is reserved for the platform.
var participantMessageTypes = map[SenderType]map[MessageType]bool{
	SenderBuyer: {
		MessageText:         true,
		MessageCounterOffer: true,
	},
	SenderSupplier: {
		MessageText:        true,
		MessagePriceUpdate: true,
		MessageApproval:    true,
		MessageRejection:   true,
		MessageExtension:   true,
	},
}

func checkParticipantMessageType(sender SenderType, msgType MessageType) error {
	if msgType == MessageSystem {
		return apperr.Validation("system messages are posted by the platform only")
	}
	if !participantMessageTypes[sender][msgType] {
		return apperr.Validation(fmt.Sprintf("%s messages cannot be posted by the %s", msgType, strings.ToLower(string(sender))))
	}
	return nil
}

// PaymentType is forwarded to the order service at conversion.
type PaymentType string

const (
	PaymentBankTransfer   PaymentType = "BANK_TRANSFER"
	PaymentCreditCard     PaymentType = "CREDIT_CARD"
	PaymentNet30          PaymentType = "NET_30"
	PaymentNet60          PaymentType = "NET_60"
	PaymentCashOnDelivery PaymentType = "CASH_ON_DELIVERY"
)

// DefaultPaymentType applies when the buyer does not choose one.
const DefaultPaymentType = PaymentBankTransfer

// ParsePaymentType converts a wire value into a PaymentType. An empty value
// yields DefaultPaymentType.
func ParsePaymentType(raw string) (PaymentType, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	if trimmed == "" {
		return DefaultPaymentType, nil
	}
	switch t := PaymentType(trimmed); t {
	case PaymentBankTransfer, PaymentCreditCard, PaymentNet30, PaymentNet60, PaymentCashOnDelivery:
		return t, nil
	default:
		return "", apperr.Validation("unknown payment type")
	}
}
