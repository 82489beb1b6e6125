package domain

import (
	"fmt"
	"strings"
	"time"

	"b2b_marketplace_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultValidityDays applies when a quote is created without a validity window.
const DefaultValidityDays = 15

// DefaultExtensionDays applies when an extension asks for zero or fewer days.
const DefaultExtensionDays = 7

// BuyerSnapshot is the buyer display data captured at creation.
type BuyerSnapshot struct {
	Name    string
	Company string
	Email   string
	Phone   string
	Address string
}

// Quote is the negotiation aggregate. All mutations go through its methods,
// which enforce authorization, lifecycle guards and totals consistency, and
// queue thread messages for the repository to persist atomically.
type Quote struct {
	ID          int64
	QuoteNumber string

	BuyerID      uuid.UUID
	Buyer        BuyerSnapshot
	SupplierID   uuid.UUID
	SupplierName string

	Status Status

	OriginalTotal      decimal.Decimal
	QuotedTotal        decimal.Decimal
	FinalTotal         decimal.Decimal
	DiscountPercentage *decimal.Decimal
	DiscountAmount     decimal.Decimal

	ValidityDays     int
	ValidUntil       time.Time
	NegotiationCount int

	BuyerRequirements string
	SupplierNotes     string
	RejectionReason   string
	ShippingAddress   string

	OrderID            *string
	OrderNumber        *string
	ConvertedToOrderAt *time.Time

	CreatedAt   time.Time
	UpdatedAt   time.Time
	RespondedAt *time.Time
	ApprovedAt  *time.Time

	// Version is the optimistic concurrency token. Repositories increment
	// it on every successful save.
	Version int64

	Items []QuoteItem

	pending []QuoteMessage
}

// NewItem describes a requested product line.
type NewItem struct {
	ProductID      string
	ProductName    string
	ProductImage   string
	Quantity       int
	OriginalPrice  decimal.Decimal
	Specifications string
	Unit           string
}

// NewQuoteParams carries everything needed to open a quote.
type NewQuoteParams struct {
	BuyerID           uuid.UUID
	Buyer             BuyerSnapshot
	SupplierID        uuid.UUID
	SupplierName      string
	Items             []NewItem
	BuyerRequirements string
	ShippingAddress   string
	ValidityDays      int
}

// NewQuote opens a PENDING quote with totals computed from original prices.
func NewQuote(p NewQuoteParams, now time.Time) (*Quote, error) {
	if p.BuyerID == uuid.Nil || p.SupplierID == uuid.Nil {
		return nil, apperr.Validation("buyer and supplier are required")
	}
	if p.BuyerID == p.SupplierID {
		return nil, apperr.Validation("buyer and supplier must be different parties")
	}
	if len(p.Items) == 0 {
		return nil, apperr.Validation("a quote needs at least one item")
	}
	if p.ValidityDays < 0 {
		return nil, apperr.Validation("validity days cannot be negative")
	}

	items := make([]QuoteItem, 0, len(p.Items))
	for idx, in := range p.Items {
		if strings.TrimSpace(in.ProductID) == "" {
			return nil, apperr.Validation(fmt.Sprintf("item %d: product id is required", idx))
		}
		if in.Quantity <= 0 {
			return nil, apperr.Validation(fmt.Sprintf("item %d: quantity must be positive", idx))
		}
		if in.OriginalPrice.IsNegative() {
			return nil, apperr.Validation(fmt.Sprintf("item %d: price cannot be negative", idx))
		}
		items = append(items, QuoteItem{
			ProductID:         in.ProductID,
			ProductName:       in.ProductName,
			ProductImage:      in.ProductImage,
			Quantity:          in.Quantity,
			RequestedQuantity: in.Quantity,
			OriginalPrice:     in.OriginalPrice,
			Specifications:    in.Specifications,
			Unit:              in.Unit,
		})
	}

	validity := p.ValidityDays
	if validity == 0 {
		validity = DefaultValidityDays
	}

	shipping := strings.TrimSpace(p.ShippingAddress)
	if shipping == "" {
		shipping = p.Buyer.Address
	}

	q := &Quote{
		BuyerID:           p.BuyerID,
		Buyer:             p.Buyer,
		SupplierID:        p.SupplierID,
		SupplierName:      p.SupplierName,
		Status:            StatusPending,
		ValidityDays:      validity,
		ValidUntil:        DateOf(now).AddDate(0, 0, validity),
		BuyerRequirements: p.BuyerRequirements,
		ShippingAddress:   shipping,
		CreatedAt:         now,
		UpdatedAt:         now,
		Items:             items,
	}
	q.recalculate()
	q.appendSystem(MessageSystem, "Quote request created", now)
	return q, nil
}

// ItemPricing updates one line during respond or approve. Price is the
// quoted price on respond and the final price on approve.
type ItemPricing struct {
	ItemID       int64
	Price        decimal.Decimal
	Quantity     *int
	LeadTimeDays *int
	Notes        *string
}

// RespondInput is the supplier's answer to a quote.
type RespondInput struct {
	Items              []ItemPricing
	DiscountPercentage *decimal.Decimal
	ValidityDays       *int
	SupplierNotes      *string
	Message            string
}

// Respond applies supplier pricing. Allowed from PENDING and NEGOTIATING.
func (q *Quote) Respond(supplierID uuid.UUID, senderName string, in RespondInput, now time.Time) error {
	if err := q.requireSupplier(supplierID); err != nil {
		return err
	}
	if !q.Status.CanRespond() {
		return q.stateError("respond to")
	}
	if err := q.applyPricing(in.Items, func(item *QuoteItem, price decimal.Decimal) {
		p := price
		item.QuotedPrice = &p
	}); err != nil {
		return err
	}
	if err := q.applyDiscount(in.DiscountPercentage); err != nil {
		return err
	}
	if in.ValidityDays != nil {
		q.raiseValidity(*in.ValidityDays)
	}
	if in.SupplierNotes != nil {
		q.SupplierNotes = *in.SupplierNotes
	}

	q.recalculate()
	q.NegotiationCount++
	q.Status = StatusSupplierResponded
	q.RespondedAt = &now
	q.touch(now)

	q.appendFrom(supplierID, senderName, SenderSupplier, MessagePriceUpdate,
		withDefault(in.Message, "Supplier responded with pricing"), "", now)
	return nil
}

// CounterOffer signals the buyer wants further negotiation. It carries no
// price payload.
func (q *Quote) CounterOffer(buyerID uuid.UUID, senderName, message string, now time.Time) error {
	if err := q.requireBuyer(buyerID); err != nil {
		return err
	}
	if q.Status.IsTerminal() {
		return q.stateError("counter-offer on")
	}
	if strings.TrimSpace(message) == "" {
		return apperr.Validation("counter-offer message is required")
	}

	q.NegotiationCount++
	q.Status = StatusNegotiating
	q.touch(now)
	q.appendFrom(buyerID, senderName, SenderBuyer, MessageCounterOffer, message, "", now)
	return nil
}

// ApproveInput is the supplier's final pricing.
type ApproveInput struct {
	Items              []ItemPricing
	DiscountPercentage *decimal.Decimal
	ValidityDays       *int
	Message            string
}

// Approve fixes final per-item pricing and moves the quote to APPROVED.
func (q *Quote) Approve(supplierID uuid.UUID, senderName string, in ApproveInput, now time.Time) error {
	if err := q.requireSupplier(supplierID); err != nil {
		return err
	}
	if q.Status.IsTerminal() {
		return q.stateError("approve")
	}
	if err := q.applyPricing(in.Items, func(item *QuoteItem, price decimal.Decimal) {
		p := price
		item.FinalPrice = &p
	}); err != nil {
		return err
	}
	if err := q.applyDiscount(in.DiscountPercentage); err != nil {
		return err
	}
	if in.ValidityDays != nil {
		q.raiseValidity(*in.ValidityDays)
	}

	q.recalculate()
	q.Status = StatusApproved
	q.ApprovedAt = &now
	q.touch(now)

	q.appendFrom(supplierID, senderName, SenderSupplier, MessageApproval,
		withDefault(in.Message, "Quote approved"), "", now)
	return nil
}

// Reject ends the negotiation on the supplier side.
func (q *Quote) Reject(supplierID uuid.UUID, senderName, reason string, now time.Time) error {
	if err := q.requireSupplier(supplierID); err != nil {
		return err
	}
	if q.Status.IsTerminal() {
		return q.stateError("reject")
	}

	q.RejectionReason = strings.TrimSpace(reason)
	q.Status = StatusRejected
	q.touch(now)
	q.appendFrom(supplierID, senderName, SenderSupplier, MessageRejection,
		withDefault(q.RejectionReason, "Quote rejected"), "", now)
	return nil
}

// Cancel withdraws the request on the buyer side.
func (q *Quote) Cancel(buyerID uuid.UUID, senderName, reason string, now time.Time) error {
	if err := q.requireBuyer(buyerID); err != nil {
		return err
	}
	if q.Status == StatusConverted {
		return apperr.InvalidState("quote has already been converted to an order")
	}
	if q.Status.IsTerminal() {
		return q.stateError("cancel")
	}

	q.Status = StatusCancelled
	q.touch(now)
	text := "Quote cancelled by buyer"
	if r := strings.TrimSpace(reason); r != "" {
		text += ": " + r
	}
	q.appendFrom(buyerID, senderName, SenderBuyer, MessageSystem, text, "", now)
	return nil
}

// ExtendValidity pushes ValidUntil out by days, or by defaultDays when
// days is not positive. Status is unchanged.
func (q *Quote) ExtendValidity(supplierID uuid.UUID, senderName string, days, defaultDays int, now time.Time) error {
	if err := q.requireSupplier(supplierID); err != nil {
		return err
	}
	if q.Status.IsTerminal() {
		return q.stateError("extend")
	}
	if days <= 0 {
		days = defaultDays
	}
	if days <= 0 {
		days = DefaultExtensionDays
	}

	q.extendBy(days)
	q.touch(now)
	q.appendFrom(supplierID, senderName, SenderSupplier, MessageExtension,
		fmt.Sprintf("Validity extended by %d days until %s", days, q.ValidUntil.Format(time.DateOnly)), "", now)
	return nil
}

// AddMessage appends a thread entry from a participant. An empty msgType
// means TEXT. Converted quotes are closed for discussion; cancelled and
// rejected ones are not.
func (q *Quote) AddMessage(senderID uuid.UUID, senderName string, msgType MessageType, text, attachmentURL string, now time.Time) (SenderType, error) {
	senderType, err := q.ParticipantRole(senderID)
	if err != nil {
		return "", err
	}
	if msgType == "" {
		msgType = MessageText
	}
	if err := checkParticipantMessageType(senderType, msgType); err != nil {
		return "", err
	}
	if q.Status == StatusConverted {
		return "", apperr.InvalidState("converted quotes no longer accept messages")
	}
	if strings.TrimSpace(text) == "" && strings.TrimSpace(attachmentURL) == "" {
		return "", apperr.Validation("message text or attachment is required")
	}
	q.appendFrom(senderID, senderName, senderType, msgType, text, attachmentURL, now)
	q.touch(now)
	return senderType, nil
}

// AddSystemMessage records a platform notice without changing state.
func (q *Quote) AddSystemMessage(text string, now time.Time) {
	q.appendSystem(MessageSystem, text, now)
	q.touch(now)
}

// ParticipantRole tells whether id is the buyer or the supplier.
func (q *Quote) ParticipantRole(id uuid.UUID) (SenderType, error) {
	switch id {
	case q.BuyerID:
		return SenderBuyer, nil
	case q.SupplierID:
		return SenderSupplier, nil
	default:
		return "", apperr.Forbidden("not a participant of this quote")
	}
}

// PendingMessages returns thread entries produced since the last save.
// The slice is shared with the aggregate so repositories can record the
// ids they assign.
func (q *Quote) PendingMessages() []QuoteMessage {
	return q.pending
}

// ClearPending is called by repositories after messages are stored.
func (q *Quote) ClearPending() {
	q.pending = nil
}

func (q *Quote) requireBuyer(id uuid.UUID) error {
	if id != q.BuyerID {
		return apperr.Forbidden("only the buyer can perform this action")
	}
	return nil
}

func (q *Quote) requireSupplier(id uuid.UUID) error {
	if id != q.SupplierID {
		return apperr.Forbidden("only the supplier can perform this action")
	}
	return nil
}

func (q *Quote) stateError(action string) error {
	return apperr.InvalidState(fmt.Sprintf("cannot %s a quote in status %s", action, q.Status)).
		WithDetails(map[string]string{"status": string(q.Status)})
}

func (q *Quote) applyPricing(updates []ItemPricing, set func(*QuoteItem, decimal.Decimal)) error {
	index := make(map[int64]int, len(q.Items))
	for i, item := range q.Items {
		index[item.ID] = i
	}

	// validate everything before touching the items
	for _, u := range updates {
		if _, ok := index[u.ItemID]; !ok {
			return apperr.Validation(fmt.Sprintf("item %d is not part of this quote", u.ItemID))
		}
		if u.Price.IsNegative() {
			return apperr.Validation("price cannot be negative")
		}
		if u.Quantity != nil && *u.Quantity <= 0 {
			return apperr.Validation("quantity must be positive")
		}
		if u.LeadTimeDays != nil && *u.LeadTimeDays < 0 {
			return apperr.Validation("lead time cannot be negative")
		}
	}

	for _, u := range updates {
		item := &q.Items[index[u.ItemID]]
		set(item, u.Price)
		if u.Quantity != nil {
			item.Quantity = *u.Quantity
		}
		if u.LeadTimeDays != nil {
			lead := *u.LeadTimeDays
			item.LeadTimeDays = &lead
		}
		if u.Notes != nil {
			item.Notes = *u.Notes
		}
	}
	return nil
}

func (q *Quote) applyDiscount(pct *decimal.Decimal) error {
	if pct == nil {
		return nil
	}
	if !validPercentage(*pct) {
		return apperr.Validation("discount percentage must be between 0 and 100")
	}
	p := *pct
	q.DiscountPercentage = &p
	return nil
}

func (q *Quote) recalculate() {
	t := CalculateTotals(q.Items, q.DiscountPercentage)
	q.OriginalTotal = t.OriginalTotal
	q.QuotedTotal = t.QuotedTotal
	q.DiscountAmount = t.DiscountAmount
	q.FinalTotal = t.FinalTotal
}

func (q *Quote) touch(now time.Time) {
	q.UpdatedAt = now
}

func (q *Quote) appendFrom(senderID uuid.UUID, name string, senderType SenderType, msgType MessageType, text, attachment string, now time.Time) {
	id := senderID
	q.pending = append(q.pending, QuoteMessage{
		QuoteID:       q.ID,
		SenderID:      &id,
		SenderName:    name,
		SenderType:    senderType,
		MessageType:   msgType,
		Message:       text,
		AttachmentURL: attachment,
		CreatedAt:     now,
	})
}

func (q *Quote) appendSystem(msgType MessageType, text string, now time.Time) {
	q.pending = append(q.pending, QuoteMessage{
		QuoteID:     q.ID,
		SenderName:  "System",
		SenderType:  SenderSystem,
		MessageType: msgType,
		Message:     text,
		CreatedAt:   now,
	})
}

func withDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
