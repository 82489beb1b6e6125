package domain

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// QuoteItem is one product line of a quote.
type QuoteItem struct {
	ID                int64
	QuoteID           int64
	ProductID         string
	ProductName       string
	ProductImage      string
	Quantity          int
	RequestedQuantity int
	OriginalPrice     decimal.Decimal
	QuotedPrice       *decimal.Decimal
	FinalPrice        *decimal.Decimal
	LeadTimeDays      *int
	Specifications    string
	Unit              string
	Notes             string
}

// UnitPrice resolves the current best price: final, then quoted, then original.
func (i QuoteItem) UnitPrice() decimal.Decimal {
	if i.FinalPrice != nil {
		return *i.FinalPrice
	}
	return i.quotedOrOriginal()
}

// LineTotal is UnitPrice × Quantity.
func (i QuoteItem) LineTotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i QuoteItem) quotedOrOriginal() decimal.Decimal {
	if i.QuotedPrice != nil {
		return *i.QuotedPrice
	}
	return i.OriginalPrice
}

// Totals are the aggregate money figures of a quote.
type Totals struct {
	OriginalTotal  decimal.Decimal
	QuotedTotal    decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalTotal     decimal.Decimal
}

// CalculateTotals computes quote totals from its items and quote-level
// discount percentage. FinalTotal derives from the quoted total and the
// discount only; per-item final prices are applied at conversion.
func CalculateTotals(items []QuoteItem, discountPercentage *decimal.Decimal) Totals {
	var t Totals
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		t.OriginalTotal = t.OriginalTotal.Add(item.OriginalPrice.Mul(qty))
		t.QuotedTotal = t.QuotedTotal.Add(item.quotedOrOriginal().Mul(qty))
	}

	t.DiscountAmount = decimal.Zero
	t.FinalTotal = t.QuotedTotal
	if discountPercentage != nil && discountPercentage.IsPositive() {
		t.DiscountAmount = t.QuotedTotal.Mul(*discountPercentage).Div(hundred).Round(2)
		t.FinalTotal = t.QuotedTotal.Sub(t.DiscountAmount)
	}
	return t
}

// Subtotal sums cascaded line totals.
func Subtotal(items []QuoteItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

func validPercentage(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}
