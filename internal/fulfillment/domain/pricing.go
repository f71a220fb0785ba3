package domain

import (
	"github.com/shopspring/decimal"

	"github.com/storeflow/storefront/pkg/apperr"
)

// Pricing rules. Tax is 10% of the item subtotal; shipping is a flat fee
// waived above the free-shipping threshold.
var (
	taxRate           = decimal.NewFromFloat(0.10)
	shippingFlat      = decimal.NewFromInt(15)
	freeShippingAbove = decimal.NewFromInt(100)
)

type Breakdown struct {
	ItemsPrice    decimal.Decimal `json:"itemsPrice"`
	TaxPrice      decimal.Decimal `json:"taxPrice"`
	ShippingPrice decimal.Decimal `json:"shippingPrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

// ComputeBreakdown derives the authoritative price breakdown from frozen
// line items.
func ComputeBreakdown(items []LineItem) Breakdown {
	itemsPrice := decimal.Zero
	for _, it := range items {
		itemsPrice = itemsPrice.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	shipping := shippingFlat
	if itemsPrice.GreaterThan(freeShippingAbove) {
		shipping = decimal.Zero
	}
	tax := itemsPrice.Mul(taxRate).Round(2)
	return Breakdown{
		ItemsPrice:    itemsPrice.Round(2),
		TaxPrice:      tax,
		ShippingPrice: shipping,
		TotalPrice:    itemsPrice.Add(tax).Add(shipping).Round(2),
	}
}

// Equal compares breakdowns by numeric value, not representation.
func (b Breakdown) Equal(other Breakdown) bool {
	return b.ItemsPrice.Equal(other.ItemsPrice) &&
		b.TaxPrice.Equal(other.TaxPrice) &&
		b.ShippingPrice.Equal(other.ShippingPrice) &&
		b.TotalPrice.Equal(other.TotalPrice)
}

// Validate checks internal consistency of a caller-supplied breakdown.
func (b Breakdown) Validate() error {
	if b.ItemsPrice.IsNegative() || b.TaxPrice.IsNegative() || b.ShippingPrice.IsNegative() {
		return apperr.Validation("price components must not be negative")
	}
	if !b.TotalPrice.Equal(b.ItemsPrice.Add(b.TaxPrice).Add(b.ShippingPrice)) {
		return apperr.Validation("total price does not match its components")
	}
	return nil
}
