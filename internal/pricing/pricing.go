// Package pricing derives the order totals shown for a cart.
package pricing

import (
	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

var (
	// FreeShippingThreshold is the subtotal above which shipping is free.
	FreeShippingThreshold = decimal.NewFromInt(999)
	// ShippingFee is charged when the subtotal does not exceed the threshold.
	ShippingFee = decimal.NewFromInt(99)
	// TaxRate is the GST rate applied to the subtotal.
	TaxRate = decimal.RequireFromString("0.18")
)

// Subtotal sums price × quantity over the lines. Lines with a quantity below one count once,
// matching how the storefront renders them.
func Subtotal(lines []model.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}
		total = total.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

// Breakdown derives shipping, tax and total from a subtotal.
func Breakdown(subtotal decimal.Decimal) model.PriceBreakdown {
	shipping := ShippingFee
	if subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(TaxRate).Round(0)

	return model.PriceBreakdown{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// Compute derives the full breakdown for a set of cart lines.
func Compute(lines []model.CartLine) model.PriceBreakdown {
	return Breakdown(Subtotal(lines))
}

// MinorUnits converts a rupee amount to paise for the payment gateway.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
