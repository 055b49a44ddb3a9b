package model

import "github.com/shopspring/decimal"

// CartLine is a single line of the client-visible cart.
// Quantity is always at least 1; a line that would drop below that is removed instead.
type CartLine struct {
	ID       string  `json:"_id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Size     *string `json:"size,omitempty"`
}

// MatchKey identifies the line an add-to-cart request merges into.
func (l CartLine) MatchKey() string {
	return LineKey(l.Product.ID, l.Size)
}

// LineKey builds the product+size key used to match lines.
func LineKey(productID string, size *string) string {
	if size == nil {
		return productID + "|"
	}
	return productID + "|" + *size
}

// CloneLines returns a copy of lines that shares no backing array with the input.
func CloneLines(lines []CartLine) []CartLine {
	if lines == nil {
		return []CartLine{}
	}
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}

// PriceBreakdown is derived from the cart on every read and never stored.
type PriceBreakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// CartView is the cart as presented to a UI.
type CartView struct {
	Lines     []CartLine     `json:"lines"`
	Breakdown PriceBreakdown `json:"breakdown"`
	Pending   []string       `json:"pending"`
}
