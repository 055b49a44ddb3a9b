package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// The remote service exchanges amounts as JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a catalogue product as served by the remote store service.
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	Images      []string        `json:"images,omitempty"`
	Sizes       []string        `json:"sizes,omitempty"`
	Stock       *int            `json:"stock,omitempty"`
	SoldOut     bool            `json:"soldOut,omitempty"`
	CreatedAt   time.Time       `json:"createdAt,omitempty"`
}

// DefaultSizes is used when a product does not list its own sizes.
var DefaultSizes = []string{"S", "M", "L", "XL", "XXL"}

// AvailableSizes returns the product's sizes or the store defaults.
func (p Product) AvailableSizes() []string {
	if len(p.Sizes) > 0 {
		return p.Sizes
	}
	return DefaultSizes
}

// InStock reports whether the product can be added to a cart. A product without a stock
// figure is assumed available unless flagged sold out.
func (p Product) InStock() bool {
	if p.SoldOut {
		return false
	}
	return p.Stock == nil || *p.Stock > 0
}

// OffersSize reports whether size is one of the product's available sizes.
func (p Product) OffersSize(size string) bool {
	for _, s := range p.AvailableSizes() {
		if s == size {
			return true
		}
	}
	return false
}

// ProductPage is one page of the catalogue listing.
type ProductPage struct {
	Products   []Product `json:"products"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}

// Suggestions is the short result list shown under the search box.
type Suggestions struct {
	Query    string    `json:"query"`
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}
