package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"storefront/internal/model"
)

// ListProducts fetches one catalogue page. Pages start at 1.
func (c *Client) ListProducts(ctx context.Context, page int) (model.ProductPage, error) {
	if page < 1 {
		page = 1
	}
	var raw json.RawMessage
	query := url.Values{"page": []string{strconv.Itoa(page)}}
	if err := c.do(ctx, http.MethodGet, "products", query, "", nil, &raw); err != nil {
		return model.ProductPage{}, err
	}
	return decodeProductPage(raw, page)
}

// GetProduct fetches a single product.
func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := c.do(ctx, http.MethodGet, "products/"+url.PathEscape(id), nil, "", nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// SearchProducts runs a free-text catalogue search.
func (c *Client) SearchProducts(ctx context.Context, q string) ([]model.Product, error) {
	var raw json.RawMessage
	query := url.Values{"q": []string{q}}
	if err := c.do(ctx, http.MethodGet, "products/search", query, "", nil, &raw); err != nil {
		return nil, err
	}
	return decodeProducts(raw)
}
