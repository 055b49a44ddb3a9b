package remote

import (
	"bytes"
	"encoding/json"
	"fmt"

	"storefront/internal/model"
)

// The store service is inconsistent about envelope shapes. Every decoder below accepts all the
// shapes it has been seen to produce and hands the rest of the program one canonical form.

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeProductPage accepts {products|data, page, pages|totalPages} or a bare array.
func decodeProductPage(raw json.RawMessage, requested int) (model.ProductPage, error) {
	page := model.ProductPage{Page: requested, TotalPages: 1}

	if isArray(raw) {
		if err := json.Unmarshal(raw, &page.Products); err != nil {
			return model.ProductPage{}, fmt.Errorf("failed to decode product list: %w", err)
		}
		return page, nil
	}

	var env struct {
		Products   []model.Product `json:"products"`
		Data       []model.Product `json:"data"`
		Page       int             `json:"page"`
		Pages      int             `json:"pages"`
		TotalPages int             `json:"totalPages"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return model.ProductPage{}, fmt.Errorf("failed to decode product page: %w", err)
	}

	page.Products = env.Products
	if page.Products == nil {
		page.Products = env.Data
	}
	if env.Page > 0 {
		page.Page = env.Page
	}
	switch {
	case env.Pages > 0:
		page.TotalPages = env.Pages
	case env.TotalPages > 0:
		page.TotalPages = env.TotalPages
	}
	if page.Products == nil {
		page.Products = []model.Product{}
	}
	return page, nil
}

// decodeProducts accepts {products}, {data} or a bare array.
func decodeProducts(raw json.RawMessage) ([]model.Product, error) {
	page, err := decodeProductPage(raw, 1)
	if err != nil {
		return nil, err
	}
	return page.Products, nil
}

// wireLine is a cart line whose product may be populated or a bare id.
type wireLine struct {
	ID       string          `json:"_id"`
	Product  json.RawMessage `json:"product"`
	Quantity int             `json:"quantity"`
	Size     *string         `json:"size"`
}

func decodeLines(raw json.RawMessage) ([]model.CartLine, error) {
	if isNull(raw) {
		return []model.CartLine{}, nil
	}

	var wire []wireLine
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode cart lines: %w", err)
	}

	lines := make([]model.CartLine, 0, len(wire))
	for _, w := range wire {
		line := model.CartLine{ID: w.ID, Quantity: w.Quantity, Size: w.Size}
		if len(bytes.TrimSpace(w.Product)) > 0 && bytes.TrimSpace(w.Product)[0] == '"' {
			if err := json.Unmarshal(w.Product, &line.Product.ID); err != nil {
				return nil, fmt.Errorf("failed to decode cart line product id: %w", err)
			}
		} else if !isNull(w.Product) {
			if err := json.Unmarshal(w.Product, &line.Product); err != nil {
				return nil, fmt.Errorf("failed to decode cart line product: %w", err)
			}
		}
		if line.Size != nil && *line.Size == "" {
			line.Size = nil
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// decodeCart accepts {cart: [...]} or a bare array.
func decodeCart(raw json.RawMessage) ([]model.CartLine, error) {
	if isArray(raw) || isNull(raw) {
		return decodeLines(raw)
	}
	var env struct {
		Cart json.RawMessage `json:"cart"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return decodeLines(env.Cart)
}

// decodeFavoriteList accepts an array of products or {items: [...]}.
func decodeFavoriteList(raw json.RawMessage) ([]model.Product, error) {
	if isNull(raw) {
		return []model.Product{}, nil
	}
	var products []model.Product
	if isArray(raw) {
		if err := json.Unmarshal(raw, &products); err != nil {
			return nil, fmt.Errorf("failed to decode favorites: %w", err)
		}
	} else {
		var env struct {
			Items []model.Product `json:"items"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("failed to decode favorites: %w", err)
		}
		products = env.Items
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

// decodeFavorites accepts {favorites: <list>} or a bare list.
func decodeFavorites(raw json.RawMessage) ([]model.Product, error) {
	if isArray(raw) || isNull(raw) {
		return decodeFavoriteList(raw)
	}
	var env struct {
		Favorites json.RawMessage `json:"favorites"`
		Items     json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode favorites: %w", err)
	}
	if !isNull(env.Favorites) {
		return decodeFavoriteList(env.Favorites)
	}
	return decodeFavoriteList(env.Items)
}

// decodeOrders accepts {orders}, {data} or a bare array.
func decodeOrders(raw json.RawMessage) ([]model.Order, error) {
	var orders []model.Order
	if isArray(raw) {
		if err := json.Unmarshal(raw, &orders); err != nil {
			return nil, fmt.Errorf("failed to decode orders: %w", err)
		}
	} else if !isNull(raw) {
		var env struct {
			Orders []model.Order `json:"orders"`
			Data   []model.Order `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("failed to decode orders: %w", err)
		}
		orders = env.Orders
		if orders == nil {
			orders = env.Data
		}
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// decodeOrder accepts {order: {...}} or the order itself.
func decodeOrder(raw json.RawMessage) (model.Order, error) {
	var env struct {
		Order json.RawMessage `json:"order"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return model.Order{}, fmt.Errorf("failed to decode order: %w", err)
	}
	body := raw
	if !isNull(env.Order) {
		body = env.Order
	}
	var order model.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return model.Order{}, fmt.Errorf("failed to decode order: %w", err)
	}
	return order, nil
}

// decodePlacement reads a create-order answer. The gateway order id falls back to the
// store's own order id when the service does not return one.
func decodePlacement(raw json.RawMessage) (model.OrderPlacement, error) {
	order, err := decodeOrder(raw)
	if err != nil {
		return model.OrderPlacement{}, err
	}
	var env struct {
		GatewayOrderID string `json:"razorpayOrderId"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return model.OrderPlacement{}, fmt.Errorf("failed to decode order placement: %w", err)
	}
	placement := model.OrderPlacement{Order: order, GatewayOrderID: env.GatewayOrderID}
	if placement.GatewayOrderID == "" {
		placement.GatewayOrderID = order.ID
	}
	return placement, nil
}
