package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"storefront/internal/model"
)

type cartAddRequest struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Size      *string `json:"size,omitempty"`
}

type cartUpdateRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type favoriteRequest struct {
	ProductID string `json:"productId"`
}

// GetProfile fetches the user's profile with the authoritative cart and favorites.
func (c *Client) GetProfile(ctx context.Context, token string) (*model.Profile, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "users/profile", nil, token, nil, &raw); err != nil {
		return nil, err
	}

	var base struct {
		ID        string          `json:"_id"`
		Name      string          `json:"name"`
		Email     string          `json:"email"`
		IsAdmin   bool            `json:"isAdmin"`
		Cart      json.RawMessage `json:"cart"`
		Favorites json.RawMessage `json:"favorites"`
	}
	if err := json.Unmarshal(raw, &base); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}

	lines, err := decodeLines(base.Cart)
	if err != nil {
		return nil, err
	}
	favorites, err := decodeFavoriteList(base.Favorites)
	if err != nil {
		return nil, err
	}

	return &model.Profile{
		ID:        base.ID,
		Name:      base.Name,
		Email:     base.Email,
		IsAdmin:   base.IsAdmin,
		Cart:      lines,
		Favorites: favorites,
	}, nil
}

// AddCartItem adds quantity units of a product in a size. The returned cart is authoritative.
func (c *Client) AddCartItem(ctx context.Context, token, productID string, quantity int, size *string) ([]model.CartLine, error) {
	return c.cartCall(ctx, http.MethodPost, "users/cart", token, cartAddRequest{
		ProductID: productID,
		Quantity:  quantity,
		Size:      size,
	})
}

// UpdateCartItem sets the quantity of an existing line.
func (c *Client) UpdateCartItem(ctx context.Context, token, lineID string, quantity int) ([]model.CartLine, error) {
	return c.cartCall(ctx, http.MethodPatch, "users/cart", token, cartUpdateRequest{
		ItemID:   lineID,
		Quantity: quantity,
	})
}

// RemoveCartItem deletes a line.
func (c *Client) RemoveCartItem(ctx context.Context, token, lineID string) ([]model.CartLine, error) {
	return c.cartCall(ctx, http.MethodDelete, "users/cart/"+url.PathEscape(lineID), token, nil)
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context, token string) ([]model.CartLine, error) {
	return c.cartCall(ctx, http.MethodDelete, "users/cart/clear", token, nil)
}

func (c *Client) cartCall(ctx context.Context, method, path, token string, in interface{}) ([]model.CartLine, error) {
	var raw json.RawMessage
	if err := c.do(ctx, method, path, nil, token, in, &raw); err != nil {
		return nil, err
	}
	return decodeCart(raw)
}

// AddFavorite adds a product to the favorites set.
func (c *Client) AddFavorite(ctx context.Context, token, productID string) ([]model.Product, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "users/favorites", nil, token, favoriteRequest{ProductID: productID}, &raw); err != nil {
		return nil, err
	}
	return decodeFavorites(raw)
}

// RemoveFavorite removes a product from the favorites set.
func (c *Client) RemoveFavorite(ctx context.Context, token, productID string) ([]model.Product, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodDelete, "users/favorites/"+url.PathEscape(productID), nil, token, nil, &raw); err != nil {
		return nil, err
	}
	return decodeFavorites(raw)
}
