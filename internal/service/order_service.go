package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/model"
	"storefront/internal/remote"
	"storefront/internal/session"

	"github.com/rs/zerolog"
)

// OrderRemote is the part of the store service order history uses.
type OrderRemote interface {
	ListOrders(ctx context.Context, token string) ([]model.Order, error)
	GetOrder(ctx context.Context, token, orderID string) (*model.Order, error)
	CancelOrder(ctx context.Context, token, orderID string) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, token, orderID string, status model.OrderStatus) (*model.Order, error)
}

type orderService struct {
	remote OrderRemote
	logger zerolog.Logger
}

// NewOrderService creates an order history service.
func NewOrderService(remote OrderRemote, logger zerolog.Logger) OrderService {
	return &orderService{
		remote: remote,
		logger: logger.With().Str("service", "order").Logger(),
	}
}

func (s *orderService) List(ctx context.Context, identity session.Identity) ([]model.Order, error) {
	if identity.Token == "" {
		return nil, model.ErrAuthRequired
	}
	orders, err := s.remote.ListOrders(ctx, identity.Token)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.UserID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) Get(ctx context.Context, identity session.Identity, id string) (*model.Order, error) {
	if identity.Token == "" {
		return nil, model.ErrAuthRequired
	}
	if strings.TrimSpace(id) == "" {
		return nil, model.ErrNotFound
	}
	order, err := s.remote.GetOrder(ctx, identity.Token, id)
	if err != nil {
		return nil, s.translate(err, "failed to get order", id)
	}
	return order, nil
}

func (s *orderService) Cancel(ctx context.Context, identity session.Identity, id string) (*model.Order, error) {
	order, err := s.Get(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.Cancellable() {
		s.logger.Debug().Str("order_id", id).Str("status", string(order.Status)).Msg("order not cancellable")
		return nil, model.ErrNotCancellable
	}

	cancelled, err := s.remote.CancelOrder(ctx, identity.Token, id)
	if err != nil {
		return nil, s.translate(err, "failed to cancel order", id)
	}

	s.logger.Info().Str("order_id", id).Str("user_id", identity.UserID).Msg("order cancelled")
	return cancelled, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, identity session.Identity, id string, status model.OrderStatus) (*model.Order, error) {
	if identity.Token == "" {
		return nil, model.ErrAuthRequired
	}
	if !identity.IsAdmin {
		return nil, model.ErrForbidden
	}
	if !status.Valid() {
		return nil, model.NewValidationError(fmt.Sprintf("Invalid order status: %s", status))
	}

	order, err := s.remote.UpdateOrderStatus(ctx, identity.Token, id, status)
	if err != nil {
		return nil, s.translate(err, "failed to update order status", id)
	}

	s.logger.Info().Str("order_id", id).Str("status", string(status)).Msg("order status updated")
	return order, nil
}

func (s *orderService) translate(err error, msg, orderID string) error {
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return model.ErrNotFound
	}
	s.logger.Error().Err(err).Str("order_id", orderID).Msg(msg)
	return fmt.Errorf("%s: %w", msg, err)
}
