package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/model"
	"storefront/internal/remote"

	"github.com/rs/zerolog"
)

// SuggestLimit caps the products returned by Suggest.
const SuggestLimit = 8

// CatalogRemote is the part of the store service the catalogue reads.
type CatalogRemote interface {
	ListProducts(ctx context.Context, page int) (model.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	SearchProducts(ctx context.Context, q string) ([]model.Product, error)
}

type catalogService struct {
	remote CatalogRemote
	logger zerolog.Logger
}

// NewCatalogService creates a catalogue service.
func NewCatalogService(remote CatalogRemote, logger zerolog.Logger) CatalogService {
	return &catalogService{
		remote: remote,
		logger: logger.With().Str("service", "catalog").Logger(),
	}
}

func (s *catalogService) List(ctx context.Context, page int) (model.ProductPage, error) {
	if page < 1 {
		page = 1
	}
	result, err := s.remote.ListProducts(ctx, page)
	if err != nil {
		s.logger.Error().Err(err).Int("page", page).Msg("failed to list products")
		return model.ProductPage{}, fmt.Errorf("failed to list products: %w", err)
	}
	return result, nil
}

func (s *catalogService) Get(ctx context.Context, id string) (*model.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, model.ErrNotFound
	}

	product, err := s.remote.GetProduct(ctx, id)
	if err != nil {
		var apiErr *remote.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, model.ErrNotFound
		}
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *catalogService) Search(ctx context.Context, query string) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Product{}, nil
	}

	products, err := s.remote.SearchProducts(ctx, query)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("search failed")
		return nil, fmt.Errorf("search failed: %w", err)
	}

	s.logger.Debug().Str("query", query).Int("count", len(products)).Msg("search completed")
	return products, nil
}

func (s *catalogService) Suggest(ctx context.Context, query string) (model.Suggestions, error) {
	products, err := s.Search(ctx, query)
	if err != nil {
		return model.Suggestions{}, err
	}

	out := model.Suggestions{
		Query:    strings.TrimSpace(query),
		Products: products,
		Total:    len(products),
	}
	if len(products) > SuggestLimit {
		out.Products = products[:SuggestLimit]
	}
	return out, nil
}

func (s *catalogService) Purchasable(ctx context.Context, id string, size *string) (*model.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.InStock() {
		return nil, model.ErrSoldOut
	}
	if size != nil && !product.OffersSize(*size) {
		return nil, model.NewValidationError(fmt.Sprintf("Size %s is not available for this product", *size))
	}
	return product, nil
}
