// Package catalog serves product and category reads through a Redis edge
// cache and handles the category-edit admin operation. The backend remains
// the source of truth; cached reads only shorten the hot path.
package catalog

import (
	"context"
	"log/slog"

	"github.com/BadarHossain1/harris-vale-storefront/internal/backend"
	"github.com/BadarHossain1/harris-vale-storefront/pkg/validator"
)

// Service wraps the backend catalog endpoints with caching and validation.
type Service struct {
	backend *backend.Client
	cache   *Cache
	logger  *slog.Logger
}

// NewService creates a catalog service. cache may be nil to disable caching.
func NewService(backend *backend.Client, cache *Cache, logger *slog.Logger) *Service {
	return &Service{backend: backend, cache: cache, logger: logger}
}

// ListProducts returns the catalog, optionally filtered by category slug.
// Cache failures are logged and bypassed, never surfaced.
func (s *Service) ListProducts(ctx context.Context, category string) ([]backend.Product, error) {
	key := productsKey(category)
	if s.cache != nil {
		var cached []backend.Product
		hit, err := s.cache.get(ctx, key, &cached)
		if err != nil {
			s.logger.WarnContext(ctx, "product cache read failed", slog.String("error", err.Error()))
		}
		if hit {
			return cached, nil
		}
	}

	products, err := s.backend.ListProducts(ctx, category)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.set(ctx, key, products); err != nil {
			s.logger.WarnContext(ctx, "product cache write failed", slog.String("error", err.Error()))
		}
	}
	return products, nil
}

// GetProduct returns one product by ID. Detail reads go straight to the
// backend; only the list endpoints are hot enough to cache.
func (s *Service) GetProduct(ctx context.Context, id string) (backend.Product, error) {
	return s.backend.GetProduct(ctx, id)
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]backend.Category, error) {
	if s.cache != nil {
		var cached []backend.Category
		hit, err := s.cache.get(ctx, keyCategories, &cached)
		if err != nil {
			s.logger.WarnContext(ctx, "category cache read failed", slog.String("error", err.Error()))
		}
		if hit {
			return cached, nil
		}
	}

	categories, err := s.backend.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.set(ctx, keyCategories, categories); err != nil {
			s.logger.WarnContext(ctx, "category cache write failed", slog.String("error", err.Error()))
		}
	}
	return categories, nil
}

// GetCategory returns one category by ID.
func (s *Service) GetCategory(ctx context.Context, id string) (backend.Category, error) {
	return s.backend.GetCategory(ctx, id)
}

// UpdateCategory applies a category edit. All fields are validated before any
// network call; an invalid form never reaches the backend. On success the
// cached category list is invalidated.
func (s *Service) UpdateCategory(ctx context.Context, id string, upd backend.CategoryUpdate) (backend.Category, error) {
	if err := validator.Validate(upd); err != nil {
		return backend.Category{}, err
	}

	cat, err := s.backend.UpdateCategory(ctx, id, upd)
	if err != nil {
		return backend.Category{}, err
	}

	if s.cache != nil {
		if err := s.cache.invalidateCategories(ctx); err != nil {
			s.logger.WarnContext(ctx, "category cache invalidation failed", slog.String("error", err.Error()))
		}
	}
	return cat, nil
}
