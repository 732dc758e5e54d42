package ports

import (
	"context"

	"github.com/storefront/catalog-api/internal/core/domain"
)

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	// Create inserts p and assigns its ID. A taken SKU yields domain.ErrDuplicateSku.
	Create(ctx context.Context, p *domain.Product) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindAll(ctx context.Context) ([]*domain.Product, error)
	// Update replaces the stored document with p.
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
	// Search runs a full-text match over name, description and sku and returns
	// hits ordered by descending relevance.
	Search(ctx context.Context, query string) ([]*domain.Product, error)
	// ReferencedImages returns every image reference held by a live product.
	ReferencedImages(ctx context.Context) (map[string]struct{}, error)
}
