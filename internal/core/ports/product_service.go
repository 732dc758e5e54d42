package ports

import (
	"context"

	"github.com/storefront/catalog-api/internal/core/domain"
)

// ProductInput carries scalar product fields. Empty strings and nil pointers
// mean "not supplied"; on update they keep the stored value.
type ProductInput struct {
	SKU         string
	Name        string
	Description string
	Quantity    *int
	Price       *float64
	// MainImage names either the original filename of one of the uploads or
	// an already stored reference.
	MainImage string
}

// ProductService keeps product documents and their image files consistent.
type ProductService interface {
	Create(ctx context.Context, in ProductInput, uploads []UploadedImage) (*domain.Product, error)
	Update(ctx context.Context, id string, in ProductInput, uploads []UploadedImage) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]*domain.Product, error)
	GetAll(ctx context.Context) ([]*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}
