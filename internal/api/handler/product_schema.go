package handler

import (
	"strconv"
	"strings"

	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
)

// productForm holds the scalar fields of a product multipart form. Numbers
// arrive as text and are parsed after validation; empty means not supplied.
type productForm struct {
	SKU         string `form:"sku"`
	Name        string `form:"name"`
	Description string `form:"description"`
	Quantity    string `form:"quantity" validate:"omitempty,number"`
	Price       string `form:"price"    validate:"omitempty,numeric"`
	MainImage   string `form:"mainImage"`
}

func (f productForm) toInput() (ports.ProductInput, error) {
	in := ports.ProductInput{
		SKU:         f.SKU,
		Name:        f.Name,
		Description: f.Description,
		MainImage:   f.MainImage,
	}
	if q := strings.TrimSpace(f.Quantity); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil {
			return in, domain.NewValidationError("quantity", "must be a whole non-negative number")
		}
		in.Quantity = &v
	}
	if p := strings.TrimSpace(f.Price); p != "" {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return in, domain.NewValidationError("price", "must be a number")
		}
		in.Price = &v
	}
	return in, nil
}
