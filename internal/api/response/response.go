// Package response renders the JSON envelope shared by every endpoint.
package response

import (
	"github.com/labstack/echo/v4"

	"github.com/storefront/catalog-api/internal/core/domain"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Token   string            `json:"token,omitempty"`
	User    *domain.User      `json:"user,omitempty"`
	Product *domain.Product   `json:"product,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// OK writes a successful envelope with status.
func OK(c echo.Context, status int, env Envelope) error {
	env.Success = true
	return c.JSON(status, env)
}

// List writes a successful product list. products is always rendered, as [] when empty.
func List(c echo.Context, status int, products []*domain.Product) error {
	if products == nil {
		products = []*domain.Product{}
	}
	return c.JSON(status, listEnvelope{Success: true, Count: len(products), Products: products})
}

type listEnvelope struct {
	Success  bool              `json:"success"`
	Count    int               `json:"count"`
	Products []*domain.Product `json:"products"`
}

// Fail writes an error envelope.
func Fail(c echo.Context, status int, msg string, fields map[string]string) error {
	return c.JSON(status, Envelope{Success: false, Message: msg, Errors: fields})
}
