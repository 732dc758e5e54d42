package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/storefront/catalog-api/internal/api/middleware"
	"github.com/storefront/catalog-api/internal/core/domain"
)

// ctxUser returns the user injected by the Protect middleware. Its absence
// means the route was mounted without the gate and is treated as no session.
func ctxUser(c echo.Context) (*domain.User, error) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, domain.ErrNoToken
	}
	return u, nil
}
