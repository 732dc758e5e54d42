package handler

import (
	"github.com/storefront/catalog-api/internal/pkg/validation"
)

// echoValidator lets Echo call c.Validate(req); failures come back as
// *domain.ValidationError keyed by request field name.
type echoValidator struct{}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{}
}

// Validate satisfies the echo.Validator interface.
func (echoValidator) Validate(i any) error {
	return validation.Struct(i)
}
