package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/catalog-api/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the envelope {"success": false, "message": "...", "errors": {...}}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg, fields := Resolve(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = Fail(c, code, msg, fields)
	}
}

// Resolve maps err to a status code, client message and optional per-field errors.
func Resolve(err error, log zerolog.Logger, c echo.Context) (int, string, map[string]string) {
	// Echo's own errors (bind failures, 404 from router, body limit, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Int("status", he.Code).Msg("request rejected")
		}
		return he.Code, fmt.Sprintf("%v", he.Message), nil
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, "validation failed", ve.Fields
	}

	switch {
	case errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrDuplicateSku),
		errors.Is(err, domain.ErrMissingCredentials),
		errors.Is(err, domain.ErrUnsupportedFileType),
		errors.Is(err, domain.ErrEmptyQuery):
		return http.StatusBadRequest, rootMessage(err), nil
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrNoToken),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrStaleUser):
		return http.StatusUnauthorized, rootMessage(err), nil
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, rootMessage(err), nil
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, rootMessage(err), nil
	}

	// Unexpected error: log the real cause, return a generic message.
	evt := log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path())
	var se *domain.StorageError
	if errors.As(err, &se) {
		evt = evt.Str("file", se.Path)
	}
	evt.Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error", nil
}

// rootMessage returns the message of the taxonomy sentinel err wraps, so
// wrapping context never reaches the client.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrDuplicateEmail, domain.ErrDuplicateSku, domain.ErrMissingCredentials,
		domain.ErrUnsupportedFileType, domain.ErrEmptyQuery, domain.ErrInvalidCredentials,
		domain.ErrNoToken, domain.ErrInvalidToken, domain.ErrStaleUser,
		domain.ErrProductNotFound, domain.ErrUserNotFound, domain.ErrTooManyAttempts,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
