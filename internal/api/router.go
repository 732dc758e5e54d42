package api

import (
	"fmt"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/storefront/catalog-api/internal/api/handler"
	"github.com/storefront/catalog-api/internal/api/middleware"
	"github.com/storefront/catalog-api/internal/api/response"
	"github.com/storefront/catalog-api/internal/core/ports"
	ophttp "github.com/storefront/catalog-api/internal/infrastructure/http"
	"github.com/storefront/catalog-api/internal/infrastructure/http/handlers"
	"github.com/storefront/catalog-api/internal/pkg/config"
)

// Deps are the collaborators the HTTP layer is built on.
type Deps struct {
	Config         *config.Config
	Log            zerolog.Logger
	AuthService    ports.AuthService
	ProductService ports.ProductService
	ImageStore     ports.ImageStore
	Health         []handlers.Dependency
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	cfg := d.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = response.NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(corsConfig(cfg.CORS.AllowOrigins)))
	e.Use(echoprometheus.NewMiddleware("catalog"))

	// --- Operational endpoints (no auth required) ---
	ophttp.RegisterOperational(e, d.Health...)

	// --- Uploaded images ---
	e.Static(cfg.Storage.URLPrefix, cfg.Storage.Dir)

	// --- Dependencies ---
	protect := middleware.Protect(d.AuthService, cfg.Auth.CookieName)
	uploader := handler.NewImageUploader(d.ImageStore, cfg.Storage.MaxFiles, cfg.Storage.MaxBytes, d.Log)
	authHandler := handler.NewAuthHandler(d.AuthService)
	productHandler := handler.NewProductHandler(d.ProductService, uploader)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.GET("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me, protect)

	// --- Product routes ---
	// /search is registered before /:id so it is never read as an id.
	bodyLimit := echomiddleware.BodyLimit(uploadLimit(cfg.Storage.MaxFiles, cfg.Storage.MaxBytes))
	products := e.Group("/api/products")
	products.GET("/search", productHandler.Search)
	products.GET("", productHandler.GetAll)
	products.GET("/:id", productHandler.GetByID)
	products.POST("", productHandler.Create, protect, bodyLimit)
	products.PUT("/:id", productHandler.Update, protect, bodyLimit)
	products.DELETE("/:id", productHandler.Delete, protect)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil || v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func corsConfig(origins []string) echomiddleware.CORSConfig {
	wildcard := len(origins) == 0
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			wildcard = true
		}
	}
	if wildcard {
		return echomiddleware.CORSConfig{AllowOrigins: []string{"*"}}
	}
	return echomiddleware.CORSConfig{AllowOrigins: origins, AllowCredentials: true}
}

// uploadLimit is the request body ceiling for product writes: a full set of
// images plus room for the form fields.
func uploadLimit(maxFiles int, maxBytes int64) string {
	kib := (int64(maxFiles)*maxBytes + 1<<20) / 1024
	return fmt.Sprintf("%dK", kib)
}
