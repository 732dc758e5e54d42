// Command api serves the catalog HTTP API.
//
//	@title						Catalog API
//	@version					1.0
//	@description				Product catalog with user accounts and image uploads.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "github.com/storefront/catalog-api/docs"
	"github.com/storefront/catalog-api/internal/api"
	"github.com/storefront/catalog-api/internal/core/service"
	"github.com/storefront/catalog-api/internal/infrastructure/db/mongo"
	"github.com/storefront/catalog-api/internal/infrastructure/db/redis"
	"github.com/storefront/catalog-api/internal/infrastructure/http/handlers"
	"github.com/storefront/catalog-api/internal/infrastructure/storage/local"
	"github.com/storefront/catalog-api/internal/pkg/config"
	"github.com/storefront/catalog-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "catalog-api",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server exited properly")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Mongo ---
	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	users := mongo.NewUserRepository(db)
	products := mongo.NewProductRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := products.EnsureIndexes(ctx); err != nil {
		return err
	}

	health := []handlers.Dependency{{Name: "mongo", Pinger: mongo.Pinger{Client: client}}}

	// --- Redis (optional) ---
	var throttle service.LoginThrottle
	if cfg.Redis.Addr != "" {
		var rdb *goredis.Client
		rdb, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()

		throttle = redis.NewLoginThrottle(rdb, cfg.Throttle.MaxAttempts, cfg.Throttle.Window)
		health = append(health, handlers.Dependency{Name: "redis", Pinger: redis.Pinger{Client: rdb}})
	} else {
		log.Warn().Msg("REDIS_ADDR not set, login throttling disabled")
	}

	// --- Image storage ---
	store, err := local.NewImageStore(cfg.Storage.Dir, cfg.Storage.URLPrefix)
	if err != nil {
		return err
	}

	// --- Services ---
	authService := service.NewAuthService(users, throttle, service.AuthConfig{
		JWTSecret:    cfg.Auth.JWTSecret,
		TokenTTL:     cfg.Auth.TokenTTL,
		BcryptCost:   cfg.Auth.BcryptCost,
		CookieName:   cfg.Auth.CookieName,
		SecureCookie: cfg.IsProduction(),
	}, log)
	productService := service.NewProductService(products, store, log)

	if cfg.Reaper.Enabled {
		reaper := service.NewImageReaper(products, store, service.ReaperConfig{
			Interval:    cfg.Reaper.Interval,
			GracePeriod: cfg.Reaper.GracePeriod,
		}, log)
		reaper.Start()
		defer reaper.Stop()
	}

	e := api.NewRouter(api.Deps{
		Config:         cfg,
		Log:            log,
		AuthService:    authService,
		ProductService: productService,
		ImageStore:     store,
		Health:         health,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
