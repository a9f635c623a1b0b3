package bootstrap

import (
	"database/sql"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/benerin/benerin-api/config"
	"github.com/benerin/benerin-api/internal/adapters/memory"
	redisadapter "github.com/benerin/benerin-api/internal/adapters/redis"
	"github.com/benerin/benerin-api/internal/data"
	"github.com/benerin/benerin-api/internal/ports"
	"github.com/benerin/benerin-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth       *service.AuthService
	Guests     *service.GuestService
	ReturnURLs *service.ReturnURLCoordinator
	Catalog    *data.CatalogRepo
	Registry   *prometheus.Registry
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient // nil falls back to in-memory stores
	Logger      *slog.Logger
}

// BuildServices constructs the service container. Redis, when configured,
// backs the session, guest, and return-URL stores; otherwise everything
// stays in process memory.
func BuildServices(deps ServiceDeps) ServiceContainer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.AppConfig{}
		cfg.Sanitize()
	}

	registry := prometheus.NewRegistry()

	var guestStore ports.GuestStore
	var returnURLStore ports.ReturnURLStore
	if deps.RedisClient != nil {
		guestStore = redisadapter.NewGuestStore(deps.RedisClient, cfg.Guest.SessionTimeout)
		returnURLStore = redisadapter.NewReturnURLStore(deps.RedisClient)
	} else {
		guestStore = memory.NewGuestStore()
		returnURLStore = memory.NewReturnURLStore()
	}

	guests := service.NewGuestService(service.GuestServiceOptions{
		Store:    guestStore,
		Policy:   cfg.Guest.PromptPolicy(),
		Timeout:  cfg.Guest.SessionTimeout,
		Logger:   logger,
		Registry: registry,
	})

	returnURLs := service.NewReturnURLCoordinator(service.ReturnURLCoordinatorOptions{
		Store:  returnURLStore,
		Origin: cfg.HTTP.BaseURL,
		Logger: logger,
	})

	auth := BuildAuthService(AuthStackConfig{
		Auth:        cfg.Auth,
		DB:          deps.DB,
		RedisClient: deps.RedisClient,
		Guests:      guests,
		Logger:      logger,
	})

	var catalog *data.CatalogRepo
	if deps.DB != nil {
		catalog = data.NewCatalogRepo(deps.DB)
	}

	return ServiceContainer{
		Auth:       auth,
		Guests:     guests,
		ReturnURLs: returnURLs,
		Catalog:    catalog,
		Registry:   registry,
	}
}
