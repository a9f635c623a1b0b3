package bootstrap

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/benerin/benerin-api/config"
	"github.com/benerin/benerin-api/internal/adapters/authroles"
	"github.com/benerin/benerin-api/internal/adapters/devauth"
	"github.com/benerin/benerin-api/internal/adapters/memory"
	"github.com/benerin/benerin-api/internal/adapters/oidc"
	redisadapter "github.com/benerin/benerin-api/internal/adapters/redis"
	"github.com/benerin/benerin-api/internal/data"
	mockauth "github.com/benerin/benerin-api/internal/mocks/auth"
	"github.com/benerin/benerin-api/internal/ports"
	"github.com/benerin/benerin-api/internal/service"
)

// AuthStackConfig contains configuration for the auth service.
type AuthStackConfig struct {
	Auth        config.AuthConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient // nil falls back to in-memory sessions
	Guests      *service.GuestService
	Logger      *slog.Logger
}

// BuildAuthService assembles the auth service for the configured mode.
// Password login always works when a database is present; oauth mode adds an
// OIDC provider on top, and mock mode swaps in local dev stand-ins.
func BuildAuthService(cfg AuthStackConfig) *service.AuthService {
	roleMapper := authroles.StaticRoleMapper{
		MitraGroup:    cfg.Auth.MitraGroup,
		CustomerGroup: cfg.Auth.CustomerGroup,
	}

	var sessions ports.SessionStore
	if cfg.RedisClient != nil {
		sessions = redisadapter.NewSessionStore(cfg.RedisClient)
	} else {
		sessions = memory.NewSessionStore()
	}

	backend, provider := buildBackendAndProvider(cfg)
	if backend == nil && provider == nil {
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Backend:    backend,
		Provider:   provider,
		Sessions:   sessions,
		Roles:      roleMapper,
		Guests:     cfg.Guests,
		Logger:     cfg.Logger,
		SessionTTL: cfg.Auth.SessionTTL,
	})
}

func buildBackendAndProvider(cfg AuthStackConfig) (ports.CredentialBackend, ports.AuthProvider) {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		return mockauth.NewMockCredentialBackend(), buildDevProvider(cfg)

	case config.AuthModeOAuth:
		return buildPasswordBackend(cfg), buildOIDCProvider(cfg)

	default: // password
		return buildPasswordBackend(cfg), nil
	}
}

func buildPasswordBackend(cfg AuthStackConfig) ports.CredentialBackend {
	if cfg.DB == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("password login disabled: database not configured", "mode", cfg.Auth.Mode)
		}
		return nil
	}
	return data.NewUserRepo(cfg.DB)
}

func buildDevProvider(cfg AuthStackConfig) ports.AuthProvider {
	prov, err := devauth.NewProvider(devauth.Config{
		UserID: cfg.Auth.DevAuth.UserID,
		Email:  cfg.Auth.DevAuth.Email,
		Name:   cfg.Auth.DevAuth.Name,
		Groups: cfg.Auth.DevAuth.Groups,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create dev auth provider", "error", err)
		}
		return nil
	}
	return prov
}

func buildOIDCProvider(cfg AuthStackConfig) ports.AuthProvider {
	oauth := cfg.Auth.OAuth
	if oauth.IssuerURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		if cfg.Logger != nil {
			cfg.Logger.Warn("AuthModeOAuth selected but required config missing; sso disabled",
				"issuer_url_empty", oauth.IssuerURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
		}
		return nil
	}

	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		IssuerURL:    oauth.IssuerURL,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create OIDC provider, sso disabled", "error", err)
		}
		return nil
	}
	return prov
}
