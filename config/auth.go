package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode selects the authentication provider wiring.
type AuthMode string

const (
	// AuthModePassword uses the PostgreSQL credential backend only.
	AuthModePassword AuthMode = "password"
	// AuthModeOAuth adds OIDC single sign-on alongside password login.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses the dev auth provider (development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "password", "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: password, oauth, mock)", v)
	}
}

// OAuthConfig contains OIDC single sign-on configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"benerin"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:""`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	IssuerURL    string `env:"ISSUER_URL"`
}

// DevAuthConfig controls the mock identity used when AUTH_MODE=mock.
type DevAuthConfig struct {
	UserID string   `env:"USER_ID" envDefault:"dev-user"`
	Email  string   `env:"EMAIL"   envDefault:"dev@example.com"`
	Name   string   `env:"NAME"    envDefault:"Dev User"`
	Groups []string `env:"GROUPS"  envDefault:"benerin-customers" envSeparator:";"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"password"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// MitraGroup is the IdP group claim mapped to the mitra role.
	MitraGroup string `env:"MITRA_GROUP" envDefault:"benerin-mitras"`

	// CustomerGroup is the IdP group claim mapped to the customer role.
	CustomerGroup string `env:"CUSTOMER_GROUP" envDefault:"benerin-customers"`

	// SessionTTL caps how long a credential session stays valid.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}
