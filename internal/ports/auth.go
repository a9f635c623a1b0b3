// Package ports defines interfaces for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"
	"errors"

	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
)

// Contract errors returned by CredentialBackend implementations. Callers
// match them with errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already registered")
)

// Credentials carries a password login attempt.
type Credentials struct {
	Email    string
	Password string
}

// CustomerRegistration carries inputs for creating a customer account.
type CustomerRegistration struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// MitraRegistration carries inputs for creating a mitra (vendor partner)
// account. New mitras start in verification_status=pending.
type MitraRegistration struct {
	Email        string
	Password     string
	BusinessName string
	Phone        string
	Address      string
}

// CredentialBackend verifies credentials and manages account records.
// It knows nothing about sessions; the auth service owns those.
type CredentialBackend interface {
	// Login verifies the credentials and returns the account identity.
	Login(ctx context.Context, creds Credentials) (domainauth.Identity, error)

	// RegisterCustomer creates a customer account and returns its identity.
	RegisterCustomer(ctx context.Context, reg CustomerRegistration) (domainauth.Identity, error)

	// RegisterMitra creates a mitra account pending verification and returns
	// its identity.
	RegisterMitra(ctx context.Context, reg MitraRegistration) (domainauth.Identity, error)
}

// BeginInput carries inputs for initiating an SSO auth flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the SSO code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
// Used for the SSO login mode; password logins go through CredentialBackend.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// SessionStore persists and retrieves credential sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleMapper maps IdP groups to an application role. Password registrations
// carry their role directly; this is for SSO identities only.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}

// SessionEventType tags out-of-band session notifications.
type SessionEventType string

const (
	SessionSignedIn  SessionEventType = "SIGNED_IN"
	SessionSignedOut SessionEventType = "SIGNED_OUT"
)

// SessionEvent is an out-of-band notification that a credential session was
// established or died (e.g., revoked by the backend, external provider
// callback settled).
type SessionEvent struct {
	Type      SessionEventType
	SessionID string
}
