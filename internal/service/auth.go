package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
	"github.com/benerin/benerin-api/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Backend  ports.CredentialBackend // password logins and registrations
	Provider ports.AuthProvider      // SSO flow, optional
	Sessions ports.SessionStore
	Roles    ports.RoleMapper // maps SSO group claims, optional
	Guests   *GuestService    // cleared after sign-in, optional
	Logger   *slog.Logger

	// SessionTTL caps credential sessions created from password flows.
	// Defaults to 24h when zero.
	SessionTTL time.Duration
}

// AuthService orchestrates authentication flows: it verifies credentials or
// completes SSO exchanges, persists an opaque server-side session, and clears
// the visitor's guest analytics session once sign-in has settled.
type AuthService struct {
	backend    ports.CredentialBackend
	provider   ports.AuthProvider
	sessions   ports.SessionStore
	roles      ports.RoleMapper
	guests     *GuestService
	logger     *slog.Logger
	sessionTTL time.Duration
}

var (
	errSessionExpired = errors.New("session expired")

	// ErrSSONotConfigured is returned from the SSO entry points when no
	// provider was wired at bootstrap.
	ErrSSONotConfigured = errors.New("sso provider not configured")

	// ErrMissingFields wraps input validation failures on the sign-in and
	// registration flows.
	ErrMissingFields = errors.New("missing required fields")
)

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.SessionTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		backend:    opts.Backend,
		provider:   opts.Provider,
		sessions:   opts.Sessions,
		roles:      opts.Roles,
		guests:     opts.Guests,
		logger:     logger,
		sessionTTL: ttl,
	}
}

// SignInResult contains the settled session.
type SignInResult struct {
	Session domainauth.Session
}

// SignInInput groups parameters shared by the credential flows.
// GuestSessionID, when set, names the anonymous analytics session to clear
// once the sign-in has settled.
type SignInInput struct {
	GuestSessionID string
}

// Login verifies password credentials and establishes a session.
// On failure the caller's prior session, if any, is untouched.
func (s *AuthService) Login(ctx context.Context, creds ports.Credentials, in SignInInput) (*SignInResult, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrMissingFields)
	}

	identity, err := s.backend.Login(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	return s.establishSession(ctx, identity, in)
}

// RegisterCustomer creates a customer account and signs it in.
func (s *AuthService) RegisterCustomer(ctx context.Context, reg ports.CustomerRegistration, in SignInInput) (*SignInResult, error) {
	if reg.Email == "" || reg.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrMissingFields)
	}

	identity, err := s.backend.RegisterCustomer(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("register customer: %w", err)
	}

	return s.establishSession(ctx, identity, in)
}

// RegisterMitra creates a mitra account (verification pending) and signs it in.
func (s *AuthService) RegisterMitra(ctx context.Context, reg ports.MitraRegistration, in SignInInput) (*SignInResult, error) {
	if reg.Email == "" || reg.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrMissingFields)
	}
	if reg.BusinessName == "" {
		return nil, fmt.Errorf("%w: business name is required", ErrMissingFields)
	}

	identity, err := s.backend.RegisterMitra(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("register mitra: %w", err)
	}

	return s.establishSession(ctx, identity, in)
}

// establishSession persists a session for the identity, then clears the guest
// analytics session. Order matters: the guest record survives until sign-in
// has fully settled, so a failed login never loses analytics.
func (s *AuthService) establishSession(ctx context.Context, identity domainauth.Identity, in SignInInput) (*SignInResult, error) {
	session := s.sessionFromIdentity(identity)
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	if s.guests != nil && in.GuestSessionID != "" {
		s.guests.ClearSession(ctx, in.GuestSessionID)
	}

	return &SignInResult{Session: session}, nil
}

func (s *AuthService) sessionFromIdentity(identity domainauth.Identity) domainauth.Session {
	expiresAt := identity.ExpiresAt
	if expiresAt.IsZero() || time.Until(expiresAt) > s.sessionTTL {
		expiresAt = time.Now().Add(s.sessionTTL)
	}

	role := identity.Role
	if !role.Valid() || role == domainauth.RoleGuest {
		// SSO identities carry group claims instead of a role.
		if s.roles != nil {
			role = s.roles.Map(identity.Groups)
		}
	}

	return domainauth.Session{
		ID:                 generateSessionID(),
		UserID:             identity.UserID,
		Email:              identity.Email,
		Name:               identity.Name,
		Role:               role,
		VerificationStatus: identity.VerificationStatus,
		IsActive:           identity.IsActive,
		ExpiresAt:          expiresAt,
	}
}

// GetSession retrieves a session by ID, pruning it when expired.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}

	return &session, nil
}

// Logout removes a session. Removing an absent session is not an error, so
// logout is idempotent and safely retryable.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to logout
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	return uuid.New().String()
}
