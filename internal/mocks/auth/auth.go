// Package auth contains hand-written test doubles for the auth ports.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
	"github.com/benerin/benerin-api/internal/domain/guest"
	"github.com/benerin/benerin-api/internal/ports"
)

var (
	_ ports.CredentialBackend = (*MockCredentialBackend)(nil)
	_ ports.AuthProvider      = (*MockAuthProvider)(nil)
	_ ports.GuestStore        = FailingGuestStore{}
)

// ErrInvalidCredentials is returned by the mock backend on a bad password.
// It aliases the port contract so errors.Is matches across layers.
var ErrInvalidCredentials = ports.ErrInvalidCredentials

type account struct {
	password string
	identity domainauth.Identity
}

// MockCredentialBackend simulates the account store for tests. Registered
// accounts are kept in memory; per-method hooks override behavior when set.
type MockCredentialBackend struct {
	LoginFunc            func(ctx context.Context, creds ports.Credentials) (domainauth.Identity, error)
	RegisterCustomerFunc func(ctx context.Context, reg ports.CustomerRegistration) (domainauth.Identity, error)
	RegisterMitraFunc    func(ctx context.Context, reg ports.MitraRegistration) (domainauth.Identity, error)

	// SessionDuration controls the expiry on returned identities (default 1h).
	SessionDuration time.Duration

	mu       sync.Mutex
	accounts map[string]account
	nextID   int
}

// NewMockCredentialBackend creates an empty mock backend.
func NewMockCredentialBackend() *MockCredentialBackend {
	return &MockCredentialBackend{accounts: make(map[string]account)}
}

func (m *MockCredentialBackend) expiry() time.Time {
	d := m.SessionDuration
	if d == 0 {
		d = time.Hour
	}
	return time.Now().Add(d)
}

// Seed registers an account with the given identity and password.
func (m *MockCredentialBackend) Seed(identity domainauth.Identity, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[strings.ToLower(identity.Email)] = account{password: password, identity: identity}
}

func (m *MockCredentialBackend) Login(ctx context.Context, creds ports.Credentials) (domainauth.Identity, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[strings.ToLower(creds.Email)]
	if !ok || acct.password != creds.Password {
		return domainauth.Identity{}, ErrInvalidCredentials
	}
	identity := acct.identity
	identity.ExpiresAt = m.expiry()
	return identity, nil
}

func (m *MockCredentialBackend) RegisterCustomer(ctx context.Context, reg ports.CustomerRegistration) (domainauth.Identity, error) {
	if m.RegisterCustomerFunc != nil {
		return m.RegisterCustomerFunc(ctx, reg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(reg.Email)
	if _, exists := m.accounts[key]; exists {
		return domainauth.Identity{}, ports.ErrEmailExists
	}
	m.nextID++
	identity := domainauth.Identity{
		UserID:    fmt.Sprintf("customer-%d", m.nextID),
		Email:     reg.Email,
		Name:      reg.Name,
		Role:      domainauth.RoleCustomer,
		ExpiresAt: m.expiry(),
	}
	m.accounts[key] = account{password: reg.Password, identity: identity}
	return identity, nil
}

func (m *MockCredentialBackend) RegisterMitra(ctx context.Context, reg ports.MitraRegistration) (domainauth.Identity, error) {
	if m.RegisterMitraFunc != nil {
		return m.RegisterMitraFunc(ctx, reg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(reg.Email)
	if _, exists := m.accounts[key]; exists {
		return domainauth.Identity{}, ports.ErrEmailExists
	}
	m.nextID++
	identity := domainauth.Identity{
		UserID:             fmt.Sprintf("mitra-%d", m.nextID),
		Email:              reg.Email,
		Name:               reg.BusinessName,
		Role:               domainauth.RoleMitra,
		VerificationStatus: domainauth.VerificationPending,
		IsActive:           true,
		ExpiresAt:          m.expiry(),
	}
	m.accounts[key] = account{password: reg.Password, identity: identity}
	return identity, nil
}

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: domainauth.Identity{
			UserID:    "mock-user-1",
			Email:     "mock.user@example.com",
			Name:      "Mock User",
			Groups:    []string{"customers"},
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	state := fmt.Sprintf("%s-%d", m.StatePrefix, m.callCount)
	nonce := fmt.Sprintf("%s-%d", m.NoncePrefix, m.callCount)
	return m.AuthURL, state, nonce, nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	user := m.DefaultUser
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// FailingGuestStore returns Err from every method; for exercising the
// swallow-storage-errors contract.
type FailingGuestStore struct {
	Err error
}

func (f FailingGuestStore) failure() error {
	if f.Err != nil {
		return f.Err
	}
	return errors.New("storage unavailable")
}

func (f FailingGuestStore) Get(context.Context, string) (guest.Session, error) {
	return guest.Session{}, f.failure()
}
func (f FailingGuestStore) Save(context.Context, guest.Session) error { return f.failure() }
func (f FailingGuestStore) Delete(context.Context, string) error      { return f.failure() }
