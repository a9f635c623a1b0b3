package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benerin/benerin-api/internal/adapters/memory"
	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
	"github.com/benerin/benerin-api/internal/domain/guest"
	mocks "github.com/benerin/benerin-api/internal/mocks/auth"
	"github.com/benerin/benerin-api/internal/ports"
)

// machineFixture bundles a state machine with the stores behind it so tests
// can assert on side effects.
type machineFixture struct {
	machine    *AuthStateMachine
	backend    *mocks.MockCredentialBackend
	sessions   *memory.SessionStore
	guestStore *memory.GuestStore
	guests     *GuestService
	returnURLs *ReturnURLCoordinator
	urlStore   *memory.ReturnURLStore
}

func newMachineFixture(t *testing.T) *machineFixture {
	t.Helper()

	backend := mocks.NewMockCredentialBackend()
	seedCustomer(backend)

	sessions := memory.NewSessionStore()
	guestStore := memory.NewGuestStore()
	urlStore := memory.NewReturnURLStore()

	guests := NewGuestService(GuestServiceOptions{Store: guestStore})
	returnURLs := NewReturnURLCoordinator(ReturnURLCoordinatorOptions{
		Store:  urlStore,
		Origin: "https://benerin.example",
	})
	auth := NewAuthService(AuthServiceOptions{
		Backend:  backend,
		Sessions: sessions,
		Guests:   guests,
	})

	return &machineFixture{
		machine: NewAuthStateMachine(AuthStateMachineOptions{
			Auth:       auth,
			Guests:     guests,
			ReturnURLs: returnURLs,
			VisitorKey: "visitor-1",
		}),
		backend:    backend,
		sessions:   sessions,
		guestStore: guestStore,
		guests:     guests,
		returnURLs: returnURLs,
		urlStore:   urlStore,
	}
}

func loginCreds() ports.Credentials {
	return ports.Credentials{Email: "ani@example.com", Password: "rahasia123"}
}

func guestSessionNamed(id string) guest.Session {
	return guest.NewSession(id, time.Now())
}

func TestAuthStateMachine_StartsIdle(t *testing.T) {
	fx := newMachineFixture(t)

	snap := fx.machine.Snapshot()
	assert.Equal(t, domainauth.PhaseIdle, snap.Phase)
	assert.False(t, snap.IsAuthenticated())
}

func TestAuthStateMachine_Start_NoSessionSettlesGuest(t *testing.T) {
	fx := newMachineFixture(t)

	fx.machine.Start(context.Background())

	snap := fx.machine.Snapshot()
	assert.Equal(t, domainauth.PhaseReady, snap.Phase)
	assert.False(t, snap.IsAuthenticated())
	assert.Equal(t, domainauth.RoleGuest, snap.Role())
}

func TestAuthStateMachine_Start_RestoresSession(t *testing.T) {
	fx := newMachineFixture(t)
	ctx := context.Background()

	stored := domainauth.Session{
		ID:        "sess-1",
		UserID:    "customer-7",
		Email:     "ani@example.com",
		Role:      domainauth.RoleCustomer,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, fx.sessions.Save(ctx, stored))

	machine := NewAuthStateMachine(AuthStateMachineOptions{
		Auth:      NewAuthService(AuthServiceOptions{Sessions: fx.sessions}),
		SessionID: "sess-1",
	})
	machine.Start(ctx)

	snap := machine.Snapshot()
	assert.Equal(t, domainauth.PhaseReady, snap.Phase)
	assert.True(t, snap.IsAuthenticated())
	assert.Equal(t, domainauth.RoleCustomer, snap.Role())
	assert.Equal(t, "sess-1", machine.SessionID())
}

func TestAuthStateMachine_Start_ExpiredSessionSettlesGuest(t *testing.T) {
	fx := newMachineFixture(t)
	ctx := context.Background()

	expired := domainauth.Session{
		ID:        "sess-old",
		UserID:    "customer-7",
		Role:      domainauth.RoleCustomer,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, fx.sessions.Save(ctx, expired))

	machine := NewAuthStateMachine(AuthStateMachineOptions{
		Auth:      NewAuthService(AuthServiceOptions{Sessions: fx.sessions}),
		SessionID: "sess-old",
	})
	machine.Start(ctx)

	snap := machine.Snapshot()
	assert.Equal(t, domainauth.PhaseReady, snap.Phase)
	assert.False(t, snap.IsAuthenticated())
}

func TestAuthStateMachine_Login_Success(t *testing.T) {
	fx := newMachineFixture(t)
	ctx := context.Background()
	fx.machine.Start(ctx)

	outcome, err := fx.machine.Login(ctx, loginCreds())

	require.NoError(t, err)
	assert.Equal(t, "/", outcome.RedirectTo)

	snap := fx.machine.Snapshot()
	assert.Equal(t, domainauth.PhaseReady, snap.Phase)
	assert.True(t, snap.IsAuthenticated())
	assert.Equal(t, domainauth.RoleCustomer, snap.Role())
	assert.Equal(t, outcome.Session.ID, fx.machine.SessionID())
}

func TestAuthStateMachine_Login_ConsumesReturnURL(t *testing.T) {
	fx := newMachineFixture(t)
	ctx := context.Background()
	fx.machine.Start(ctx)

	fx.returnURLs.Save(ctx, "visitor-1", "/layanan/svc-ac-repair")

	outcome, err := fx.machine.Login(ctx, loginCreds())
	require.NoError(t, err)
	assert.Equal(t, "/layanan/svc-ac-repair", outcome.RedirectTo)

	// Consumed: a second sign-in would fall back to the role home.
	_, err = fx.urlStore.Get(ctx, "visitor-1")
	assert.ErrorIs(t, err, memory.ErrNotFound)
}

func TestAuthStateMachine_Login_ClearsGuestSession(t *testing.T) {
	fx := newMachineFixture(t)
	ctx := context.Background()
	fx.machine.Start(ctx)

	// The visitor key doubles as the guest session id.
	require.NoError(t, fx.guestStore.Save(ctx, guestSessionNamed("visitor-1")))

	_, err := fx.machine.Login(ctx, loginCreds())
	require.NoError(t, err)

	_, err = fx.guestStore.Get(ctx, "visitor-1")
	assert.ErrorIs(t, err, memory.ErrNotFound)
}

func TestAuthStateMachine_Login_FailureKeepsPriorState(t *testing.T) {
	fx := newMachineFixture(t)
	ctx := context.Background()
	fx.machine.Start(ctx)

	require.NoError(t, fx.guestStore.Save(ctx, guestSessionNamed("visitor-1")))
	fx.returnURLs.Save(ctx, "visitor-1", "/layanan/svc-1")

	outcome, err := fx.machine.Login(ctx, ports.Credentials{
		Email:    "ani@example.com",
		Password: "salah",
	})

	require.Error(t, err)
	assert.Nil(t, outcome)

	var authErr *domainauth.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "login", authErr.Op)
	assert.ErrorIs(t, err, mocks.ErrInvalidCredentials)

	snap := fx.machine.Snapshot()
	assert.Equal(t, domainauth.PhaseError, snap.Phase)
	assert.NotEmpty(t, snap.ErrMessage)
	assert.False(t, snap.IsAuthenticated(), "principal holds its pre-call value")

	// Neither the analytics record nor the pending destination is lost.
	_, err = fx.guestStore.Get(ctx, "visitor-1")
	assert.NoError(t, err)
	raw, err := fx.urlStore.Get(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Equal(t, "/layanan/svc-1", raw)

	// And the visitor can simply try again.
	_, err = fx.machine.Login(ctx, loginCreds())
	require.NoError(t, err)
	assert.Equal(t, domainauth.PhaseReady, fx.machine.Snapshot().Phase)
}

func TestAuthStateMachine_RegisterMitra_RedirectsToDashboard(t *testing.T) {
	fx := newMachineFixture(t)
	ctx := context.Background()
	fx.machine.Start(ctx)

	outcome, err := fx.machine.RegisterMitra(ctx, ports.MitraRegistration{
		Email:        "bengkel@example.com",
		Password:     "rahasia123",
		BusinessName: "Bengkel Jaya",
	})

	require.NoError(t, err)
	assert.Equal(t, "/mitra", outcome.RedirectTo)

	snap := fx.machine.Snapshot()
	assert.True(t, snap.IsMitraPending())
	assert.False(t, snap.IsMitraApproved())
}

func TestAuthStateMachine_OverlappingOperationsRefused(t *testing.T) {
	fx := newMachineFixture(t)
	ctx := context.Background()
	fx.machine.Start(ctx)

	entered := make(chan struct{})
	release := make(chan struct{})
	fx.backend.LoginFunc = func(context.Context, ports.Credentials) (domainauth.Identity, error) {
		close(entered)
		<-release
		return domainauth.Identity{}, errors.New("aborted")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = fx.machine.Login(ctx, loginCreds())
	}()
	<-entered

	// While login settles, the machine reports Loading with the prior
	// principal and refuses further mutations.
	snap := fx.machine.Snapshot()
	assert.Equal(t, domainauth.PhaseLoading, snap.Phase)
	assert.False(t, snap.IsAuthenticated())

	_, err := fx.machine.Login(ctx, loginCreds())
	assert.ErrorIs(t, err, ErrOperationInFlight)
	_, err = fx.machine.RegisterCustomer(ctx, ports.CustomerRegistration{
		Email:    "budi@example.com",
		Password: "rahasia123",
	})
	assert.ErrorIs(t, err, ErrOperationInFlight)
	err = fx.machine.Logout(ctx)
	assert.ErrorIs(t, err, ErrOperationInFlight)

	close(release)
	<-done
}

func TestAuthStateMachine_LoadingPreservesAuthenticatedPrincipal(t *testing.T) {
	fx := newMachineFixture(t)
	ctx := context.Background()
	fx.machine.Start(ctx)

	_, err := fx.machine.Login(ctx, loginCreds())
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	fx.backend.LoginFunc = func(context.Context, ports.Credentials) (domainauth.Identity, error) {
		close(entered)
		<-release
		return domainauth.Identity{}, errors.New("aborted")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = fx.machine.Login(ctx, loginCreds())
	}()
	<-entered

	// No flicker to guest while the second operation is in flight.
	snap := fx.machine.Snapshot()
	assert.Equal(t, domainauth.PhaseLoading, snap.Phase)
	assert.True(t, snap.IsAuthenticated())

	close(release)
	<-done
}

func TestAuthStateMachine_Logout_Success(t *testing.T) {
	fx := newMachineFixture(t)
	ctx := context.Background()
	fx.machine.Start(ctx)

	outcome, err := fx.machine.Login(ctx, loginCreds())
	require.NoError(t, err)

	require.NoError(t, fx.machine.Logout(ctx))

	snap := fx.machine.Snapshot()
	assert.Equal(t, domainauth.PhaseReady, snap.Phase)
	assert.False(t, snap.IsAuthenticated())
	assert.Empty(t, fx.machine.SessionID())

	_, err = fx.sessions.Get(ctx, outcome.Session.ID)
	assert.ErrorIs(t, err, memory.ErrNotFound)
}

func TestAuthStateMachine_Logout_SecondCallDuringFlightIsNoop(t *testing.T) {
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	auth := NewAuthService(AuthServiceOptions{
		Sessions: &mockSessionStore{
			deleteFunc: func(context.Context, string) error {
				close(entered)
				<-release
				return nil
			},
		},
	})
	machine := NewAuthStateMachine(AuthStateMachineOptions{Auth: auth, SessionID: "sess-1"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = machine.Logout(ctx)
	}()
	<-entered

	// The second logout neither blocks nor errors.
	assert.NoError(t, machine.Logout(ctx))

	close(release)
	<-done
	assert.False(t, machine.Snapshot().IsAuthenticated())
}

func TestAuthStateMachine_Logout_FailureIsRetryable(t *testing.T) {
	ctx := context.Background()

	calls := 0
	sessions := &mockSessionStore{
		getFunc: func(context.Context, string) (domainauth.Session, error) {
			return domainauth.Session{
				ID:        "sess-1",
				UserID:    "customer-7",
				Role:      domainauth.RoleCustomer,
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
		deleteFunc: func(context.Context, string) error {
			calls++
			if calls == 1 {
				return errors.New("redis down")
			}
			return nil
		},
	}

	machine := NewAuthStateMachine(AuthStateMachineOptions{
		Auth:      NewAuthService(AuthServiceOptions{Sessions: sessions}),
		SessionID: "sess-1",
	})
	machine.Start(ctx)
	require.True(t, machine.Snapshot().IsAuthenticated())

	err := machine.Logout(ctx)
	require.Error(t, err)

	var authErr *domainauth.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "logout", authErr.Op)

	// The visitor is told the logout did not complete; their session stands.
	snap := machine.Snapshot()
	assert.Equal(t, domainauth.PhaseError, snap.Phase)
	assert.True(t, snap.IsAuthenticated())

	// Retrying completes the teardown.
	require.NoError(t, machine.Logout(ctx))
	assert.False(t, machine.Snapshot().IsAuthenticated())
}

func TestAuthStateMachine_AdoptSession(t *testing.T) {
	fx := newMachineFixture(t)
	ctx := context.Background()
	fx.machine.Start(ctx)

	stored := domainauth.Session{
		ID:        "sess-sso",
		UserID:    "customer-9",
		Role:      domainauth.RoleCustomer,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, fx.sessions.Save(ctx, stored))

	require.NoError(t, fx.machine.AdoptSession(ctx, "sess-sso"))

	snap := fx.machine.Snapshot()
	assert.True(t, snap.IsAuthenticated())
	assert.Equal(t, "sess-sso", fx.machine.SessionID())
}

func TestAuthStateMachine_Refresh_DeadSessionSettlesGuest(t *testing.T) {
	fx := newMachineFixture(t)
	ctx := context.Background()
	fx.machine.Start(ctx)

	outcome, err := fx.machine.Login(ctx, loginCreds())
	require.NoError(t, err)

	// The session dies out of band (revoked server side).
	require.NoError(t, fx.sessions.Delete(ctx, outcome.Session.ID))

	require.NoError(t, fx.machine.Refresh(ctx))
	assert.False(t, fx.machine.Snapshot().IsAuthenticated())
}

func TestAuthStateMachine_HandleSessionEvent_SignedOut(t *testing.T) {
	fx := newMachineFixture(t)
	ctx := context.Background()
	fx.machine.Start(ctx)
	_, err := fx.machine.Login(ctx, loginCreds())
	require.NoError(t, err)

	ch, unsubscribe := fx.machine.Subscribe()
	defer unsubscribe()

	fx.machine.HandleSessionEvent(ctx, ports.SessionEvent{Type: ports.SessionSignedOut})

	// Straight to Ready(guest): no Loading detour for a forced invalidation.
	snap := <-ch
	assert.Equal(t, domainauth.PhaseReady, snap.Phase)
	assert.False(t, snap.IsAuthenticated())
}

func TestAuthStateMachine_HandleSessionEvent_SignedIn(t *testing.T) {
	fx := newMachineFixture(t)
	ctx := context.Background()
	fx.machine.Start(ctx)

	stored := domainauth.Session{
		ID:        "sess-other-tab",
		UserID:    "customer-7",
		Role:      domainauth.RoleCustomer,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, fx.sessions.Save(ctx, stored))

	fx.machine.HandleSessionEvent(ctx, ports.SessionEvent{
		Type:      ports.SessionSignedIn,
		SessionID: "sess-other-tab",
	})

	assert.True(t, fx.machine.Snapshot().IsAuthenticated())
}

func TestAuthStateMachine_Subscribe_LatestWins(t *testing.T) {
	fx := newMachineFixture(t)
	ctx := context.Background()

	ch, unsubscribe := fx.machine.Subscribe()
	defer unsubscribe()

	// Two transitions with no read in between: the slot keeps the newest.
	fx.machine.Start(ctx)
	_, err := fx.machine.Login(ctx, loginCreds())
	require.NoError(t, err)

	snap := <-ch
	assert.Equal(t, domainauth.PhaseReady, snap.Phase)
	assert.True(t, snap.IsAuthenticated())

	select {
	case extra := <-ch:
		t.Fatalf("expected a single buffered snapshot, got %+v", extra)
	default:
	}
}

func TestAuthStateMachine_Unsubscribe(t *testing.T) {
	fx := newMachineFixture(t)
	ctx := context.Background()

	ch, unsubscribe := fx.machine.Subscribe()
	unsubscribe()

	fx.machine.Start(ctx)

	select {
	case snap := <-ch:
		t.Fatalf("unsubscribed channel received %+v", snap)
	default:
	}
}
