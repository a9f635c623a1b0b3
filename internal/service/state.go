package service

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
	"github.com/benerin/benerin-api/internal/ports"
)

// ErrOperationInFlight is returned when a mutating auth operation is issued
// while another is still settling. Exclusion is advisory: there is no request
// cancellation, so overlapping calls are refused rather than queued to avoid
// torn state.
var ErrOperationInFlight = errors.New("auth operation already in flight")

// AuthSnapshot is the read-only view of the state machine handed to
// subscribers and snapshot callers.
type AuthSnapshot struct {
	Phase     domainauth.Phase
	Principal domainauth.Principal
	// ErrMessage carries the failure description while Phase is PhaseError.
	ErrMessage string
}

// IsAuthenticated reports whether the snapshot's principal is signed in.
func (s AuthSnapshot) IsAuthenticated() bool { return s.Principal.IsAuthenticated() }

// Role returns the snapshot's coarse role.
func (s AuthSnapshot) Role() domainauth.Role { return s.Principal.Role() }

// IsMitraApproved reports whether the principal is a verified, active mitra.
func (s AuthSnapshot) IsMitraApproved() bool { return s.Principal.IsMitraApproved() }

// IsMitraPending reports whether the principal is a mitra under review.
func (s AuthSnapshot) IsMitraPending() bool { return s.Principal.IsMitraPending() }

// AuthStateMachineOptions groups dependencies for AuthStateMachine.
type AuthStateMachineOptions struct {
	Auth       *AuthService
	Guests     *GuestService         // optional
	ReturnURLs *ReturnURLCoordinator // optional

	// VisitorKey identifies the anonymous visitor for the guest analytics
	// record and the pending return-URL slot.
	VisitorKey string
	// SessionID restores an existing credential session on Start.
	SessionID string
}

// AuthStateMachine tracks one visitor's authentication lifecycle:
//
//	Idle -> Loading -> Ready(principal) | Error
//
// Transitions are serialized; while Loading the principal holds its prior
// settled value so consumers never observe a flicker to guest during a
// refresh. Mutating operations refuse to overlap (ErrOperationInFlight),
// except a second Logout which is a no-op, and Refresh calls coalesce.
// The machine never navigates: sign-in outcomes carry the post-auth
// destination and the caller redirects.
type AuthStateMachine struct {
	auth       *AuthService
	guests     *GuestService
	returnURLs *ReturnURLCoordinator
	visitorKey string

	mu        sync.Mutex
	phase     domainauth.Phase
	principal domainauth.Principal
	errMsg    string
	sessionID string
	inflight  string // name of the settling operation, "" when none

	subMu  sync.Mutex
	subs   map[int]chan AuthSnapshot
	nextID int

	refresh singleflight.Group
}

// NewAuthStateMachine constructs a machine in PhaseIdle.
func NewAuthStateMachine(opts AuthStateMachineOptions) *AuthStateMachine {
	return &AuthStateMachine{
		auth:       opts.Auth,
		guests:     opts.Guests,
		returnURLs: opts.ReturnURLs,
		visitorKey: opts.VisitorKey,
		sessionID:  opts.SessionID,
		phase:      domainauth.PhaseIdle,
		principal:  domainauth.GuestPrincipal(),
		subs:       make(map[int]chan AuthSnapshot),
	}
}

// Snapshot returns the current state.
func (m *AuthStateMachine) Snapshot() AuthSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return AuthSnapshot{Phase: m.phase, Principal: m.principal, ErrMessage: m.errMsg}
}

// SessionID returns the credential session the machine is bound to, if any.
func (m *AuthStateMachine) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Subscribe registers for state change notifications. The channel holds the
// latest snapshot only; slow consumers see the most recent transition, not
// every intermediate one. The returned func unsubscribes.
func (m *AuthStateMachine) Subscribe() (<-chan AuthSnapshot, func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	id := m.nextID
	m.nextID++
	ch := make(chan AuthSnapshot, 1)
	m.subs[id] = ch
	return ch, func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subs, id)
	}
}

func (m *AuthStateMachine) notify(snap AuthSnapshot) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		// Latest-wins: drop a stale pending snapshot rather than block.
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// setLoading enters Loading, keeping the prior settled principal.
func (m *AuthStateMachine) setLoading(op string) {
	m.mu.Lock()
	m.phase = domainauth.PhaseLoading
	m.errMsg = ""
	m.inflight = op
	snap := AuthSnapshot{Phase: m.phase, Principal: m.principal}
	m.mu.Unlock()
	m.notify(snap)
}

func (m *AuthStateMachine) setReady(p domainauth.Principal, sessionID string) {
	m.mu.Lock()
	m.phase = domainauth.PhaseReady
	m.principal = p
	m.sessionID = sessionID
	m.errMsg = ""
	m.inflight = ""
	snap := AuthSnapshot{Phase: m.phase, Principal: m.principal}
	m.mu.Unlock()
	m.notify(snap)
}

// settle moves to Ready without touching the in-flight marker. Used by
// Refresh and forced invalidation, which run alongside whatever operation may
// be settling.
func (m *AuthStateMachine) settle(p domainauth.Principal, sessionID string) {
	m.mu.Lock()
	m.phase = domainauth.PhaseReady
	m.principal = p
	m.sessionID = sessionID
	m.errMsg = ""
	snap := AuthSnapshot{Phase: m.phase, Principal: m.principal}
	m.mu.Unlock()
	m.notify(snap)
}

// setError records a failure, leaving the principal at its pre-call value.
func (m *AuthStateMachine) setError(msg string) {
	m.mu.Lock()
	m.phase = domainauth.PhaseError
	m.errMsg = msg
	m.inflight = ""
	snap := AuthSnapshot{Phase: m.phase, Principal: m.principal, ErrMessage: msg}
	m.mu.Unlock()
	m.notify(snap)
}

// beginOp claims the in-flight slot for op. Returns false when another
// operation is settling.
func (m *AuthStateMachine) beginOp(op string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight != "" {
		return false
	}
	m.inflight = op
	return true
}

// Start restores the principal from the bound credential session, moving
// Idle -> Loading -> Ready. An absent or expired session settles as a guest.
func (m *AuthStateMachine) Start(ctx context.Context) {
	if !m.beginOp("start") {
		return
	}
	m.setLoading("start")

	sessionID := m.SessionID()
	if sessionID == "" {
		m.setReady(domainauth.GuestPrincipal(), "")
		return
	}
	session, err := m.auth.GetSession(ctx, sessionID)
	if err != nil {
		m.setReady(domainauth.GuestPrincipal(), "")
		return
	}
	m.setReady(session.Principal(), session.ID)
}

// SignInOutcome is the result of a successful login or registration.
type SignInOutcome struct {
	Session domainauth.Session
	// RedirectTo is the consumed return URL, or the role's home when none
	// was pending. The caller navigates; the machine does not.
	RedirectTo string
}

// Login verifies credentials and transitions to Ready(principal). On failure
// the machine enters PhaseError with the principal unchanged and the returned
// error is a *domainauth.AuthError.
func (m *AuthStateMachine) Login(ctx context.Context, creds ports.Credentials) (*SignInOutcome, error) {
	return m.signIn(ctx, "login", func() (*SignInResult, error) {
		return m.auth.Login(ctx, creds, SignInInput{})
	})
}

// RegisterCustomer creates a customer account and signs it in.
func (m *AuthStateMachine) RegisterCustomer(ctx context.Context, reg ports.CustomerRegistration) (*SignInOutcome, error) {
	return m.signIn(ctx, "register_customer", func() (*SignInResult, error) {
		return m.auth.RegisterCustomer(ctx, reg, SignInInput{})
	})
}

// RegisterMitra creates a mitra account (verification pending) and signs it in.
func (m *AuthStateMachine) RegisterMitra(ctx context.Context, reg ports.MitraRegistration) (*SignInOutcome, error) {
	return m.signIn(ctx, "register_mitra", func() (*SignInResult, error) {
		return m.auth.RegisterMitra(ctx, reg, SignInInput{})
	})
}

// signIn runs the shared Loading -> Ready|Error choreography for the three
// credential flows. Sequencing on success: Ready transition first, then guest
// session clear, then return-URL consumption. A failed sign-in must never
// cost the visitor their analytics record or pending destination.
func (m *AuthStateMachine) signIn(ctx context.Context, op string, fn func() (*SignInResult, error)) (*SignInOutcome, error) {
	if !m.beginOp(op) {
		return nil, ErrOperationInFlight
	}
	m.setLoading(op)

	result, err := fn()
	if err != nil {
		authErr := &domainauth.AuthError{Op: op, Message: err.Error(), Err: err}
		m.setError(authErr.Message)
		return nil, authErr
	}

	m.setReady(result.Session.Principal(), result.Session.ID)

	if m.guests != nil && m.visitorKey != "" {
		m.guests.ClearSession(ctx, m.visitorKey)
	}

	redirectTo := customerHomePath
	if result.Session.Role == domainauth.RoleMitra {
		redirectTo = mitraDashboardPath
	}
	if m.returnURLs != nil {
		redirectTo = m.returnURLs.ResolvePostAuthDestination(ctx, m.visitorKey, result.Session.Role)
	}

	return &SignInOutcome{Session: result.Session, RedirectTo: redirectTo}, nil
}

// Logout tears down the credential session. A second Logout issued while one
// is in flight is a no-op. On failure the principal is left unchanged so the
// caller can tell the logout did not complete, and the operation is safe
// to retry.
func (m *AuthStateMachine) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.inflight == "logout" {
		m.mu.Unlock()
		return nil
	}
	if m.inflight != "" {
		m.mu.Unlock()
		return ErrOperationInFlight
	}
	m.inflight = "logout"
	sessionID := m.sessionID
	m.mu.Unlock()

	m.setLoading("logout")

	if err := m.auth.Logout(ctx, sessionID); err != nil {
		authErr := &domainauth.AuthError{Op: "logout", Message: "logout did not complete", Err: err}
		m.setError(authErr.Message)
		return authErr
	}

	m.setReady(domainauth.GuestPrincipal(), "")
	return nil
}

// Refresh re-derives the principal from the current credential session
// without touching other in-flight state. Used after out-of-band session
// establishment (e.g., an SSO callback). Concurrent calls coalesce into one
// introspection.
func (m *AuthStateMachine) Refresh(ctx context.Context) error {
	_, err, _ := m.refresh.Do("refresh", func() (any, error) {
		sessionID := m.SessionID()
		if sessionID == "" {
			m.settle(domainauth.GuestPrincipal(), "")
			return nil, nil
		}
		session, err := m.auth.GetSession(ctx, sessionID)
		if err != nil {
			m.settle(domainauth.GuestPrincipal(), "")
			return nil, nil
		}
		m.settle(session.Principal(), session.ID)
		return nil, nil
	})
	return err
}

// AdoptSession binds the machine to a credential session established out of
// band (SSO callback) and refreshes the principal from it.
func (m *AuthStateMachine) AdoptSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	m.sessionID = sessionID
	m.mu.Unlock()
	return m.Refresh(ctx)
}

// HandleSessionEvent reacts to out-of-band session notifications. A
// SIGNED_OUT forces Ready(guest) directly, with no Loading detour, since no
// round trip is needed to know the session died. A SIGNED_IN adopts the
// event's session and refreshes.
func (m *AuthStateMachine) HandleSessionEvent(ctx context.Context, ev ports.SessionEvent) {
	switch ev.Type {
	case ports.SessionSignedOut:
		m.settle(domainauth.GuestPrincipal(), "")
	case ports.SessionSignedIn:
		if ev.SessionID != "" {
			_ = m.AdoptSession(ctx, ev.SessionID)
		} else {
			_ = m.Refresh(ctx)
		}
	}
}
