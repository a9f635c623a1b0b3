package service

import (
	"context"

	"github.com/benerin/benerin-api/internal/domain/access"
	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
)

// Default auth entry points the guard navigates to on denial.
const (
	customerLoginPath = "/auth/login"
	mitraEntryPath    = "/mitra/login"
)

// GuardOptions configures a Guard around one protected view.
type GuardOptions struct {
	Machine      *AuthStateMachine
	Requirements access.Requirements
	ReturnURLs   *ReturnURLCoordinator // optional
	VisitorKey   string

	// CurrentPath reports where the visitor is, saved as the return URL
	// before a redirect.
	CurrentPath func() string
	// Navigate is the navigation primitive; invoked with the auth entry
	// point on denial.
	Navigate func(path string)
	// Render shows the protected content.
	Render func()
	// Fallback, when set, is shown on denial instead of navigating. The
	// caller has opted out of auto-redirect.
	Fallback func(access.Decision)
	// Waiting, when set, renders the neutral state while auth is settling.
	Waiting func()

	// Entry point overrides; defaults are used when empty.
	CustomerEntry string
	MitraEntry    string
}

// Guard wraps a protected view: it re-evaluates the route requirements
// against the auth state machine on every actual state transition (not every
// render), holds fire while the machine is Loading so session restoration
// never causes a redirect flicker, and on denial remembers the visitor's
// location before sending them to the right auth entry point.
type Guard struct {
	opts GuardOptions
}

// NewGuard constructs a Guard.
func NewGuard(opts GuardOptions) *Guard {
	if opts.CustomerEntry == "" {
		opts.CustomerEntry = customerLoginPath
	}
	if opts.MitraEntry == "" {
		opts.MitraEntry = mitraEntryPath
	}
	return &Guard{opts: opts}
}

// Run evaluates the current state once, then re-evaluates on every state
// transition until ctx is done. Blocks; run it from its own goroutine when
// the caller has other work.
func (g *Guard) Run(ctx context.Context) {
	ch, unsubscribe := g.opts.Machine.Subscribe()
	defer unsubscribe()

	g.Evaluate(ctx, g.opts.Machine.Snapshot())

	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-ch:
			g.Evaluate(ctx, snap)
		}
	}
}

// Evaluate applies the guard's policy to one snapshot.
func (g *Guard) Evaluate(ctx context.Context, snap AuthSnapshot) {
	switch snap.Phase {
	case domainauth.PhaseIdle, domainauth.PhaseLoading:
		// Not settled yet: neutral waiting state, never a redirect.
		if g.opts.Waiting != nil {
			g.opts.Waiting()
		}
		return
	case domainauth.PhaseError:
		// A failed operation leaves the prior settled principal in place;
		// evaluate against that rather than kicking the visitor out.
	case domainauth.PhaseReady:
	}

	decision := access.EvaluateRoute(snap.Principal, g.opts.Requirements)
	if decision.Allowed() {
		if g.opts.Render != nil {
			g.opts.Render()
		}
		return
	}

	if g.opts.Fallback != nil {
		g.opts.Fallback(decision)
		return
	}

	if g.opts.ReturnURLs != nil && g.opts.CurrentPath != nil {
		g.opts.ReturnURLs.Save(ctx, g.opts.VisitorKey, g.opts.CurrentPath())
	}
	if g.opts.Navigate != nil {
		g.opts.Navigate(g.entryPoint(decision))
	}
}

// entryPoint picks the auth entry point suggested by the denial.
func (g *Guard) entryPoint(d access.Decision) string {
	role := d.SuggestedRole
	if role == "" {
		role = d.RequiredRole
	}
	if d.Outcome == access.OutcomeRequireVerification || role == domainauth.RoleMitra {
		return g.opts.MitraEntry
	}
	return g.opts.CustomerEntry
}
