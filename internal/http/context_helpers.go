package httpx

import (
	"context"

	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
type sessionKey struct{}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the session from context and whether one is present.
func GetSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// PrincipalFromContext derives the access-control principal for the request:
// the session's principal when signed in, guest otherwise.
func PrincipalFromContext(ctx context.Context) domainauth.Principal {
	if session, ok := GetSessionFromContext(ctx); ok {
		return session.Principal()
	}
	return domainauth.GuestPrincipal()
}

// IsGuestRequest reports whether the request context is unauthenticated.
func IsGuestRequest(ctx context.Context) bool {
	session, ok := GetSessionFromContext(ctx)
	return !ok || session.IsGuest()
}
