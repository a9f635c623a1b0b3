package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
	"github.com/benerin/benerin-api/internal/ports"
)

// Post-auth defaults per role when no valid return URL is pending.
const (
	customerHomePath   = "/"
	mitraDashboardPath = "/mitra"
)

// ReturnURLCoordinatorOptions groups dependencies for ReturnURLCoordinator.
type ReturnURLCoordinatorOptions struct {
	Store  ports.ReturnURLStore
	Logger *slog.Logger

	// Origin is the site's own origin (scheme://host[:port]). Absolute
	// candidate URLs must match it exactly; empty means only path-relative
	// URLs are accepted.
	Origin string
}

// ReturnURLCoordinator saves and redeems the single pending "where to go back
// to" URL across a login redirect round trip. The slot is last-write-wins and
// consumed exactly once; validation happens at consume time as well as save
// time so a tampered store entry cannot become an open redirect.
type ReturnURLCoordinator struct {
	store  ports.ReturnURLStore
	logger *slog.Logger
	origin *url.URL
}

// NewReturnURLCoordinator constructs a coordinator.
func NewReturnURLCoordinator(opts ReturnURLCoordinatorOptions) *ReturnURLCoordinator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var origin *url.URL
	if opts.Origin != "" {
		if u, err := url.Parse(opts.Origin); err == nil && u.IsAbs() && u.Host != "" {
			origin = u
		} else {
			logger.Warn("invalid site origin, absolute return URLs disabled", "origin", opts.Origin)
		}
	}
	return &ReturnURLCoordinator{
		store:  opts.Store,
		logger: logger,
		origin: origin,
	}
}

// Save stores the visitor's pending return URL, overwriting any prior value.
// Invalid candidates are dropped up front; storage failures are logged and
// swallowed, degrading to "no memory of where the visitor was".
func (c *ReturnURLCoordinator) Save(ctx context.Context, key, rawURL string) {
	if key == "" {
		return
	}
	candidate, ok := c.validate(rawURL)
	if !ok {
		return
	}
	if err := c.store.Set(ctx, key, candidate); err != nil {
		c.logger.DebugContext(ctx, "save return url", "error", err)
	}
}

// Consume atomically reads and clears the pending slot. Returns "" when the
// slot is empty or holds a value that fails validation.
func (c *ReturnURLCoordinator) Consume(ctx context.Context, key string) string {
	if key == "" {
		return ""
	}
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		return ""
	}
	if clearErr := c.store.Clear(ctx, key); clearErr != nil {
		c.logger.DebugContext(ctx, "clear return url", "error", clearErr)
	}
	candidate, ok := c.validate(raw)
	if !ok {
		return ""
	}
	return candidate
}

// ResolvePostAuthDestination redeems the pending return URL if one is valid,
// falling back to the role's home: mitra dashboard root for mitras, site root
// for everyone else.
func (c *ReturnURLCoordinator) ResolvePostAuthDestination(ctx context.Context, key string, role domainauth.Role) string {
	if dest := c.Consume(ctx, key); dest != "" {
		return dest
	}
	if role == domainauth.RoleMitra {
		return mitraDashboardPath
	}
	return customerHomePath
}

// validate accepts path-relative URLs beginning with "/" and absolute URLs
// whose origin matches the configured site origin. Anything else, such as
// a cross-origin, scheme-relative, or malformed URL, is treated as absent.
func (c *ReturnURLCoordinator) validate(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.IsAbs() {
		if c.origin == nil {
			return "", false
		}
		if !strings.EqualFold(u.Scheme, c.origin.Scheme) || !strings.EqualFold(u.Host, c.origin.Host) {
			return "", false
		}
		return raw, true
	}
	// Reject scheme-relative references ("//evil.example/x" parses with a host).
	if u.Host != "" {
		return "", false
	}
	if !strings.HasPrefix(raw, "/") {
		return "", false
	}
	return raw, true
}
