// Package access implements the pure capability and route authorization
// policy. Evaluation is total and deterministic: it never errors and never
// allows on ambiguous input, falling back to the most restrictive decision.
package access

import (
	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
)

// Capability is a user-facing feature gated by authentication state.
type Capability string

const (
	CapabilityBooking        Capability = "booking"
	CapabilityChat           Capability = "chat"
	CapabilityReview         Capability = "review"
	CapabilityFavorite       Capability = "favorite"
	CapabilityMitraDashboard Capability = "mitraDashboard"
)

// Outcome classifies an access decision.
type Outcome string

const (
	// OutcomeAllow grants access.
	OutcomeAllow Outcome = "allow"
	// OutcomeRequireAuth means the caller must sign in; SuggestedRole hints
	// which entry point (customer login vs mitra login) to route to.
	OutcomeRequireAuth Outcome = "require_auth"
	// OutcomeRequireRole means the caller is signed in but holds the wrong role.
	OutcomeRequireRole Outcome = "require_role"
	// OutcomeRequireVerification means the caller is a mitra whose account has
	// not cleared verification (or is inactive).
	OutcomeRequireVerification Outcome = "require_verification"
)

// Decision is the ephemeral result of evaluating a principal against a
// capability or route. Produced and consumed, never stored.
type Decision struct {
	Outcome       Outcome
	SuggestedRole domainauth.Role // set for OutcomeRequireAuth
	RequiredRole  domainauth.Role // set for OutcomeRequireRole
}

// Allowed reports whether the decision grants access.
func (d Decision) Allowed() bool { return d.Outcome == OutcomeAllow }

// Requirements declares what a route demands of its caller. The zero value
// requires any authenticated principal.
type Requirements struct {
	// RequiredRole, when set, requires an exact role match.
	RequiredRole domainauth.Role
	// RequireVerification additionally requires an approved, active mitra.
	// Checked only after the role check passes.
	RequireVerification bool
}

func allow() Decision { return Decision{Outcome: OutcomeAllow} }

func requireAuth(suggested domainauth.Role) Decision {
	return Decision{Outcome: OutcomeRequireAuth, SuggestedRole: suggested}
}

func requireRole(required domainauth.Role) Decision {
	return Decision{Outcome: OutcomeRequireRole, RequiredRole: required}
}

func requireVerification() Decision {
	return Decision{Outcome: OutcomeRequireVerification}
}

// EvaluateCapability maps (principal, capability) to a decision:
//
//	capability            guest                 customer              mitra (any)
//	booking/chat/
//	review/favorite       RequireAuth(customer) Allow                 RequireRole(customer)
//	mitraDashboard        RequireAuth(mitra)    RequireRole(mitra)    Allow iff approved && active,
//	                                                                  else RequireVerification
//
// Unknown capabilities fail closed to RequireAuth(customer).
func EvaluateCapability(p domainauth.Principal, c Capability) Decision {
	switch c {
	case CapabilityBooking, CapabilityChat, CapabilityReview, CapabilityFavorite:
		return evaluateCustomerCapability(p)
	case CapabilityMitraDashboard:
		return evaluateMitraDashboard(p)
	default:
		// Malformed input: most restrictive decision, never a silent allow.
		return requireAuth(domainauth.RoleCustomer)
	}
}

func evaluateCustomerCapability(p domainauth.Principal) Decision {
	switch p.Kind {
	case domainauth.KindCustomer:
		return allow()
	case domainauth.KindMitra:
		return requireRole(domainauth.RoleCustomer)
	default:
		return requireAuth(domainauth.RoleCustomer)
	}
}

func evaluateMitraDashboard(p domainauth.Principal) Decision {
	switch p.Kind {
	case domainauth.KindMitra:
		if p.IsMitraApproved() {
			return allow()
		}
		return requireVerification()
	case domainauth.KindCustomer:
		return requireRole(domainauth.RoleMitra)
	default:
		return requireAuth(domainauth.RoleMitra)
	}
}

// EvaluateRoute maps (principal, route requirements) to a decision. Absence
// of RequiredRole means any authenticated principal passes. The role check
// short-circuits the verification check: a role mismatch is reported before
// a verification mismatch.
func EvaluateRoute(p domainauth.Principal, req Requirements) Decision {
	if req.RequiredRole != "" && !req.RequiredRole.Valid() {
		// Malformed requirements fail closed.
		return requireAuth(domainauth.RoleCustomer)
	}

	if !p.IsAuthenticated() {
		suggested := req.RequiredRole
		if suggested == "" || suggested == domainauth.RoleGuest {
			suggested = domainauth.RoleCustomer
		}
		return requireAuth(suggested)
	}

	if req.RequiredRole != "" && req.RequiredRole != domainauth.RoleGuest && p.Role() != req.RequiredRole {
		return requireRole(req.RequiredRole)
	}

	if req.RequireVerification && p.Kind == domainauth.KindMitra && !p.IsMitraApproved() {
		return requireVerification()
	}

	return allow()
}
