package auth

// Package auth contains domain-level types for identity, principals, and
// sessions. It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application authorization role.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleMitra    Role = "mitra"
	RoleGuest    Role = "guest"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleMitra, RoleGuest:
		return true
	}
	return false
}

// VerificationStatus is the review state of a mitra account.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// PrincipalKind tags the variant carried by a Principal.
type PrincipalKind string

const (
	KindGuest    PrincipalKind = "guest"
	KindCustomer PrincipalKind = "customer"
	KindMitra    PrincipalKind = "mitra"
)

// CustomerProfile is the customer variant payload of a Principal.
type CustomerProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// MitraProfile is the mitra variant payload of a Principal. Mitras carry an
// additional verification gate beyond plain authentication.
type MitraProfile struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email"`
	BusinessName       string             `json:"business_name"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	IsActive           bool               `json:"is_active"`
}

// Principal is a tagged variant: exactly one of Customer or Mitra is non-nil,
// and only when Kind says so. Use the constructors below rather than building
// the struct by hand; consumption sites switch on Kind exhaustively instead
// of casting.
type Principal struct {
	Kind     PrincipalKind    `json:"kind"`
	Customer *CustomerProfile `json:"customer,omitempty"`
	Mitra    *MitraProfile    `json:"mitra,omitempty"`
}

// GuestPrincipal returns the anonymous principal.
func GuestPrincipal() Principal {
	return Principal{Kind: KindGuest}
}

// CustomerPrincipal wraps a customer profile as a principal.
func CustomerPrincipal(p CustomerProfile) Principal {
	return Principal{Kind: KindCustomer, Customer: &p}
}

// MitraPrincipal wraps a mitra profile as a principal.
func MitraPrincipal(p MitraProfile) Principal {
	return Principal{Kind: KindMitra, Mitra: &p}
}

// IsAuthenticated reports whether the principal is a signed-in identity.
func (p Principal) IsAuthenticated() bool {
	return p.Kind == KindCustomer || p.Kind == KindMitra
}

// Role maps the variant tag onto the coarse authorization role.
func (p Principal) Role() Role {
	switch p.Kind {
	case KindCustomer:
		return RoleCustomer
	case KindMitra:
		return RoleMitra
	default:
		return RoleGuest
	}
}

// IsMitraApproved reports whether the principal is a mitra that has passed
// verification and is active. False for every other variant.
func (p Principal) IsMitraApproved() bool {
	return p.Kind == KindMitra && p.Mitra != nil &&
		p.Mitra.VerificationStatus == VerificationApproved && p.Mitra.IsActive
}

// IsMitraPending reports whether the principal is a mitra still under review.
func (p Principal) IsMitraPending() bool {
	return p.Kind == KindMitra && p.Mitra != nil &&
		p.Mitra.VerificationStatus == VerificationPending
}

// Identity represents the authenticated principal returned by a credential
// backend or IdP. Adapters map backend-specific records into this shape.
type Identity struct {
	UserID             string
	Email              string
	Name               string
	Role               Role
	VerificationStatus VerificationStatus // mitra only
	IsActive           bool               // mitra only
	Groups             []string           // IdP group claims, SSO identities only
	ExpiresAt          time.Time          // absolute session expiry
}

// Principal converts the identity into a tagged principal.
func (id Identity) Principal() Principal {
	switch id.Role {
	case RoleMitra:
		return MitraPrincipal(MitraProfile{
			ID:                 id.UserID,
			Email:              id.Email,
			BusinessName:       id.Name,
			VerificationStatus: id.VerificationStatus,
			IsActive:           id.IsActive,
		})
	case RoleCustomer:
		return CustomerPrincipal(CustomerProfile{
			ID:    id.UserID,
			Email: id.Email,
			Name:  id.Name,
		})
	default:
		return GuestPrincipal()
	}
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
type Session struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	Email              string             `json:"email"`
	Name               string             `json:"name"`
	Role               Role               `json:"role"`
	VerificationStatus VerificationStatus `json:"verification_status,omitempty"`
	IsActive           bool               `json:"is_active,omitempty"`
	ExpiresAt          time.Time          `json:"expires_at"`
}

// Principal converts the session into a tagged principal.
func (s Session) Principal() Principal {
	return Identity{
		UserID:             s.UserID,
		Email:              s.Email,
		Name:               s.Name,
		Role:               s.Role,
		VerificationStatus: s.VerificationStatus,
		IsActive:           s.IsActive,
		ExpiresAt:          s.ExpiresAt,
	}.Principal()
}

// IsGuest returns true if the session role is guest.
func (s Session) IsGuest() bool { return s.Role == RoleGuest }

// Phase is the lifecycle phase of the auth state machine.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// AuthError is the failure surfaced by auth operations: invalid credentials,
// network failure, or backend rejection. The principal is left at its
// pre-call value when an operation fails with AuthError.
type AuthError struct {
	Op      string // operation that failed: "login", "logout", ...
	Message string // user-presentable description
	Err     error  // underlying cause, may be nil
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Op + ": " + e.Message
	}
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " failed"
}

func (e *AuthError) Unwrap() error { return e.Err }
