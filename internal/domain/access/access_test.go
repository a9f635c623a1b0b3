package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
)

func guest() domainauth.Principal { return domainauth.GuestPrincipal() }

func customer() domainauth.Principal {
	return domainauth.CustomerPrincipal(domainauth.CustomerProfile{ID: "c1", Email: "c@example.com"})
}

func mitra(status domainauth.VerificationStatus, active bool) domainauth.Principal {
	return domainauth.MitraPrincipal(domainauth.MitraProfile{
		ID:                 "m1",
		Email:              "m@example.com",
		VerificationStatus: status,
		IsActive:           active,
	})
}

func TestEvaluateCapability_CustomerCapabilities(t *testing.T) {
	caps := []Capability{CapabilityBooking, CapabilityChat, CapabilityReview, CapabilityFavorite}

	for _, c := range caps {
		c := c
		t.Run(string(c), func(t *testing.T) {
			d := EvaluateCapability(guest(), c)
			assert.Equal(t, OutcomeRequireAuth, d.Outcome)
			assert.Equal(t, domainauth.RoleCustomer, d.SuggestedRole)

			assert.Equal(t, OutcomeAllow, EvaluateCapability(customer(), c).Outcome)

			d = EvaluateCapability(mitra(domainauth.VerificationApproved, true), c)
			assert.Equal(t, OutcomeRequireRole, d.Outcome)
			assert.Equal(t, domainauth.RoleCustomer, d.RequiredRole)
		})
	}
}

func TestEvaluateCapability_MitraDashboard(t *testing.T) {
	tests := []struct {
		name      string
		principal domainauth.Principal
		want      Decision
	}{
		{
			name:      "guest gets RequireAuth with mitra entry point",
			principal: guest(),
			want:      Decision{Outcome: OutcomeRequireAuth, SuggestedRole: domainauth.RoleMitra},
		},
		{
			name:      "customer gets RequireRole mitra",
			principal: customer(),
			want:      Decision{Outcome: OutcomeRequireRole, RequiredRole: domainauth.RoleMitra},
		},
		{
			name:      "approved active mitra allowed",
			principal: mitra(domainauth.VerificationApproved, true),
			want:      Decision{Outcome: OutcomeAllow},
		},
		{
			name:      "pending mitra needs verification regardless of active flag",
			principal: mitra(domainauth.VerificationPending, true),
			want:      Decision{Outcome: OutcomeRequireVerification},
		},
		{
			name:      "pending inactive mitra needs verification",
			principal: mitra(domainauth.VerificationPending, false),
			want:      Decision{Outcome: OutcomeRequireVerification},
		},
		{
			name:      "approved but inactive mitra needs verification",
			principal: mitra(domainauth.VerificationApproved, false),
			want:      Decision{Outcome: OutcomeRequireVerification},
		},
		{
			name:      "rejected mitra needs verification",
			principal: mitra(domainauth.VerificationRejected, true),
			want:      Decision{Outcome: OutcomeRequireVerification},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateCapability(tt.principal, CapabilityMitraDashboard))
		})
	}
}

func TestEvaluateCapability_UnknownCapabilityFailsClosed(t *testing.T) {
	d := EvaluateCapability(customer(), Capability("superpowers"))
	assert.Equal(t, OutcomeRequireAuth, d.Outcome)

	d = EvaluateCapability(guest(), Capability(""))
	assert.Equal(t, OutcomeRequireAuth, d.Outcome)
}

func TestEvaluateRoute(t *testing.T) {
	tests := []struct {
		name      string
		principal domainauth.Principal
		req       Requirements
		want      Outcome
	}{
		{
			name:      "no required role admits any authenticated principal",
			principal: customer(),
			req:       Requirements{},
			want:      OutcomeAllow,
		},
		{
			name:      "no required role admits mitra too",
			principal: mitra(domainauth.VerificationPending, false),
			req:       Requirements{},
			want:      OutcomeAllow,
		},
		{
			name:      "guest always needs auth",
			principal: guest(),
			req:       Requirements{},
			want:      OutcomeRequireAuth,
		},
		{
			name:      "exact role match required",
			principal: customer(),
			req:       Requirements{RequiredRole: domainauth.RoleMitra},
			want:      OutcomeRequireRole,
		},
		{
			name:      "role match passes",
			principal: mitra(domainauth.VerificationApproved, true),
			req:       Requirements{RequiredRole: domainauth.RoleMitra},
			want:      OutcomeAllow,
		},
		{
			name:      "verification checked after role match",
			principal: mitra(domainauth.VerificationPending, true),
			req:       Requirements{RequiredRole: domainauth.RoleMitra, RequireVerification: true},
			want:      OutcomeRequireVerification,
		},
		{
			name:      "role mismatch reported before verification mismatch",
			principal: customer(),
			req:       Requirements{RequiredRole: domainauth.RoleMitra, RequireVerification: true},
			want:      OutcomeRequireRole,
		},
		{
			name:      "malformed role fails closed",
			principal: customer(),
			req:       Requirements{RequiredRole: domainauth.Role("root")},
			want:      OutcomeRequireAuth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateRoute(tt.principal, tt.req).Outcome)
		})
	}
}

func TestEvaluateRoute_SuggestedRoleFollowsRequirement(t *testing.T) {
	d := EvaluateRoute(guest(), Requirements{RequiredRole: domainauth.RoleMitra})
	assert.Equal(t, OutcomeRequireAuth, d.Outcome)
	assert.Equal(t, domainauth.RoleMitra, d.SuggestedRole)

	d = EvaluateRoute(guest(), Requirements{})
	assert.Equal(t, domainauth.RoleCustomer, d.SuggestedRole)
}
