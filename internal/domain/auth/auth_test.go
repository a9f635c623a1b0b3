package auth

import (
	"testing"
	"time"
)

func TestPrincipal_Role(t *testing.T) {
	if got := GuestPrincipal().Role(); got != RoleGuest {
		t.Fatalf("guest role = %q", got)
	}
	c := CustomerPrincipal(CustomerProfile{ID: "c1"})
	if got := c.Role(); got != RoleCustomer {
		t.Fatalf("customer role = %q", got)
	}
	m := MitraPrincipal(MitraProfile{ID: "m1"})
	if got := m.Role(); got != RoleMitra {
		t.Fatalf("mitra role = %q", got)
	}
}

func TestPrincipal_MitraPredicates(t *testing.T) {
	approved := MitraPrincipal(MitraProfile{
		ID:                 "m1",
		VerificationStatus: VerificationApproved,
		IsActive:           true,
	})
	if !approved.IsMitraApproved() {
		t.Fatalf("expected approved mitra")
	}
	if approved.IsMitraPending() {
		t.Fatalf("approved mitra reported pending")
	}

	inactive := MitraPrincipal(MitraProfile{
		ID:                 "m2",
		VerificationStatus: VerificationApproved,
		IsActive:           false,
	})
	if inactive.IsMitraApproved() {
		t.Fatalf("inactive mitra reported approved")
	}

	pending := MitraPrincipal(MitraProfile{
		ID:                 "m3",
		VerificationStatus: VerificationPending,
		IsActive:           true,
	})
	if pending.IsMitraApproved() || !pending.IsMitraPending() {
		t.Fatalf("pending mitra predicates wrong")
	}

	if GuestPrincipal().IsMitraApproved() || GuestPrincipal().IsMitraPending() {
		t.Fatalf("guest must never satisfy mitra predicates")
	}
}

func TestIdentity_Principal(t *testing.T) {
	id := Identity{
		UserID:             "m1",
		Email:              "m@example.com",
		Name:               "Bengkel Jaya",
		Role:               RoleMitra,
		VerificationStatus: VerificationPending,
		IsActive:           true,
		ExpiresAt:          time.Now().Add(time.Hour),
	}
	p := id.Principal()
	if p.Kind != KindMitra || p.Mitra == nil {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if p.Mitra.BusinessName != "Bengkel Jaya" || p.Mitra.VerificationStatus != VerificationPending {
		t.Fatalf("mitra profile not mapped: %+v", p.Mitra)
	}
}

func TestSession_Principal(t *testing.T) {
	s := Session{ID: "s1", UserID: "c1", Email: "c@example.com", Role: RoleCustomer}
	p := s.Principal()
	if p.Kind != KindCustomer || p.Customer == nil || p.Customer.ID != "c1" {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if (Session{Role: RoleGuest}).Principal().IsAuthenticated() {
		t.Fatalf("guest session must not be authenticated")
	}
}
