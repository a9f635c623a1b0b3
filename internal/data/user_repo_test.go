package data

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
)

func TestUserRow_Identity(t *testing.T) {
	pending := "pending"
	row := userRow{
		ID:                 "u-1",
		Email:              "bengkel@example.com",
		Name:               "Bengkel Jaya",
		Role:               "mitra",
		VerificationStatus: &pending,
		IsActive:           true,
	}

	id := row.identity()
	assert.Equal(t, domainauth.RoleMitra, id.Role)
	assert.Equal(t, domainauth.VerificationPending, id.VerificationStatus)
	assert.True(t, id.IsActive)
	assert.True(t, id.ExpiresAt.IsZero(), "expiry is owned by the auth service")
}

func TestUserRow_Identity_CustomerHasNoStatus(t *testing.T) {
	row := userRow{ID: "u-2", Role: "customer", IsActive: true}

	id := row.identity()
	assert.Equal(t, domainauth.RoleCustomer, id.Role)
	assert.Empty(t, id.VerificationStatus)
}

func TestUserRepo_StampedAt_UsesInjectedClock(t *testing.T) {
	wib := time.FixedZone("WIB", 7*3600)
	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, wib)
	repo := &UserRepo{timeProvider: NewFixedTimeProvider(fixed)}

	got := repo.stampedAt()
	assert.Equal(t, fixed.UTC(), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestMapRegisterErr_UniqueViolation(t *testing.T) {
	err := mapRegisterErr(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestMapRegisterErr_OtherError(t *testing.T) {
	cause := errors.New("connection refused")
	err := mapRegisterErr(cause)
	assert.NotErrorIs(t, err, ErrEmailExists)
	assert.ErrorIs(t, err, cause)
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	if got := nullable("0811-234-567"); assert.NotNil(t, got) {
		assert.Equal(t, "0811-234-567", *got)
	}
}
