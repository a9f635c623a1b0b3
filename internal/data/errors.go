package data

import (
	"errors"

	"github.com/benerin/benerin-api/internal/ports"
)

// Shared sentinel errors for data-layer repositories. The credential errors
// alias the port contract so callers can match either name.
var (
	// ErrInvalidCredentials is returned on login when the account does not
	// exist or the password does not match; the two cases are deliberately
	// indistinguishable.
	ErrInvalidCredentials = ports.ErrInvalidCredentials
	// ErrEmailExists is returned when registering an email that already has
	// an account.
	ErrEmailExists = ports.ErrEmailExists
	// ErrListingNotFound is returned when a service listing is not found.
	ErrListingNotFound = errors.New("service listing not found")
)
