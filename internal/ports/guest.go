package ports

import (
	"context"

	"github.com/benerin/benerin-api/internal/domain/guest"
)

// GuestStore persists anonymous-visitor sessions keyed by their generated id.
// Implementations return ErrNotFound-style sentinel errors from their own
// package when a record is absent; callers treat any error as "no session".
type GuestStore interface {
	Get(ctx context.Context, id string) (guest.Session, error)
	Save(ctx context.Context, s guest.Session) error
	Delete(ctx context.Context, id string) error
}

// ReturnURLStore holds at most one pending return URL per visitor key.
// It is a plain get/set/clear capability; validation and consume-once
// semantics live in the coordinator.
type ReturnURLStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, rawURL string) error
	Clear(ctx context.Context, key string) error
}
