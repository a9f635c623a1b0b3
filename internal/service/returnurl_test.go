package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benerin/benerin-api/internal/adapters/memory"
	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
)

// mockReturnURLStore is a test helper for exercising store errors.
type mockReturnURLStore struct {
	getFunc   func(context.Context, string) (string, error)
	setFunc   func(context.Context, string, string) error
	clearFunc func(context.Context, string) error
}

func (m *mockReturnURLStore) Get(ctx context.Context, key string) (string, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	return "", memory.ErrNotFound
}

func (m *mockReturnURLStore) Set(ctx context.Context, key, rawURL string) error {
	if m.setFunc != nil {
		return m.setFunc(ctx, key, rawURL)
	}
	return nil
}

func (m *mockReturnURLStore) Clear(ctx context.Context, key string) error {
	if m.clearFunc != nil {
		return m.clearFunc(ctx, key)
	}
	return nil
}

func newTestCoordinator(t *testing.T) (*ReturnURLCoordinator, *memory.ReturnURLStore) {
	t.Helper()
	store := memory.NewReturnURLStore()
	coord := NewReturnURLCoordinator(ReturnURLCoordinatorOptions{
		Store:  store,
		Origin: "https://benerin.example",
	})
	return coord, store
}

func TestReturnURLCoordinator_SaveAndConsume(t *testing.T) {
	coord, _ := newTestCoordinator(t)
	ctx := context.Background()

	coord.Save(ctx, "visitor-1", "/layanan/svc-ac-repair")

	assert.Equal(t, "/layanan/svc-ac-repair", coord.Consume(ctx, "visitor-1"))
	// The slot is single-use.
	assert.Empty(t, coord.Consume(ctx, "visitor-1"))
}

func TestReturnURLCoordinator_SaveOverwrites(t *testing.T) {
	coord, _ := newTestCoordinator(t)
	ctx := context.Background()

	coord.Save(ctx, "visitor-1", "/layanan/svc-1")
	coord.Save(ctx, "visitor-1", "/layanan/svc-2")

	assert.Equal(t, "/layanan/svc-2", coord.Consume(ctx, "visitor-1"))
}

func TestReturnURLCoordinator_SaveRejectsInvalid(t *testing.T) {
	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"cross origin", "https://evil.example/phish"},
		{"scheme relative", "//evil.example/phish"},
		{"wrong scheme", "http://benerin.example/layanan"},
		{"no leading slash", "layanan/svc-1"},
		{"javascript scheme", "javascript:alert(1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coord.Save(ctx, "visitor-1", tt.url)
			_, err := store.Get(ctx, "visitor-1")
			assert.ErrorIs(t, err, memory.ErrNotFound, "invalid url must not reach the store")
		})
	}
}

func TestReturnURLCoordinator_SaveAcceptsSameOriginAbsolute(t *testing.T) {
	coord, _ := newTestCoordinator(t)
	ctx := context.Background()

	coord.Save(ctx, "visitor-1", "https://benerin.example/layanan/svc-1?tab=ulasan")

	assert.Equal(t, "https://benerin.example/layanan/svc-1?tab=ulasan", coord.Consume(ctx, "visitor-1"))
}

func TestReturnURLCoordinator_NoOriginRejectsAbsolute(t *testing.T) {
	coord := NewReturnURLCoordinator(ReturnURLCoordinatorOptions{Store: memory.NewReturnURLStore()})
	ctx := context.Background()

	coord.Save(ctx, "visitor-1", "https://benerin.example/layanan")
	assert.Empty(t, coord.Consume(ctx, "visitor-1"))

	coord.Save(ctx, "visitor-1", "/layanan")
	assert.Equal(t, "/layanan", coord.Consume(ctx, "visitor-1"))
}

func TestReturnURLCoordinator_ConsumeValidatesStoredValue(t *testing.T) {
	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	// A value written around the coordinator must still fail validation on
	// the way out, and the slot is cleared either way.
	require.NoError(t, store.Set(ctx, "visitor-1", "https://evil.example/phish"))

	assert.Empty(t, coord.Consume(ctx, "visitor-1"))
	_, err := store.Get(ctx, "visitor-1")
	assert.ErrorIs(t, err, memory.ErrNotFound)
}

func TestReturnURLCoordinator_SaveSwallowsStoreErrors(t *testing.T) {
	coord := NewReturnURLCoordinator(ReturnURLCoordinatorOptions{
		Store: &mockReturnURLStore{
			setFunc: func(context.Context, string, string) error {
				return errors.New("redis down")
			},
		},
	})

	// Must not panic or surface the error; browsing continues.
	coord.Save(context.Background(), "visitor-1", "/layanan/svc-1")
}

func TestReturnURLCoordinator_ResolvePostAuthDestination(t *testing.T) {
	coord, _ := newTestCoordinator(t)
	ctx := context.Background()

	// Pending return URL wins regardless of role.
	coord.Save(ctx, "visitor-1", "/layanan/svc-1")
	assert.Equal(t, "/layanan/svc-1", coord.ResolvePostAuthDestination(ctx, "visitor-1", domainauth.RoleMitra))

	// Empty slot falls back to the role's home.
	assert.Equal(t, "/mitra", coord.ResolvePostAuthDestination(ctx, "visitor-1", domainauth.RoleMitra))
	assert.Equal(t, "/", coord.ResolvePostAuthDestination(ctx, "visitor-1", domainauth.RoleCustomer))
}

func TestReturnURLCoordinator_EmptyKeyIsNoop(t *testing.T) {
	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	coord.Save(ctx, "", "/layanan/svc-1")
	assert.Empty(t, coord.Consume(ctx, ""))

	_, err := store.Get(ctx, "")
	assert.ErrorIs(t, err, memory.ErrNotFound)
}
